package host

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEntryNotFound = errors.New("time entry not found")
	ErrReadOnly      = errors.New("time entry is not a draft")
	ErrUnknownIntent = errors.New("unknown intent")
)

// BatchError reports a submit batch that only partly went through. Entries
// listed in Submitted were transitioned; the rest kept their previous status.
type BatchError struct {
	Submitted []string
	Failed    map[string]error
}

func (e *BatchError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Failed[id]))
	}
	return fmt.Sprintf("submitted %d of %d entries; failed %s",
		len(e.Submitted), len(e.Submitted)+len(e.Failed), strings.Join(parts, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}
