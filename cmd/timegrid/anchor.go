package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"

	"github.com/christopherklint97/timegrid/internal/week"
)

// resolveAnchor picks the week to open. An explicit value may be a date or a
// phrase such as "last week"; otherwise the last viewed week is reused, and
// failing that, the current one.
func resolveAnchor(value, lastWeek string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if t, err := week.ParseDate(lastWeek); err == nil {
			return week.StartOfWeek(t), nil
		}
		return week.StartOfWeek(now), nil
	}

	if t, err := week.ParseDate(value); err == nil {
		return week.StartOfWeek(t), nil
	}

	t, err := naturaldate.Parse(value, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing week %q: %w", value, err)
	}
	return week.StartOfWeek(t), nil
}
