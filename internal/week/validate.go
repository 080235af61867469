package week

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	MinDuration  = 0.25
	MaxDuration  = 24.0
	DurationStep = 0.25
)

var (
	ErrInvalidDuration = errors.New("duration must be between 0.25 and 24 hours in 0.25 steps")
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
	ErrNoProject       = errors.New("a project is required")
	ErrInactiveProject = errors.New("project is not active")
	ErrNoTask          = errors.New("a task is required")
	ErrUnknownTask     = errors.New("task does not belong to the selected project")
)

// ValidateDuration checks the hour value an entry may carry.
func ValidateDuration(h float64) error {
	if math.IsNaN(h) || h < MinDuration || h > MaxDuration {
		return ErrInvalidDuration
	}
	steps := h / DurationStep
	if math.Abs(steps-math.Round(steps)) > 1e-9 {
		return ErrInvalidDuration
	}
	return nil
}

// ParseDate parses a date-only key in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// EntryDraft is the content of the entry form, before it becomes a TimeEntry.
type EntryDraft struct {
	ID          string
	ProjectID   string
	TaskID      string
	Date        string
	Duration    float64
	Description string
}

// DraftFrom prefills a form from an existing entry.
func DraftFrom(e TimeEntry) EntryDraft {
	return EntryDraft{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		TaskID:      e.TaskID,
		Date:        e.Date,
		Duration:    e.Duration,
		Description: e.Description,
	}
}

// Validate applies the entry-creation rules: an active project, one of its
// tasks, a well-formed date and a valid duration.
func (d EntryDraft) Validate(projects []Project) error {
	if d.ProjectID == "" {
		return ErrNoProject
	}
	p, ok := FindProject(projects, d.ProjectID)
	if !ok || !p.Active() {
		return ErrInactiveProject
	}
	if d.TaskID == "" {
		return ErrNoTask
	}
	owned := false
	for _, t := range p.Tasks {
		if t.ID == d.TaskID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrUnknownTask
	}
	if _, err := ParseDate(d.Date); err != nil {
		return err
	}
	return ValidateDuration(d.Duration)
}

// Entry converts the draft into a draft-status TimeEntry.
func (d EntryDraft) Entry() TimeEntry {
	return TimeEntry{
		ID:          d.ID,
		ProjectID:   d.ProjectID,
		TaskID:      d.TaskID,
		Date:        d.Date,
		Duration:    d.Duration,
		Description: d.Description,
		Status:      StatusDraft,
	}
}
