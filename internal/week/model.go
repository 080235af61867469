package week

import "strings"

// Status is the lifecycle state of a time entry: draft → submitted → approved.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved:
		return true
	}
	return false
}

// Title returns the status with an upper-case first letter, as shown on badges.
func (s Status) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectInactive ProjectStatus = "inactive"
)

// TimeEntry is a single unit of logged work on one calendar day.
type TimeEntry struct {
	ID          string  `json:"id,omitempty"`
	ProjectID   string  `json:"projectId"`
	TaskID      string  `json:"taskId"`
	Date        string  `json:"date" jsonschema:"pattern=^\\d{4}-\\d{2}-\\d{2}$"`
	Duration    float64 `json:"duration" jsonschema:"minimum=0.25,maximum=24,multipleOf=0.25"`
	Description string  `json:"description,omitempty"`
	Status      Status  `json:"status" jsonschema:"enum=draft,enum=submitted,enum=approved"`
}

// IsDraft reports whether the entry can still be moved, edited or deleted.
func (e TimeEntry) IsDraft() bool {
	return e.Status == StatusDraft
}

// Cloneable reports whether a new draft may be created from this entry.
func (e TimeEntry) Cloneable() bool {
	return e.Status == StatusDraft || e.Status == StatusSubmitted
}

type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
}

type Project struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Status ProjectStatus `json:"status" jsonschema:"enum=active,enum=inactive"`
	Tasks  []Task        `json:"tasks"`
}

func (p Project) Active() bool {
	return p.Status == ProjectActive
}
