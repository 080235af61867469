package host

import (
	"context"

	"github.com/christopherklint97/timegrid/internal/week"
)

// Backend is the external store that owns entries and projects. Both the
// remote Dataverse client and the local SQLite store implement it.
type Backend interface {
	ListProjects(ctx context.Context) ([]week.Project, error)
	ListTimeEntries(ctx context.Context) ([]week.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, e week.TimeEntry) (string, error)
	UpdateTimeEntry(ctx context.Context, e week.TimeEntry) error
	MoveTimeEntry(ctx context.Context, id, date string) error
	SetStatus(ctx context.Context, id string, status week.Status) error
	DeleteTimeEntry(ctx context.Context, id string) error
}

// ProjectInvalidator is implemented by backends that cache the project list.
// An explicit reload drops the cache before loading.
type ProjectInvalidator interface {
	InvalidateProjects()
}

// Adapter is the boundary between the week grid and whatever runtime hosts it.
type Adapter interface {
	Load(ctx context.Context) (week.Snapshot, error)
	OnIntent(ctx context.Context, in week.Intent) error
	Render(snap week.Snapshot)
}
