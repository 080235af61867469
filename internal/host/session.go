package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/christopherklint97/timegrid/internal/week"
)

// Notifier surfaces the outcome of a submit batch to the user.
type Notifier interface {
	Notify(title, message string) error
}

// Session is the collaborator behind the grid: it loads collections from a
// Backend, executes intents against it and keeps the resulting snapshot.
// Every mutation replaces the snapshot; it is never edited in place.
type Session struct {
	backend  Backend
	logger   *slog.Logger
	notifier Notifier

	mu   sync.RWMutex
	snap week.Snapshot
}

type Option func(*Session)

func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

func NewSession(backend Backend, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Session{backend: backend, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the collections as of the last load or mutation.
func (s *Session) Snapshot() week.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Session) replace(fn func(week.Snapshot) week.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = fn(s.snap)
}

// Load fetches projects first, then entries, and replaces the snapshot.
func (s *Session) Load(ctx context.Context) (week.Snapshot, error) {
	projects, err := s.backend.ListProjects(ctx)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("loading projects: %w", err)
	}
	s.replace(func(cur week.Snapshot) week.Snapshot {
		return cur.WithProjects(projects)
	})

	entries, err := s.backend.ListTimeEntries(ctx)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("loading time entries: %w", err)
	}

	snap := week.NewSnapshot(entries, projects)
	s.replace(func(week.Snapshot) week.Snapshot { return snap })

	s.logger.Debug("session loaded", "projects", len(projects), "entries", len(entries))
	return snap, nil
}

// Refresh is Load for an explicit user reload: cached projects are dropped
// first so renamed or closed projects show up.
func (s *Session) Refresh(ctx context.Context) (week.Snapshot, error) {
	if inv, ok := s.backend.(ProjectInvalidator); ok {
		inv.InvalidateProjects()
		s.logger.Debug("project cache invalidated")
	}
	return s.Load(ctx)
}

// OnIntent executes one grid intent against the backend.
func (s *Session) OnIntent(ctx context.Context, in week.Intent) error {
	s.logger.Debug("handling intent", "kind", in.Kind, "entry_id", in.EntryID, "date", in.Date, "batch", len(in.EntryIDs))

	switch in.Kind {
	case week.IntentAddEntry, week.IntentEditEntry:
		// Opening a form changes nothing in the store.
		return nil
	case week.IntentMoveEntry:
		return s.move(ctx, in.EntryID, in.Date)
	case week.IntentCloneEntry:
		return s.clone(ctx, in)
	case week.IntentSubmitEntries:
		return s.submit(ctx, in.EntryIDs)
	case week.IntentSaveEntry:
		if in.Entry == nil {
			return fmt.Errorf("%w: save without entry", ErrUnknownIntent)
		}
		return s.save(ctx, week.DraftFrom(*in.Entry))
	case week.IntentDeleteEntry:
		return s.delete(ctx, in.EntryID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
}

func (s *Session) draft(id string) (week.TimeEntry, error) {
	e, ok := s.Snapshot().Entry(id)
	if !ok {
		return week.TimeEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if !e.IsDraft() {
		return week.TimeEntry{}, fmt.Errorf("%w: %s is %s", ErrReadOnly, id, e.Status)
	}
	return e, nil
}

func (s *Session) move(ctx context.Context, id, date string) error {
	e, err := s.draft(id)
	if err != nil {
		return err
	}
	if _, err := week.ParseDate(date); err != nil {
		return err
	}
	if e.Date == date {
		s.logger.Debug("move to same day, nothing to do", "entry_id", id, "date", date)
		return nil
	}

	if err := s.backend.MoveTimeEntry(ctx, id, date); err != nil {
		return fmt.Errorf("moving time entry: %w", err)
	}

	e.Date = date
	s.replace(func(cur week.Snapshot) week.Snapshot { return cur.WithEntry(e) })
	return nil
}

func (s *Session) clone(ctx context.Context, in week.Intent) error {
	e, ok := in.ClonedEntry()
	if !ok {
		return fmt.Errorf("%w: clone without source entry", ErrUnknownIntent)
	}
	if in.Entry.Status == week.StatusApproved {
		return fmt.Errorf("%w: approved entries cannot be cloned", ErrReadOnly)
	}

	id, err := s.backend.CreateTimeEntry(ctx, e)
	if err != nil {
		return fmt.Errorf("cloning time entry: %w", err)
	}

	e.ID = id
	s.replace(func(cur week.Snapshot) week.Snapshot { return cur.WithEntry(e) })
	return nil
}

// submit transitions drafts one at a time. A failure does not stop the batch
// and nothing is rolled back; the caller gets a BatchError naming the failures.
func (s *Session) submit(ctx context.Context, ids []string) error {
	var submitted []string
	failed := make(map[string]error)

	for _, id := range ids {
		e, err := s.draft(id)
		if err != nil {
			s.logger.Warn("skipping entry in submit batch", "entry_id", id, "error", err)
			continue
		}

		if err := s.backend.SetStatus(ctx, id, week.StatusSubmitted); err != nil {
			s.logger.Error("submitting time entry failed", "entry_id", id, "error", err)
			failed[id] = err
			continue
		}

		e.Status = week.StatusSubmitted
		s.replace(func(cur week.Snapshot) week.Snapshot { return cur.WithEntry(e) })
		submitted = append(submitted, id)
	}

	s.notifySubmit(len(submitted), len(failed))

	if len(failed) > 0 {
		return &BatchError{Submitted: submitted, Failed: failed}
	}
	return nil
}

func (s *Session) notifySubmit(submitted, failed int) {
	if s.notifier == nil || submitted+failed == 0 {
		return
	}
	msg := fmt.Sprintf("Submitted %d time entries", submitted)
	if failed > 0 {
		msg = fmt.Sprintf("Submitted %d of %d time entries", submitted, submitted+failed)
	}
	if err := s.notifier.Notify("timegrid", msg); err != nil {
		s.logger.Warn("sending notification failed", "error", err)
	}
}

func (s *Session) save(ctx context.Context, d week.EntryDraft) error {
	if err := d.Validate(s.Snapshot().Projects); err != nil {
		return err
	}

	e := d.Entry()
	if e.ID == "" {
		id, err := s.backend.CreateTimeEntry(ctx, e)
		if err != nil {
			return fmt.Errorf("creating time entry: %w", err)
		}
		e.ID = id
	} else {
		if _, err := s.draft(e.ID); err != nil {
			return err
		}
		if err := s.backend.UpdateTimeEntry(ctx, e); err != nil {
			return fmt.Errorf("updating time entry: %w", err)
		}
	}

	s.replace(func(cur week.Snapshot) week.Snapshot { return cur.WithEntry(e) })
	return nil
}

func (s *Session) delete(ctx context.Context, id string) error {
	if _, err := s.draft(id); err != nil {
		return err
	}
	if err := s.backend.DeleteTimeEntry(ctx, id); err != nil {
		return fmt.Errorf("deleting time entry: %w", err)
	}
	s.replace(func(cur week.Snapshot) week.Snapshot { return cur.WithoutEntry(id) })
	return nil
}
