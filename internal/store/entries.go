package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/christopherklint97/timegrid/internal/week"
	"github.com/google/uuid"
)

const entryColumns = "id, project_id, task_id, date, duration, description, status"

func (db *DB) ListTimeEntries(ctx context.Context) ([]week.TimeEntry, error) {
	return db.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM entries ORDER BY date ASC, created_at ASC`,
	)
}

func (db *DB) CreateTimeEntry(ctx context.Context, e week.TimeEntry) (string, error) {
	id := uuid.NewString()
	if e.Status == "" {
		e.Status = week.StatusDraft
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, e.ProjectID, e.TaskID, e.Date, e.Duration, e.Description, string(e.Status),
	)
	if err != nil {
		return "", fmt.Errorf("inserting entry: %w", err)
	}
	return id, nil
}

func (db *DB) UpdateTimeEntry(ctx context.Context, e week.TimeEntry) error {
	return db.execOne(ctx, e.ID,
		`UPDATE entries SET project_id = ?, task_id = ?, date = ?, duration = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.ProjectID, e.TaskID, e.Date, e.Duration, e.Description, e.ID,
	)
}

func (db *DB) MoveTimeEntry(ctx context.Context, id, date string) error {
	return db.execOne(ctx, id,
		"UPDATE entries SET date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		date, id,
	)
}

func (db *DB) SetStatus(ctx context.Context, id string, status week.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return db.execOne(ctx, id,
		"UPDATE entries SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(status), id,
	)
}

func (db *DB) DeleteTimeEntry(ctx context.Context, id string) error {
	return db.execOne(ctx, id, "DELETE FROM entries WHERE id = ?", id)
}

// ErrNotFound is returned when a statement addressed an entry that does not exist.
var ErrNotFound = errors.New("entry not found")

func (db *DB) execOne(ctx context.Context, id, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return nil
}

func (db *DB) queryEntries(ctx context.Context, query string, args ...any) ([]week.TimeEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []week.TimeEntry
	for rows.Next() {
		var e week.TimeEntry
		var status string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.TaskID, &e.Date, &e.Duration, &e.Description, &status); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Status = week.Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
