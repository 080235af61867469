package store

import (
	"context"
	"fmt"

	"github.com/christopherklint97/timegrid/internal/week"
	"github.com/google/uuid"
)

func (db *DB) ListProjects(ctx context.Context) ([]week.Project, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, status FROM projects ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []week.Project
	index := make(map[string]int)
	for rows.Next() {
		var p week.Project
		var status string
		if err := rows.Scan(&p.ID, &p.Name, &status); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.Status = week.ProjectStatus(status)
		index[p.ID] = len(projects)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	taskRows, err := db.QueryContext(ctx, "SELECT id, project_id, name FROM tasks ORDER BY position ASC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var t week.Task
		if err := taskRows.Scan(&t.ID, &t.ProjectID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		if i, ok := index[t.ProjectID]; ok {
			projects[i].Tasks = append(projects[i].Tasks, t)
		}
	}
	return projects, taskRows.Err()
}

// UpsertProject inserts or replaces a project together with its task list.
// Missing project and task IDs are generated.
func (db *DB) UpsertProject(ctx context.Context, p week.Project) (week.Project, error) {
	if p.Name == "" {
		return week.Project{}, fmt.Errorf("project name is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = week.ProjectActive
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return week.Project{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, status) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, status = excluded.status`,
		p.ID, p.Name, string(p.Status),
	); err != nil {
		return week.Project{}, fmt.Errorf("upserting project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = ?", p.ID); err != nil {
		return week.Project{}, fmt.Errorf("clearing tasks: %w", err)
	}

	tasks := make([]week.Task, len(p.Tasks))
	for i, t := range p.Tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.ProjectID = p.ID
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tasks (id, project_id, name, position) VALUES (?, ?, ?, ?)",
			t.ID, t.ProjectID, t.Name, i,
		); err != nil {
			return week.Project{}, fmt.Errorf("inserting task %q: %w", t.Name, err)
		}
		tasks[i] = t
	}
	p.Tasks = tasks

	if err := tx.Commit(); err != nil {
		return week.Project{}, fmt.Errorf("committing project: %w", err)
	}
	return p, nil
}
