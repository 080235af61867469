package mocks

import (
	"context"

	"github.com/christopherklint97/timegrid/internal/week"
	"github.com/stretchr/testify/mock"
)

// Backend is a mock for host.Backend.
type Backend struct {
	mock.Mock
}

func (m *Backend) ListProjects(ctx context.Context) ([]week.Project, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]week.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) ListTimeEntries(ctx context.Context) ([]week.TimeEntry, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]week.TimeEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) CreateTimeEntry(ctx context.Context, e week.TimeEntry) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

func (m *Backend) UpdateTimeEntry(ctx context.Context, e week.TimeEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *Backend) MoveTimeEntry(ctx context.Context, id, date string) error {
	args := m.Called(ctx, id, date)
	return args.Error(0)
}

func (m *Backend) SetStatus(ctx context.Context, id string, status week.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *Backend) DeleteTimeEntry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Notifier is a mock for host.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(title, message string) error {
	args := m.Called(title, message)
	return args.Error(0)
}
