package week_test

import (
	"testing"
	"time"

	"github.com/christopherklint97/timegrid/internal/week"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := week.ParseDate(s)
	require.NoError(t, err)
	return d
}

var testProjects = []week.Project{
	{
		ID:     "p1",
		Name:   "Customer Portal Relaunch",
		Status: week.ProjectActive,
		Tasks: []week.Task{
			{ID: "t1", Name: "Design", ProjectID: "p1"},
			{ID: "t2", Name: "Build", ProjectID: "p1"},
		},
	},
	{
		ID:     "p2",
		Name:   "Legacy",
		Status: week.ProjectInactive,
		Tasks:  []week.Task{{ID: "t3", Name: "Support", ProjectID: "p2"}},
	},
}

func TestValidateDuration(t *testing.T) {
	tests := []struct {
		hours float64
		ok    bool
	}{
		{0.25, true},
		{2.5, true},
		{24, true},
		{0, false},
		{-1, false},
		{0.1, false},
		{24.25, false},
		{7.75, true},
	}
	for _, tt := range tests {
		err := week.ValidateDuration(tt.hours)
		if tt.ok {
			require.NoError(t, err, "hours %v", tt.hours)
		} else {
			require.ErrorIs(t, err, week.ErrInvalidDuration, "hours %v", tt.hours)
		}
	}
}

func TestEntryDraftValidate(t *testing.T) {
	valid := week.EntryDraft{ProjectID: "p1", TaskID: "t2", Date: "2024-01-10", Duration: 1.5}
	require.NoError(t, valid.Validate(testProjects))

	tests := []struct {
		name  string
		draft week.EntryDraft
		want  error
	}{
		{"no project", week.EntryDraft{TaskID: "t1", Date: "2024-01-10", Duration: 1}, week.ErrNoProject},
		{"inactive project", week.EntryDraft{ProjectID: "p2", TaskID: "t3", Date: "2024-01-10", Duration: 1}, week.ErrInactiveProject},
		{"unknown project", week.EntryDraft{ProjectID: "nope", TaskID: "t1", Date: "2024-01-10", Duration: 1}, week.ErrInactiveProject},
		{"no task", week.EntryDraft{ProjectID: "p1", Date: "2024-01-10", Duration: 1}, week.ErrNoTask},
		{"foreign task", week.EntryDraft{ProjectID: "p1", TaskID: "t3", Date: "2024-01-10", Duration: 1}, week.ErrUnknownTask},
		{"bad date", week.EntryDraft{ProjectID: "p1", TaskID: "t1", Date: "10/01/2024", Duration: 1}, week.ErrInvalidDate},
		{"bad duration", week.EntryDraft{ProjectID: "p1", TaskID: "t1", Date: "2024-01-10", Duration: 25}, week.ErrInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.draft.Validate(testProjects), tt.want)
		})
	}
}

func TestEntryDraftRoundTripKeepsIdentity(t *testing.T) {
	e := week.TimeEntry{ID: "x", ProjectID: "p1", TaskID: "t1", Date: "2024-01-10", Duration: 2, Description: "d", Status: week.StatusDraft}
	require.Equal(t, e, week.DraftFrom(e).Entry())
}

func TestProjectAndTaskLabels(t *testing.T) {
	require.Equal(t, "Customer Portal...", week.ProjectLabel(testProjects, "p1"))
	require.Equal(t, "Legacy", week.ProjectLabel(testProjects, "p2"))
	require.Equal(t, "Unknown Project", week.ProjectLabel(testProjects, "missing"))

	require.Equal(t, "Build", week.TaskLabel(testProjects, "p1", "t2"))
	require.Equal(t, "Unknown Task", week.TaskLabel(testProjects, "p1", "t3"))
}

func TestEntryChoices(t *testing.T) {
	active := week.ActiveProjects(testProjects)
	require.Len(t, active, 1)
	require.Equal(t, "p1", active[0].ID)

	require.Empty(t, week.TasksFor(testProjects, ""))
	require.Len(t, week.TasksFor(testProjects, "p1"), 2)
	require.Empty(t, week.TasksFor(testProjects, "missing"))
}

func TestSnapshotReplacesWithoutEditingInPlace(t *testing.T) {
	orig := week.NewSnapshot([]week.TimeEntry{
		entry("a", "2024-01-08", 1, week.StatusDraft),
		entry("b", "2024-01-09", 1, week.StatusDraft),
	}, testProjects)

	moved := entry("a", "2024-01-12", 1, week.StatusDraft)
	next := orig.WithEntry(moved)

	got, _ := orig.Entry("a")
	require.Equal(t, "2024-01-08", got.Date)
	got, _ = next.Entry("a")
	require.Equal(t, "2024-01-12", got.Date)
	require.Len(t, next.Entries, 2)

	added := next.WithEntry(entry("c", "2024-01-10", 2, week.StatusDraft))
	require.Len(t, added.Entries, 3)
	require.Len(t, next.Entries, 2)

	removed := added.WithoutEntry("b")
	_, ok := removed.Entry("b")
	require.False(t, ok)
	require.Len(t, added.Entries, 3)
}

func TestStatusTitle(t *testing.T) {
	require.Equal(t, "Submitted", week.StatusSubmitted.Title())
	require.True(t, week.StatusApproved.Valid())
	require.False(t, week.Status("rejected").Valid())
}
