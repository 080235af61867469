package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/timegrid/internal/week"
)

type fakeDispatcher struct {
	intents []week.Intent
	loads   int
	reloads int
	err     error
}

func (f *fakeDispatcher) UpdateView(context.Context) error {
	f.loads++
	return nil
}

func (f *fakeDispatcher) Reload(context.Context) error {
	f.reloads++
	return nil
}

func (f *fakeDispatcher) Dispatch(_ context.Context, in week.Intent) error {
	f.intents = append(f.intents, in)
	return f.err
}

var testProjects = []week.Project{
	{
		ID:     "p1",
		Name:   "Customer Portal Relaunch",
		Status: week.ProjectActive,
		Tasks: []week.Task{
			{ID: "t1", Name: "Build", ProjectID: "p1"},
			{ID: "t2", Name: "Review", ProjectID: "p1"},
		},
	},
	{ID: "p2", Name: "Legacy", Status: week.ProjectInactive, Tasks: []week.Task{{ID: "t3", Name: "Support", ProjectID: "p2"}}},
	{ID: "p3", Name: "Internal", Status: week.ProjectActive, Tasks: []week.Task{{ID: "t4", Name: "Admin", ProjectID: "p3"}}},
}

func testSnapshot() week.Snapshot {
	return week.NewSnapshot([]week.TimeEntry{
		{ID: "d1", ProjectID: "p1", TaskID: "t1", Date: "2024-01-08", Duration: 2, Status: week.StatusDraft},
		{ID: "d2", ProjectID: "p1", TaskID: "t1", Date: "2024-01-09", Duration: 3, Status: week.StatusDraft},
		{ID: "s1", ProjectID: "p1", TaskID: "t2", Date: "2024-01-10", Duration: 2.5, Status: week.StatusSubmitted},
		{ID: "a1", ProjectID: "p3", TaskID: "t4", Date: "2024-01-11", Duration: 4, Status: week.StatusApproved},
	}, testProjects)
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := week.ParseDate(s)
	require.NoError(t, err)
	return d
}

// newTestApp opens the grid on Wednesday 2024-01-10 with the test snapshot loaded.
func newTestApp(t *testing.T) (*App, *fakeDispatcher) {
	t.Helper()
	d := &fakeDispatcher{}
	a := NewApp(d, date(t, "2024-01-10"))
	a.now = func() time.Time { return date(t, "2024-01-10") }
	a.Update(SnapshotMsg{Snapshot: testSnapshot()})
	return a, d
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press feeds keys to the app and runs any intent or load command it returns,
// feeding the result back in.
func press(t *testing.T, a *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := a.Update(keyMsg(k))
		run(a, cmd)
	}
}

func run(a *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case intentDoneMsg, loadedMsg:
		a.Update(msg)
	}
}

func TestFocusStartsOnAnchorDay(t *testing.T) {
	a, _ := newTestApp(t)
	require.Equal(t, 2, a.day)
	require.Equal(t, "2024-01-10", a.focusedDay().Key)

	e, ok := a.focusedEntry()
	require.True(t, ok)
	require.Equal(t, "s1", e.ID)
	require.Equal(t, date(t, "2024-01-08"), a.Result())
}

func TestSubmitWeekDispatchesAllDrafts(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "S")

	require.Len(t, d.intents, 1)
	require.Equal(t, week.IntentSubmitEntries, d.intents[0].Kind)
	require.Equal(t, []string{"d1", "d2"}, d.intents[0].EntryIDs)
	require.False(t, a.busy)
	require.Equal(t, "Submitted 2 entries", a.status)
}

func TestSubmitDayOnlyTakesFocusedDay(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "s")
	require.Empty(t, d.intents)
	require.Equal(t, "No draft entries on this day", a.status)

	press(t, a, "h", "s")
	require.Len(t, d.intents, 1)
	require.Equal(t, []string{"d2"}, d.intents[0].EntryIDs)
	require.Equal(t, "Submitted 1 entry", a.status)
}

func TestMoveDraftAcrossDays(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "h", "h", "m")
	require.True(t, a.interaction.Dragging())

	press(t, a, "l", "l", "l", "l", "m")
	require.False(t, a.interaction.Dragging())
	require.Equal(t, []week.Intent{week.MoveEntry("d1", "2024-01-12")}, d.intents)
	require.Equal(t, "Moved entry to Fri Jan 12", a.status)
}

func TestMoveRejectsSubmittedEntry(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "m")
	require.False(t, a.interaction.Dragging())
	require.Equal(t, "Only draft entries can be moved", a.status)

	press(t, a, "l", "m")
	require.Empty(t, d.intents)
}

func TestEscCancelsDrag(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "h", "m", "l", "esc", "m")
	require.Empty(t, d.intents)
	require.False(t, a.interaction.Dragging())
}

func TestDragAcrossWeekBoundary(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "h", "h", "m", "h")
	require.Equal(t, date(t, "2024-01-01"), a.Result())
	require.Equal(t, "2024-01-07", a.focusedDay().Key)

	press(t, a, "m")
	require.Equal(t, []week.Intent{week.MoveEntry("d1", "2024-01-07")}, d.intents)
}

func TestCloneAndPaste(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "c")
	require.Len(t, d.intents, 1)
	clone, ok := d.intents[0].ClonedEntry()
	require.True(t, ok)
	require.Equal(t, "2024-01-10", clone.Date)
	require.Equal(t, week.StatusDraft, clone.Status)

	press(t, a, "y", "l", "l", "v")
	require.Len(t, d.intents, 2)
	clone, ok = d.intents[1].ClonedEntry()
	require.True(t, ok)
	require.Equal(t, "2024-01-12", clone.Date)
	require.Equal(t, 2.5, clone.Duration)
	require.Equal(t, "Cloned entry to Fri Jan 12", a.status)
}

func TestCloneRejectsApproved(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "l", "c", "y", "v")
	require.Empty(t, d.intents)
	require.Nil(t, a.yanked)
}

func TestAddHiddenOnSubmittedDay(t *testing.T) {
	a, _ := newTestApp(t)

	press(t, a, "a")
	require.Equal(t, gridView, a.state)
	require.Equal(t, "All entries for this day are submitted", a.status)

	press(t, a, "l", "l", "a")
	require.Equal(t, formView, a.state)
	require.Equal(t, "2024-01-12", a.form.date)
}

func TestAddFormSavesEntry(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "l", "l", "a")
	press(t, a, "p", "o", "r", "t", "enter", "down", "tab", "1", ".", "5", "tab")
	press(t, a, "enter")

	require.Equal(t, gridView, a.state)
	require.Len(t, d.intents, 2)
	require.Equal(t, week.IntentAddEntry, d.intents[0].Kind)

	save := d.intents[1]
	require.Equal(t, week.IntentSaveEntry, save.Kind)
	require.Equal(t, week.TimeEntry{
		ProjectID: "p1", TaskID: "t2", Date: "2024-01-12", Duration: 1.5, Status: week.StatusDraft,
	}, *save.Entry)
}

func TestEditOnlyDrafts(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "e")
	require.Equal(t, gridView, a.state)

	press(t, a, "h", "e")
	require.Equal(t, formView, a.state)
	require.Equal(t, "d2", a.form.id)
	require.Equal(t, "3", a.form.duration.Value())

	press(t, a, "esc")
	require.Equal(t, gridView, a.state)
	require.Len(t, d.intents, 1)
	require.Equal(t, week.IntentEditEntry, d.intents[0].Kind)
}

func TestDeleteDraft(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "d")
	require.Empty(t, d.intents)

	press(t, a, "h", "d")
	require.Equal(t, []week.Intent{{Kind: week.IntentDeleteEntry, EntryID: "d2", Date: "2024-01-09"}}, d.intents)
}

func TestWeekNavigation(t *testing.T) {
	a, _ := newTestApp(t)

	press(t, a, "]")
	require.Equal(t, date(t, "2024-01-15"), a.Result())
	require.False(t, a.week.HasDrafts())

	press(t, a, "[", "[")
	require.Equal(t, date(t, "2024-01-01"), a.Result())

	press(t, a, "t")
	require.Equal(t, date(t, "2024-01-08"), a.Result())
	require.Equal(t, 2, a.day)
}

func TestDispatchErrorIsShown(t *testing.T) {
	a, d := newTestApp(t)
	d.err = errors.New("submitted 1 of 2 entries; failed d1: conflict")

	press(t, a, "S")
	require.False(t, a.busy)
	require.Contains(t, a.View(), "submitted 1 of 2 entries")
}

func TestBusyBlocksMutations(t *testing.T) {
	a, d := newTestApp(t)

	_, cmd := a.Update(keyMsg("S"))
	require.NotNil(t, cmd)
	require.True(t, a.busy)

	press(t, a, "h", "d", "r")
	require.Empty(t, d.intents)
	require.Zero(t, d.loads)
	require.Zero(t, d.reloads)
}

func TestReloadBypassesCaches(t *testing.T) {
	a, d := newTestApp(t)

	press(t, a, "r")
	require.Equal(t, 1, d.reloads)
	require.Zero(t, d.loads)
	require.False(t, a.busy)
}

func TestViewShowsWeek(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 210, Height: 40})

	view := a.View()
	require.Contains(t, view, "Jan 8 - Jan 14, 2024")
	require.Contains(t, view, "Submit Week")
	require.Contains(t, view, "Submit Day")
	require.Contains(t, view, "All Entries Submitted")
	require.Contains(t, view, "+ Add Time")
	require.Contains(t, view, "Customer Portal...")
	require.Contains(t, view, "Total: 11.5h")
}

func TestSnapshotKeepsCursorInRange(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(SnapshotMsg{Snapshot: week.NewSnapshot(nil, testProjects)})

	_, ok := a.focusedEntry()
	require.False(t, ok)
	require.Equal(t, 0, a.row)
}
