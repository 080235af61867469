package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/christopherklint97/timegrid/internal/week"
)

// Dispatcher is the host side of the grid. host.Control satisfies it.
type Dispatcher interface {
	UpdateView(ctx context.Context) error
	Reload(ctx context.Context) error
	Dispatch(ctx context.Context, in week.Intent) error
}

// SnapshotMsg delivers freshly rendered collections to the grid.
type SnapshotMsg struct {
	Snapshot week.Snapshot
}

type intentDoneMsg struct {
	intent week.Intent
	err    error
}

type loadedMsg struct {
	err error
}

type viewState int

const (
	gridView viewState = iota
	formView
)

const requestTimeout = 60 * time.Second

type App struct {
	state   viewState
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	form    formModel

	dispatcher  Dispatcher
	snap        week.Snapshot
	anchor      time.Time
	week        week.Week
	day         int
	row         int
	interaction week.Interaction
	yanked      *week.TimeEntry

	busy   bool
	status string
	errMsg string
	width  int
	now    func() time.Time
}

func NewApp(d Dispatcher, anchor time.Time) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot

	a := &App{
		state:      gridView,
		keys:       defaultKeys(),
		help:       help.New(),
		spinner:    s,
		dispatcher: d,
		anchor:     week.StartOfWeek(anchor),
		day:        weekdayIndex(anchor),
		now:        time.Now,
	}
	a.recompute()
	return a
}

// Result reports the Monday of the week shown when the grid closed.
func (a *App) Result() time.Time {
	return a.anchor
}

func (a *App) Init() tea.Cmd {
	a.busy = true
	return tea.Batch(a.spinner.Tick, a.reload(false))
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.help.Width = msg.Width
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case SnapshotMsg:
		a.snap = msg.Snapshot
		a.recompute()
		return a, nil
	case loadedMsg:
		a.busy = false
		if msg.err != nil {
			a.errMsg = msg.err.Error()
		}
		return a, nil
	case intentDoneMsg:
		return a.handleIntentDone(msg)
	}

	switch a.state {
	case formView:
		return a.updateForm(msg)
	default:
		return a.updateGrid(msg)
	}
}

func (a *App) updateGrid(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	switch {
	case key.Matches(keyMsg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(keyMsg, a.keys.PrevDay):
		a.moveDay(-1)
	case key.Matches(keyMsg, a.keys.NextDay):
		a.moveDay(1)
	case key.Matches(keyMsg, a.keys.Up):
		if a.row > 0 {
			a.row--
		}
	case key.Matches(keyMsg, a.keys.Down):
		if a.row < len(a.focusedDay().Entries)-1 {
			a.row++
		}
	case key.Matches(keyMsg, a.keys.PrevWeek):
		a.setAnchor(week.Navigate(a.anchor, -1))
	case key.Matches(keyMsg, a.keys.NextWeek):
		a.setAnchor(week.Navigate(a.anchor, 1))
	case key.Matches(keyMsg, a.keys.Today):
		now := a.now()
		a.setAnchor(now)
		a.day = weekdayIndex(now)
		a.clampRow()
	case key.Matches(keyMsg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(keyMsg, a.keys.Cancel):
		a.interaction.Cancel()
		a.yanked = nil
		a.status = ""
	case key.Matches(keyMsg, a.keys.Move):
		return a, a.toggleDrag()
	case a.busy || a.interaction.Dragging():
		// Mutations wait for the running request and for the drag to finish.
	case key.Matches(keyMsg, a.keys.Reload):
		a.busy = true
		a.errMsg = ""
		return a, a.reload(true)
	case key.Matches(keyMsg, a.keys.Add):
		return a, a.openAdd()
	case key.Matches(keyMsg, a.keys.Edit):
		return a, a.openEdit()
	case key.Matches(keyMsg, a.keys.Delete):
		return a, a.request(a.interaction.DeleteRequest, "Only draft entries can be deleted")
	case key.Matches(keyMsg, a.keys.Clone):
		e, ok := a.focusedEntry()
		if !ok {
			return a, nil
		}
		in, ok := a.interaction.CloneTo(e, e.Date)
		if !ok {
			a.status = "Approved entries cannot be cloned"
			return a, nil
		}
		return a, a.dispatch(in)
	case key.Matches(keyMsg, a.keys.Yank):
		e, ok := a.focusedEntry()
		if !ok {
			return a, nil
		}
		if !e.Cloneable() {
			a.status = "Approved entries cannot be cloned"
			return a, nil
		}
		a.yanked = &e
		a.status = "Copied entry; press v on a day to paste"
	case key.Matches(keyMsg, a.keys.Paste):
		if a.yanked == nil {
			return a, nil
		}
		in, ok := a.interaction.CloneTo(*a.yanked, a.focusedDay().Key)
		if !ok {
			return a, nil
		}
		return a, a.dispatch(in)
	case key.Matches(keyMsg, a.keys.SubmitDay):
		in, ok := a.interaction.SubmitRequest(a.focusedDay())
		if !ok {
			a.status = "No draft entries on this day"
			return a, nil
		}
		return a, a.dispatch(in)
	case key.Matches(keyMsg, a.keys.SubmitWeek):
		in, ok := a.interaction.SubmitRequest(a.week.Days...)
		if !ok {
			a.status = "No draft entries this week"
			return a, nil
		}
		return a, a.dispatch(in)
	}
	return a, nil
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.form, cmd = a.form.Update(msg)

	switch {
	case a.form.cancelled:
		a.state = gridView
		return a, nil
	case a.form.done:
		a.state = gridView
		return a, a.dispatch(week.SaveEntry(a.form.entry))
	}
	return a, cmd
}

func (a *App) toggleDrag() tea.Cmd {
	if a.interaction.Dragging() {
		in, ok := a.interaction.DropOn(a.focusedDay().Key)
		if !ok {
			return nil
		}
		return a.dispatch(in)
	}
	if a.busy {
		return nil
	}
	e, ok := a.focusedEntry()
	if !ok {
		return nil
	}
	if !a.interaction.BeginDrag(e) {
		a.status = "Only draft entries can be moved"
		return nil
	}
	a.status = "Moving entry; pick a day and press m to drop, esc to cancel"
	return nil
}

func (a *App) openAdd() tea.Cmd {
	in, ok := a.interaction.AddRequest(a.focusedDay())
	if !ok {
		a.status = "All entries for this day are submitted"
		return nil
	}
	a.form = newFormModel(week.EntryDraft{Date: in.Date}, a.snap.Projects)
	a.state = formView
	return a.notify(in)
}

func (a *App) openEdit() tea.Cmd {
	e, ok := a.focusedEntry()
	if !ok {
		return nil
	}
	in, ok := a.interaction.EditRequest(e)
	if !ok {
		a.status = "Only draft entries can be edited"
		return nil
	}
	a.form = newFormModel(week.DraftFrom(*in.Entry), a.snap.Projects)
	a.state = formView
	return a.notify(in)
}

func (a *App) request(fn func(week.TimeEntry) (week.Intent, bool), rejected string) tea.Cmd {
	e, ok := a.focusedEntry()
	if !ok {
		return nil
	}
	in, ok := fn(e)
	if !ok {
		a.status = rejected
		return nil
	}
	return a.dispatch(in)
}

// dispatch runs a mutating intent against the host. The grid re-renders when
// the host answers with a SnapshotMsg.
func (a *App) dispatch(in week.Intent) tea.Cmd {
	a.busy = true
	a.errMsg = ""
	a.status = ""
	d := a.dispatcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return intentDoneMsg{intent: in, err: d.Dispatch(ctx, in)}
	}
}

// notify forwards a non-mutating intent without blocking the grid.
func (a *App) notify(in week.Intent) tea.Cmd {
	d := a.dispatcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return intentDoneMsg{intent: in, err: d.Dispatch(ctx, in)}
	}
}

// reload fetches the collections again; refresh also bypasses cached projects.
func (a *App) reload(refresh bool) tea.Cmd {
	d := a.dispatcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if refresh {
			return loadedMsg{err: d.Reload(ctx)}
		}
		return loadedMsg{err: d.UpdateView(ctx)}
	}
}

func (a *App) handleIntentDone(msg intentDoneMsg) (tea.Model, tea.Cmd) {
	in := msg.intent
	if in.Kind == week.IntentAddEntry || in.Kind == week.IntentEditEntry {
		if msg.err != nil {
			a.errMsg = msg.err.Error()
		}
		return a, nil
	}

	a.busy = false
	if msg.err != nil {
		a.errMsg = msg.err.Error()
		return a, nil
	}

	switch in.Kind {
	case week.IntentMoveEntry:
		a.status = "Moved entry to " + dayTitle(in.Date)
	case week.IntentCloneEntry:
		a.status = "Cloned entry to " + dayTitle(in.Date)
	case week.IntentSubmitEntries:
		a.status = fmt.Sprintf("Submitted %d %s", len(in.EntryIDs), plural(len(in.EntryIDs), "entry", "entries"))
	case week.IntentSaveEntry:
		a.status = "Saved entry on " + dayTitle(in.Date)
	case week.IntentDeleteEntry:
		a.status = "Deleted entry"
	}
	return a, nil
}

func (a *App) recompute() {
	a.week = week.ComputeWeek(a.anchor, a.snap.Entries)
	a.clampRow()
}

func (a *App) setAnchor(t time.Time) {
	a.anchor = week.StartOfWeek(t)
	a.recompute()
}

// moveDay shifts focus by one day, crossing into the neighbouring week at the
// edges so a drag can span weeks.
func (a *App) moveDay(delta int) {
	a.day += delta
	switch {
	case a.day < 0:
		a.day = week.DaysPerWeek - 1
		a.setAnchor(week.Navigate(a.anchor, -1))
	case a.day >= week.DaysPerWeek:
		a.day = 0
		a.setAnchor(week.Navigate(a.anchor, 1))
	}
	a.clampRow()
}

func (a *App) clampRow() {
	n := len(a.focusedDay().Entries)
	if a.row >= n {
		a.row = n - 1
	}
	if a.row < 0 {
		a.row = 0
	}
}

func (a *App) focusedDay() week.Day {
	return a.week.Days[a.day]
}

func (a *App) focusedEntry() (week.TimeEntry, bool) {
	d := a.focusedDay()
	if a.row < 0 || a.row >= len(d.Entries) {
		return week.TimeEntry{}, false
	}
	return d.Entries[a.row], true
}

func (a *App) View() string {
	if a.state == formView {
		return a.form.View()
	}

	var sb strings.Builder

	header := titleStyle.Render("timegrid  " + a.week.Label())
	header += "  " + dimStyle.Render("Total: "+week.FormatHours(a.week.Total()))
	if a.week.HasDrafts() {
		header += "  " + highlightStyle.Render("[S] Submit Week")
	}
	sb.WriteString(header)
	sb.WriteString("\n\n")

	cols := make([]string, len(a.week.Days))
	for i, d := range a.week.Days {
		cols[i] = a.renderDay(i, d)
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	sb.WriteString("\n")

	switch {
	case a.busy:
		sb.WriteString(a.spinner.View() + " Working...")
	case a.errMsg != "":
		sb.WriteString(errorStyle.Render("Error: ") + a.errMsg)
	case a.status != "":
		sb.WriteString(a.status)
	}
	sb.WriteString("\n")

	sb.WriteString(helpStyle.Render(a.help.View(a.keys)))
	return sb.String()
}

func (a *App) columnWidth() int {
	w := a.width/week.DaysPerWeek - 2
	if w < 24 {
		w = 24
	}
	return w
}

func (a *App) renderDay(i int, d week.Day) string {
	var sb strings.Builder

	title := d.Date.Format("Mon Jan 2")
	if d.Key == week.FormatDate(a.now()) {
		title = todayStyle.Render(title)
	} else if i == a.day {
		title = highlightStyle.Render(title)
	}
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("Total: " + week.FormatHours(d.Total)))
	sb.WriteString("\n\n")

	dragged, dragging := a.interaction.Dragged()
	for j, e := range d.Entries {
		project := week.ProjectLabel(a.snap.Projects, e.ProjectID)
		detail := week.FormatHours(e.Duration) + " " + statusStyle(e.Status).Render(e.Status.Title())

		prefix := "  "
		if i == a.day && j == a.row {
			prefix = "> "
			project = highlightStyle.Render(project)
		}
		if dragging && e.ID == dragged.ID {
			prefix = "↕ "
		}
		sb.WriteString(prefix + project + "\n")
		sb.WriteString("  " + detail + "\n")
	}

	switch {
	case week.AllSubmittedForDay(d):
		sb.WriteString("\n" + successStyle.Render("All Entries Submitted"))
	case d.HasDrafts():
		sb.WriteString("\n" + highlightStyle.Render("[s] Submit Day"))
	}
	if week.CanAddEntry(d) {
		sb.WriteString("\n" + dimStyle.Render("+ Add Time"))
	}

	style := columnStyle
	switch {
	case i == a.day && a.interaction.Dragging():
		style = dropTargetStyle
	case i == a.day:
		style = focusedColumnStyle
	}
	return style.Width(a.columnWidth()).Render(sb.String())
}

func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func dayTitle(date string) string {
	t, err := week.ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Mon Jan 2")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
