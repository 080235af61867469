package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/timegrid/internal/week"
)

type formField int

const (
	fieldProject formField = iota
	fieldTask
	fieldDuration
	fieldDescription
	fieldCount
)

const maxFilteredProjects = 5

// formModel edits one entry. Only active projects are offered, and the task
// list stays disabled until a project is chosen.
type formModel struct {
	id          string
	date        string
	allProjects []week.Project
	active      []week.Project

	field    formField
	search   textinput.Model
	filtered []week.Project
	pick     int

	projectID string
	taskIdx   int

	duration    textinput.Model
	description textarea.Model

	errMsg    string
	done      bool
	cancelled bool
	entry     week.TimeEntry
}

func newFormModel(d week.EntryDraft, projects []week.Project) formModel {
	search := textinput.New()
	search.Placeholder = "Search project..."
	search.CharLimit = 100
	search.Width = 40

	dur := textinput.New()
	dur.Placeholder = "Hours, e.g. 1.5"
	dur.CharLimit = 5
	dur.Width = 10
	if d.Duration > 0 {
		dur.SetValue(strconv.FormatFloat(d.Duration, 'f', -1, 64))
	}

	ta := textarea.New()
	ta.Placeholder = "What did you work on?"
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.SetValue(d.Description)

	m := formModel{
		id:          d.ID,
		date:        d.Date,
		allProjects: projects,
		active:      week.ActiveProjects(projects),
		search:      search,
		projectID:   d.ProjectID,
		taskIdx:     -1,
		duration:    dur,
		description: ta,
	}
	m.filter()

	for i, t := range week.TasksFor(projects, d.ProjectID) {
		if t.ID == d.TaskID {
			m.taskIdx = i
		}
	}
	for i, p := range m.filtered {
		if p.ID == d.ProjectID {
			m.pick = i
		}
	}

	m.focus(fieldProject)
	return m
}

func (m *formModel) filter() {
	query := strings.ToLower(m.search.Value())
	m.filtered = nil
	for _, p := range m.active {
		if strings.Contains(strings.ToLower(p.Name), query) {
			m.filtered = append(m.filtered, p)
		}
	}
	if m.pick >= len(m.filtered) {
		m.pick = 0
	}
}

func (m *formModel) tasks() []week.Task {
	return week.TasksFor(m.allProjects, m.projectID)
}

// taskEnabled reports whether a project has been chosen.
func (m *formModel) taskEnabled() bool {
	return m.projectID != ""
}

func (m *formModel) focus(f formField) {
	m.field = f
	m.search.Blur()
	m.duration.Blur()
	m.description.Blur()
	switch f {
	case fieldProject:
		m.search.Focus()
	case fieldDuration:
		m.duration.Focus()
	case fieldDescription:
		m.description.Focus()
	}
}

func (m *formModel) step(delta int) {
	next := m.field
	for {
		next = (next + formField(delta) + fieldCount) % fieldCount
		if next != fieldTask || m.taskEnabled() {
			break
		}
	}
	m.focus(next)
}

func (m *formModel) chooseProject() {
	if len(m.filtered) == 0 {
		return
	}
	chosen := m.filtered[m.pick].ID
	if chosen != m.projectID {
		m.projectID = chosen
		m.taskIdx = -1
	}
	if m.taskIdx < 0 && len(m.tasks()) > 0 {
		m.taskIdx = 0
	}
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}

	switch keyMsg.String() {
	case "esc":
		m.cancelled = true
		return m, nil
	case "ctrl+s":
		m.submit()
		return m, nil
	case "tab":
		if m.field == fieldProject {
			m.chooseProject()
		}
		m.step(1)
		return m, nil
	case "shift+tab":
		m.step(-1)
		return m, nil
	}

	switch m.field {
	case fieldProject:
		switch keyMsg.String() {
		case "up":
			if m.pick > 0 {
				m.pick--
			}
			return m, nil
		case "down":
			if m.pick < len(m.filtered)-1 {
				m.pick++
			}
			return m, nil
		case "enter":
			m.chooseProject()
			m.step(1)
			return m, nil
		}
	case fieldTask:
		n := len(m.tasks())
		switch keyMsg.String() {
		case "up", "k":
			if m.taskIdx > 0 {
				m.taskIdx--
			}
		case "down", "j":
			if m.taskIdx < n-1 {
				m.taskIdx++
			}
		case "enter":
			m.step(1)
		}
		return m, nil
	case fieldDuration:
		if keyMsg.String() == "enter" {
			m.step(1)
			return m, nil
		}
	case fieldDescription:
		if keyMsg.String() == "enter" {
			m.submit()
			return m, nil
		}
	}

	return m.updateInputs(msg)
}

func (m formModel) updateInputs(msg tea.Msg) (formModel, tea.Cmd) {
	var cmd tea.Cmd
	switch m.field {
	case fieldProject:
		m.search, cmd = m.search.Update(msg)
		m.filter()
	case fieldDuration:
		m.duration, cmd = m.duration.Update(msg)
	case fieldDescription:
		m.description, cmd = m.description.Update(msg)
	}
	return m, cmd
}

func (m *formModel) draft() (week.EntryDraft, error) {
	d := week.EntryDraft{
		ID:          m.id,
		ProjectID:   m.projectID,
		Date:        m.date,
		Description: strings.TrimSpace(m.description.Value()),
	}
	if tasks := m.tasks(); m.taskIdx >= 0 && m.taskIdx < len(tasks) {
		d.TaskID = tasks[m.taskIdx].ID
	}

	raw := strings.TrimSpace(m.duration.Value())
	if raw == "" {
		return d, week.ErrInvalidDuration
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return d, fmt.Errorf("%w: %q is not a number", week.ErrInvalidDuration, raw)
	}
	d.Duration = hours
	return d, nil
}

func (m *formModel) submit() {
	d, err := m.draft()
	if err == nil {
		err = d.Validate(m.allProjects)
	}
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.entry = d.Entry()
	m.done = true
}

func (m formModel) View() string {
	var sb strings.Builder

	title := "Add Time"
	if m.id != "" {
		title = "Edit Time"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(subtitleStyle.Render(dayTitle(m.date)))
	sb.WriteString("\n")

	sb.WriteString(m.label(fieldProject, "Project"))
	if m.projectID != "" {
		sb.WriteString(selectedStyle.Render(week.ProjectLabel(m.allProjects, m.projectID)))
	}
	sb.WriteString("\n")
	if m.field == fieldProject {
		sb.WriteString(m.search.View())
		sb.WriteString("\n")
		for i, p := range m.filtered {
			if i == maxFilteredProjects {
				sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(m.filtered)-i)))
				sb.WriteString("\n")
				break
			}
			line := "  " + p.Name
			if i == m.pick {
				line = highlightStyle.Render("> " + p.Name)
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		if len(m.filtered) == 0 {
			sb.WriteString(dimStyle.Render("  no active projects match"))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(m.label(fieldTask, "Task"))
	switch tasks := m.tasks(); {
	case !m.taskEnabled():
		sb.WriteString(dimStyle.Render("choose a project first"))
	case len(tasks) == 0:
		sb.WriteString(dimStyle.Render("project has no tasks"))
	case m.taskIdx >= 0:
		sb.WriteString(selectedStyle.Render(tasks[m.taskIdx].Name))
		if m.field == fieldTask {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  (%d/%d, j/k to change)", m.taskIdx+1, len(tasks))))
		}
	}
	sb.WriteString("\n")

	sb.WriteString(m.label(fieldDuration, "Hours"))
	sb.WriteString(m.duration.View())
	sb.WriteString("\n")

	sb.WriteString(m.label(fieldDescription, "Description"))
	sb.WriteString("\n")
	sb.WriteString(m.description.View())
	sb.WriteString("\n")

	if m.errMsg != "" {
		sb.WriteString(errorStyle.Render("Error: ") + m.errMsg)
		sb.WriteString("\n")
	}

	sb.WriteString(helpStyle.Render("Tab: next field • Enter: choose/save • Ctrl+S: save • Esc: cancel"))

	return boxStyle.Render(sb.String())
}

func (m formModel) label(f formField, name string) string {
	if f == m.field {
		return highlightStyle.Render("> "+name+": ")
	}
	return "  " + name + ": "
}
