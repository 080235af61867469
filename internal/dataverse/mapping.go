package dataverse

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/christopherklint97/timegrid/internal/week"
)

// StatusCode is one row of a mapping's status table.
type StatusCode struct {
	Code   int
	Status week.Status
	// Canonical marks the code written when encoding Status.
	Canonical bool
}

type EntryFields struct {
	ID          string
	Project     string
	Task        string
	Date        string
	Duration    string
	Description string
	Status      string

	// ProjectBind and TaskBind, when set, are the navigation properties used
	// to write lookups through @odata.bind instead of the raw fields above.
	ProjectBind string
	TaskBind    string

	DateOnly          bool
	DurationInMinutes bool
}

type ProjectFields struct {
	ID         string
	Name       string
	State      string
	ActiveCode int
	TaskExpand string
	TaskID     string
	TaskName   string
}

// Mapping translates between remote records and the week model. Remote field
// names and numeric codes stay inside this package.
type Mapping struct {
	Version    string
	EntrySet   string
	ProjectSet string
	TaskSet    string
	Entry      EntryFields
	Project    ProjectFields
	Statuses   []StatusCode
}

// V1 matches the field layout of the legacy timesheet control.
var V1 = Mapping{
	Version:    "v1",
	EntrySet:   "msdyn_timeentries",
	ProjectSet: "msdyn_projects",
	TaskSet:    "msdyn_projecttasks",
	Entry: EntryFields{
		ID:          "msdyn_timeentryid",
		Project:     "msdyn_project",
		Task:        "msdyn_projecttask",
		Date:        "msdyn_start",
		Duration:    "msdyn_duration",
		Description: "msdyn_description",
		Status:      "statuscode",
	},
	Project: ProjectFields{
		ID:         "msdyn_projectid",
		Name:       "msdyn_subject",
		State:      "statuscode",
		ActiveCode: 1,
		TaskExpand: "msdyn_projecttask_Project",
		TaskID:     "msdyn_projecttaskid",
		TaskName:   "msdyn_subject",
	},
	Statuses: []StatusCode{
		{Code: 1, Status: week.StatusDraft, Canonical: true},
		{Code: 2, Status: week.StatusSubmitted, Canonical: true},
		{Code: 3, Status: week.StatusApproved, Canonical: true},
	},
}

// V2 follows the Project Operations schema: lookups through _value/@odata.bind,
// a date-only column, minutes, and the msdyn_entrystatus option set.
var V2 = Mapping{
	Version:    "v2",
	EntrySet:   "msdyn_timeentries",
	ProjectSet: "msdyn_projects",
	TaskSet:    "msdyn_projecttasks",
	Entry: EntryFields{
		ID:                "msdyn_timeentryid",
		Project:           "_msdyn_project_value",
		Task:              "_msdyn_projecttask_value",
		Date:              "msdyn_date",
		Duration:          "msdyn_duration",
		Description:       "msdyn_description",
		Status:            "msdyn_entrystatus",
		ProjectBind:       "msdyn_project",
		TaskBind:          "msdyn_projecttask",
		DateOnly:          true,
		DurationInMinutes: true,
	},
	Project: ProjectFields{
		ID:         "msdyn_projectid",
		Name:       "msdyn_subject",
		State:      "statecode",
		ActiveCode: 0,
		TaskExpand: "msdyn_msdyn_project_msdyn_projecttask_project",
		TaskID:     "msdyn_projecttaskid",
		TaskName:   "msdyn_subject",
	},
	Statuses: []StatusCode{
		{Code: 192350000, Status: week.StatusDraft, Canonical: true},
		{Code: 192350001, Status: week.StatusDraft},
		{Code: 192350002, Status: week.StatusApproved, Canonical: true},
		{Code: 192350003, Status: week.StatusSubmitted, Canonical: true},
		{Code: 192350005, Status: week.StatusSubmitted},
	},
}

// MappingFor returns the mapping registered under version; empty means v1.
func MappingFor(version string) (Mapping, error) {
	switch strings.ToLower(version) {
	case "", "v1":
		return V1, nil
	case "v2":
		return V2, nil
	}
	return Mapping{}, fmt.Errorf("unknown dataverse mapping version %q", version)
}

// DecodeStatus maps a remote code to a lifecycle status. Unknown codes decode
// as draft, like the legacy control did, and report ok=false.
func (m Mapping) DecodeStatus(code int) (week.Status, bool) {
	for _, sc := range m.Statuses {
		if sc.Code == code {
			return sc.Status, true
		}
	}
	return week.StatusDraft, false
}

func (m Mapping) EncodeStatus(s week.Status) (int, error) {
	for _, sc := range m.Statuses {
		if sc.Status == s && sc.Canonical {
			return sc.Code, nil
		}
	}
	return 0, fmt.Errorf("no %s status code for %q", m.Version, s)
}

type record map[string]json.RawMessage

func (r record) str(field string) string {
	raw, ok := r[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (r record) num(field string) (float64, bool) {
	raw, ok := r[field]
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

func (r record) children(field string) ([]record, error) {
	raw, ok := r[field]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var out []record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", field, err)
	}
	return out, nil
}

// EntryQuery is the OData query for listing time entries.
func (m Mapping) EntryQuery(ownerID string) string {
	f := m.Entry
	q := "$select=" + strings.Join([]string{f.ID, f.Project, f.Task, f.Date, f.Duration, f.Description, f.Status}, ",")
	if ownerID != "" {
		q += "&$filter=" + escape(fmt.Sprintf("_ownerid_value eq %s", ownerID))
	}
	return q
}

// ProjectQuery is the OData query for listing projects with their tasks.
func (m Mapping) ProjectQuery() string {
	p := m.Project
	return fmt.Sprintf("$select=%s,%s,%s&$expand=%s($select=%s,%s)",
		p.ID, p.Name, p.State, p.TaskExpand, p.TaskID, p.TaskName)
}

func (m Mapping) decodeProject(r record) (week.Project, error) {
	p := m.Project
	proj := week.Project{
		ID:     r.str(p.ID),
		Name:   r.str(p.Name),
		Status: week.ProjectInactive,
	}
	if proj.ID == "" {
		return week.Project{}, fmt.Errorf("project record without %s", p.ID)
	}
	if code, ok := r.num(p.State); ok && int(code) == p.ActiveCode {
		proj.Status = week.ProjectActive
	}

	tasks, err := r.children(p.TaskExpand)
	if err != nil {
		return week.Project{}, err
	}
	for _, t := range tasks {
		proj.Tasks = append(proj.Tasks, week.Task{
			ID:        t.str(p.TaskID),
			Name:      t.str(p.TaskName),
			ProjectID: proj.ID,
		})
	}
	return proj, nil
}

// decodeEntry converts a time entry record. known is false when the status
// code is missing from the status table.
func (m Mapping) decodeEntry(r record) (e week.TimeEntry, known bool, err error) {
	f := m.Entry
	e = week.TimeEntry{
		ID:          r.str(f.ID),
		ProjectID:   r.str(f.Project),
		TaskID:      r.str(f.Task),
		Description: r.str(f.Description),
	}
	if e.ID == "" {
		return week.TimeEntry{}, false, fmt.Errorf("time entry record without %s", f.ID)
	}

	e.Date, err = decodeDate(r.str(f.Date))
	if err != nil {
		return week.TimeEntry{}, false, fmt.Errorf("time entry %s: %w", e.ID, err)
	}

	if d, ok := r.num(f.Duration); ok {
		if f.DurationInMinutes {
			d = d / 60
		}
		e.Duration = d
	}

	code, _ := r.num(f.Status)
	e.Status, known = m.DecodeStatus(int(code))
	return e, known, nil
}

// decodeDate reduces a remote date or timestamp to its UTC calendar date.
func decodeDate(s string) (string, error) {
	if len(s) == len(week.DateLayout) {
		if _, err := week.ParseDate(s); err != nil {
			return "", err
		}
		return s, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t.UTC().Format(week.DateLayout), nil
}

func (m Mapping) encodeDate(date string) string {
	if m.Entry.DateOnly {
		return date
	}
	return date + "T00:00:00.000Z"
}

func (m Mapping) encodeLookups(body map[string]any, e week.TimeEntry) {
	f := m.Entry
	if f.ProjectBind != "" {
		body[f.ProjectBind+"@odata.bind"] = fmt.Sprintf("/%s(%s)", m.ProjectSet, e.ProjectID)
	} else {
		body[f.Project] = e.ProjectID
	}
	if f.TaskBind != "" {
		body[f.TaskBind+"@odata.bind"] = fmt.Sprintf("/%s(%s)", m.TaskSet, e.TaskID)
	} else {
		body[f.Task] = e.TaskID
	}
}

// encodeEntry builds the request body for a create or full update. The status
// column is only written when withStatus is set.
func (m Mapping) encodeEntry(e week.TimeEntry, withStatus bool) (map[string]any, error) {
	f := m.Entry
	body := map[string]any{
		f.Date:        m.encodeDate(e.Date),
		f.Description: e.Description,
	}
	if f.DurationInMinutes {
		body[f.Duration] = int(math.Round(e.Duration * 60))
	} else {
		body[f.Duration] = e.Duration
	}
	m.encodeLookups(body, e)

	if withStatus {
		code, err := m.EncodeStatus(e.Status)
		if err != nil {
			return nil, err
		}
		body[f.Status] = code
	}
	return body, nil
}

func (m Mapping) encodeMove(date string) map[string]any {
	return map[string]any{m.Entry.Date: m.encodeDate(date)}
}

func (m Mapping) encodeStatus(s week.Status) (map[string]any, error) {
	code, err := m.EncodeStatus(s)
	if err != nil {
		return nil, err
	}
	return map[string]any{m.Entry.Status: code}, nil
}

// idFromEntityHeader extracts the key from an OData-EntityId header such as
// https://org.crm.dynamics.com/api/data/v9.2/msdyn_timeentries(1234-...).
func idFromEntityHeader(h string) (string, error) {
	open := strings.LastIndex(h, "(")
	end := strings.LastIndex(h, ")")
	if open < 0 || end <= open+1 {
		return "", fmt.Errorf("unexpected OData-EntityId %q", h)
	}
	id := h[open+1 : end]
	if unq, err := strconv.Unquote(id); err == nil {
		id = unq
	}
	return id, nil
}
