package calendar_test

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/timegrid/internal/calendar"
	"github.com/christopherklint97/timegrid/internal/week"
	"github.com/stretchr/testify/require"
)

var projects = []week.Project{{
	ID:     "p1",
	Name:   "Customer Portal Relaunch",
	Status: week.ProjectActive,
	Tasks:  []week.Task{{ID: "t1", Name: "Build", ProjectID: "p1"}},
}}

func TestExportWeek(t *testing.T) {
	anchor := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	w := week.ComputeWeek(anchor, []week.TimeEntry{
		{ID: "d1", ProjectID: "p1", TaskID: "t1", Date: "2024-01-08", Duration: 2, Description: "standup", Status: week.StatusDraft},
		{ID: "s1", ProjectID: "p1", TaskID: "t1", Date: "2024-01-10", Duration: 2.5, Status: week.StatusSubmitted},
		{ID: "x1", ProjectID: "p1", TaskID: "t1", Date: "2024-01-20", Duration: 1, Status: week.StatusDraft},
	})

	var buf bytes.Buffer
	require.NoError(t, calendar.Export(&buf, w, projects, anchor))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	byUID := make(map[string]ical.Event)
	for _, e := range events {
		uid, err := e.Props.Text(ical.PropUID)
		require.NoError(t, err)
		byUID[uid] = e
	}

	draft := byUID["d1"]
	summary, err := draft.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	require.Equal(t, "Customer Portal Relaunch / Build (2h)", summary)
	status, err := draft.Props.Text(ical.PropStatus)
	require.NoError(t, err)
	require.Equal(t, "TENTATIVE", status)

	start, err := draft.DateTimeStart(time.UTC)
	require.NoError(t, err)
	require.Equal(t, "2024-01-08", start.Format(week.DateLayout))

	submitted := byUID["s1"]
	status, err = submitted.Props.Text(ical.PropStatus)
	require.NoError(t, err)
	require.Equal(t, "CONFIRMED", status)
	category, err := submitted.Props.Text(ical.PropCategories)
	require.NoError(t, err)
	require.Equal(t, "submitted", category)
}

func TestExportEmptyWeek(t *testing.T) {
	w := week.ComputeWeek(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), nil)

	var buf bytes.Buffer
	err := calendar.Export(&buf, w, projects, time.Now())
	require.ErrorIs(t, err, calendar.ErrNoEntries)
	require.Zero(t, buf.Len())
}

func TestSummaryUnknownProject(t *testing.T) {
	e := week.TimeEntry{ProjectID: "gone", TaskID: "t9", Duration: 0.75}
	require.Equal(t, "Unknown Project / Unknown Task (0.75h)", calendar.Summary(e, projects))
}
