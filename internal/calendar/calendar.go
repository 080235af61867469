package calendar

import (
	"errors"
	"fmt"
	"io"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/timegrid/internal/week"
)

const productID = "-//timegrid//week export//EN"

var ErrNoEntries = errors.New("week has no time entries")

// Export writes the entries of w as all-day events.
func Export(out io.Writer, w week.Week, projects []week.Project, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, d := range w.Days {
		for _, e := range d.Entries {
			day, err := week.ParseDate(d.Key)
			if err != nil {
				return err
			}
			cal.Children = append(cal.Children, entryEvent(e, day, projects, now).Component)
		}
	}
	if len(cal.Children) == 0 {
		return fmt.Errorf("exporting %s: %w", w.Label(), ErrNoEntries)
	}

	if err := ical.NewEncoder(out).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

func entryEvent(e week.TimeEntry, day time.Time, projects []week.Project, now time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, e.ID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDate(ical.PropDateTimeStart, day)
	event.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
	event.Props.SetText(ical.PropSummary, Summary(e, projects))
	if e.Description != "" {
		event.Props.SetText(ical.PropDescription, e.Description)
	}

	status := ical.EventConfirmed
	if e.IsDraft() {
		status = ical.EventTentative
	}
	event.Props.SetText(ical.PropStatus, string(status))
	event.Props.SetText(ical.PropCategories, string(e.Status))
	return event
}

// Summary renders "project / task (Xh)" with untruncated names.
func Summary(e week.TimeEntry, projects []week.Project) string {
	project, task := "Unknown Project", "Unknown Task"
	if p, ok := week.FindProject(projects, e.ProjectID); ok {
		project = p.Name
		for _, t := range p.Tasks {
			if t.ID == e.TaskID {
				task = t.Name
			}
		}
	}
	return fmt.Sprintf("%s / %s (%s)", project, task, week.FormatHours(e.Duration))
}
