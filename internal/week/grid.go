package week

import (
	"fmt"
	"time"
)

// DateLayout is the date-only key format used for entry dates and day buckets.
const DateLayout = "2006-01-02"

// DaysPerWeek is the fixed width of the week window.
const DaysPerWeek = 7

// Day is one column of the week grid.
type Day struct {
	Date    time.Time
	Key     string
	Entries []TimeEntry
	Total   float64
}

// Week is the derived, Monday-anchored 7-day window.
type Week struct {
	Start time.Time
	Days  []Day
}

// StartOfWeek returns midnight of the Monday of t's week, in t's location.
func StartOfWeek(t time.Time) time.Time {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	y, m, d := t.Date()
	return startOfDay(y, m, d-(wd-1), t.Location())
}

// Navigate moves the anchor by delta whole weeks and normalizes it to Monday.
func Navigate(anchor time.Time, delta int) time.Time {
	y, m, d := StartOfWeek(anchor).Date()
	return startOfDay(y, m, d+7*delta, anchor.Location())
}

// civilDate normalizes y-m-d to a calendar date. UTC has no gaps, so the
// result always carries the requested day.
func civilDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// startOfDay returns the first instant of the calendar day y-m-d in loc. In
// zones that skip midnight for daylight saving the day starts at the end of
// the gap, not at 23:00 of the day before.
func startOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	c := civilDate(y, m, d)
	t := time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, loc)
	for t.Format(DateLayout) != c.Format(DateLayout) {
		t = t.Add(time.Hour)
	}
	return t
}

// ComputeWeek buckets entries into the 7 days of anchor's week. An entry lands in
// the day whose key equals its date string; entries outside the window are dropped.
func ComputeWeek(anchor time.Time, entries []TimeEntry) Week {
	start := StartOfWeek(anchor)
	w := Week{Start: start, Days: make([]Day, DaysPerWeek)}

	y, m, d := start.Date()
	index := make(map[string]int, DaysPerWeek)
	for i := range w.Days {
		key := civilDate(y, m, d+i).Format(DateLayout)
		w.Days[i] = Day{Date: startOfDay(y, m, d+i, start.Location()), Key: key}
		index[key] = i
	}

	for _, e := range entries {
		i, ok := index[e.Date]
		if !ok {
			continue
		}
		w.Days[i].Entries = append(w.Days[i].Entries, e)
		w.Days[i].Total += e.Duration
	}

	return w
}

// DraftsInWindow returns the draft entries of the given days, in day order.
func DraftsInWindow(days ...Day) []TimeEntry {
	var drafts []TimeEntry
	for _, d := range days {
		for _, e := range d.Entries {
			if e.IsDraft() {
				drafts = append(drafts, e)
			}
		}
	}
	return drafts
}

// DraftIDs returns the identifiers of the drafts in days, without duplicates.
// Unsaved drafts have no identifier and are left out of the batch.
func DraftIDs(days ...Day) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range DraftsInWindow(days...) {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		ids = append(ids, e.ID)
	}
	return ids
}

// AllSubmittedForDay is true when the day has entries and none of them is a draft.
func AllSubmittedForDay(d Day) bool {
	if len(d.Entries) == 0 {
		return false
	}
	for _, e := range d.Entries {
		if e.IsDraft() {
			return false
		}
	}
	return true
}

// CanAddEntry reports whether new work may be logged on d. Once every entry of a
// day is submitted or approved the day is closed for additions.
func CanAddEntry(d Day) bool {
	return !AllSubmittedForDay(d)
}

func (d Day) HasDrafts() bool {
	return len(DraftsInWindow(d)) > 0
}

func (w Week) HasDrafts() bool {
	return len(DraftsInWindow(w.Days...)) > 0
}

// DraftIDs is the Submit Week batch: every draft identifier in the window.
func (w Week) DraftIDs() []string {
	return DraftIDs(w.Days...)
}

func (w Week) Total() float64 {
	var total float64
	for _, d := range w.Days {
		total += d.Total
	}
	return total
}

// End returns the Sunday of the window.
func (w Week) End() time.Time {
	y, m, d := w.Start.Date()
	return startOfDay(y, m, d+DaysPerWeek-1, w.Start.Location())
}

// Day returns the day with the given key.
func (w Week) Day(date string) (Day, bool) {
	for _, d := range w.Days {
		if d.Key == date {
			return d, true
		}
	}
	return Day{}, false
}

// Label renders the window as "Jan 8 - Jan 14, 2024".
func (w Week) Label() string {
	return fmt.Sprintf("%s - %s", w.Start.Format("Jan 2"), w.End().Format("Jan 2, 2006"))
}

// FormatHours renders a duration in hours without trailing zeros ("2.5h", "8h").
func FormatHours(h float64) string {
	return fmt.Sprintf("%gh", h)
}
