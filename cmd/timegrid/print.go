package main

import (
	"fmt"
	"io"

	"github.com/christopherklint97/timegrid/internal/week"
)

// printWeek writes the grid as plain text, one day per block.
func printWeek(w io.Writer, wk week.Week, projects []week.Project) {
	fmt.Fprintf(w, "%s  (total %s)\n", wk.Label(), week.FormatHours(wk.Total()))
	if wk.HasDrafts() {
		fmt.Fprintf(w, "%d draft entries can be submitted\n", len(wk.DraftIDs()))
	}

	for _, d := range wk.Days {
		fmt.Fprintf(w, "\n%s  %s", d.Date.Format("Mon Jan 2"), week.FormatHours(d.Total))
		if week.AllSubmittedForDay(d) {
			fmt.Fprint(w, "  [all entries submitted]")
		}
		fmt.Fprintln(w)

		for _, e := range d.Entries {
			fmt.Fprintf(w, "  %-6s %-10s %-18s %-18s %s\n",
				week.FormatHours(e.Duration),
				e.Status.Title(),
				week.ProjectLabel(projects, e.ProjectID),
				week.TaskLabel(projects, e.ProjectID, e.TaskID),
				e.Description,
			)
		}
	}
}

func printProjects(w io.Writer, projects []week.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return
	}

	fmt.Fprintf(w, "Found %d projects:\n\n", len(projects))
	for _, p := range projects {
		state := ""
		if !p.Active() {
			state = " (inactive)"
		}
		fmt.Fprintf(w, "  %s  %s%s\n", p.ID, p.Name, state)
		for _, t := range p.Tasks {
			fmt.Fprintf(w, "      %s  %s\n", t.ID, t.Name)
		}
	}
}
