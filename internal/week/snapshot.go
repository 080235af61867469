package week

// Snapshot is the entry and project collections a render is computed from.
// It is treated as immutable: the With* methods return a new snapshot and never
// write through to the receiver's slices.
type Snapshot struct {
	Entries  []TimeEntry `json:"entries"`
	Projects []Project   `json:"projects"`
}

func NewSnapshot(entries []TimeEntry, projects []Project) Snapshot {
	return Snapshot{
		Entries:  append([]TimeEntry(nil), entries...),
		Projects: append([]Project(nil), projects...),
	}
}

// Entry looks up an entry by identifier.
func (s Snapshot) Entry(id string) (TimeEntry, bool) {
	if id == "" {
		return TimeEntry{}, false
	}
	for _, e := range s.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return TimeEntry{}, false
}

// WithEntry returns a snapshot where e replaces the entry with the same ID, or is
// appended when no such entry exists.
func (s Snapshot) WithEntry(e TimeEntry) Snapshot {
	entries := make([]TimeEntry, 0, len(s.Entries)+1)
	replaced := false
	for _, cur := range s.Entries {
		if e.ID != "" && cur.ID == e.ID {
			entries = append(entries, e)
			replaced = true
			continue
		}
		entries = append(entries, cur)
	}
	if !replaced {
		entries = append(entries, e)
	}
	return Snapshot{Entries: entries, Projects: s.Projects}
}

func (s Snapshot) WithoutEntry(id string) Snapshot {
	entries := make([]TimeEntry, 0, len(s.Entries))
	for _, cur := range s.Entries {
		if cur.ID != id {
			entries = append(entries, cur)
		}
	}
	return Snapshot{Entries: entries, Projects: s.Projects}
}

func (s Snapshot) WithProjects(projects []Project) Snapshot {
	return Snapshot{Entries: s.Entries, Projects: append([]Project(nil), projects...)}
}
