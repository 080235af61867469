package week

type DragState int

const (
	DragIdle DragState = iota
	DragActive
)

// Interaction tracks the per-entry gesture state: idle → dragging → dropped or
// cancelled. It performs no I/O and never fails; it only decides which intent,
// if any, a gesture produces.
type Interaction struct {
	state   DragState
	dragged TimeEntry
}

func (in *Interaction) State() DragState {
	return in.state
}

func (in *Interaction) Dragging() bool {
	return in.state == DragActive
}

// Dragged returns the entry being dragged.
func (in *Interaction) Dragged() (TimeEntry, bool) {
	if in.state != DragActive {
		return TimeEntry{}, false
	}
	return in.dragged, true
}

// BeginDrag starts a drag for a draft entry. Non-draft entries are rejected
// and leave the state untouched.
func (in *Interaction) BeginDrag(e TimeEntry) bool {
	if !e.IsDraft() {
		return false
	}
	in.state = DragActive
	in.dragged = e
	return true
}

// DropOn finishes a drag over a day. Dropping on the entry's own day still
// yields a move intent; the collaborator treats it as a no-op.
func (in *Interaction) DropOn(date string) (Intent, bool) {
	if in.state != DragActive {
		return Intent{}, false
	}
	e := in.dragged
	in.reset()
	if e.ID == "" || date == "" {
		return Intent{}, false
	}
	return MoveEntry(e.ID, date), true
}

// Cancel abandons a drag without emitting anything.
func (in *Interaction) Cancel() {
	in.reset()
}

func (in *Interaction) reset() {
	in.state = DragIdle
	in.dragged = TimeEntry{}
}

// CloneTo asks for a new draft copy of e on date. Approved entries cannot be cloned.
func (in *Interaction) CloneTo(e TimeEntry, date string) (Intent, bool) {
	if !e.Cloneable() || date == "" {
		return Intent{}, false
	}
	src := e
	return Intent{Kind: IntentCloneEntry, EntryID: e.ID, Date: date, Entry: &src}, true
}

// EditRequest asks to open an existing draft for editing.
func (in *Interaction) EditRequest(e TimeEntry) (Intent, bool) {
	if !e.IsDraft() {
		return Intent{}, false
	}
	src := e
	return Intent{Kind: IntentEditEntry, EntryID: e.ID, Date: e.Date, Entry: &src}, true
}

func (in *Interaction) DeleteRequest(e TimeEntry) (Intent, bool) {
	if !e.IsDraft() || e.ID == "" {
		return Intent{}, false
	}
	return Intent{Kind: IntentDeleteEntry, EntryID: e.ID, Date: e.Date}, true
}

// AddRequest asks to start a new entry on d, unless the day is closed.
func (in *Interaction) AddRequest(d Day) (Intent, bool) {
	if !CanAddEntry(d) {
		return Intent{}, false
	}
	return AddEntry(d.Key), true
}

// SubmitRequest builds the submit batch for the given days. Nothing is emitted
// when there are no drafts to submit.
func (in *Interaction) SubmitRequest(days ...Day) (Intent, bool) {
	ids := DraftIDs(days...)
	if len(ids) == 0 {
		return Intent{}, false
	}
	return SubmitEntries(ids), true
}
