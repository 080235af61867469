package week

// IntentKind names the mutation a grid intent asks for.
type IntentKind string

const (
	IntentAddEntry      IntentKind = "add-entry"
	IntentEditEntry     IntentKind = "edit-entry"
	IntentMoveEntry     IntentKind = "move-entry"
	IntentCloneEntry    IntentKind = "clone-entry"
	IntentSubmitEntries IntentKind = "submit-entries"
	IntentSaveEntry     IntentKind = "save-entry"
	IntentDeleteEntry   IntentKind = "delete-entry"
)

// Intent is a request from the grid to its collaborator. It carries plain data
// and performs nothing by itself.
type Intent struct {
	Kind     IntentKind `json:"kind" jsonschema:"enum=add-entry,enum=edit-entry,enum=move-entry,enum=clone-entry,enum=submit-entries,enum=save-entry,enum=delete-entry"`
	Date     string     `json:"date,omitempty"`
	EntryID  string     `json:"entryId,omitempty"`
	Entry    *TimeEntry `json:"entry,omitempty"`
	EntryIDs []string   `json:"entryIds,omitempty"`
}

func AddEntry(date string) Intent {
	return Intent{Kind: IntentAddEntry, Date: date}
}

func MoveEntry(entryID, date string) Intent {
	return Intent{Kind: IntentMoveEntry, EntryID: entryID, Date: date}
}

// SubmitEntries copies ids so later changes to the caller's slice do not leak
// into an emitted intent.
func SubmitEntries(ids []string) Intent {
	return Intent{Kind: IntentSubmitEntries, EntryIDs: append([]string(nil), ids...)}
}

func SaveEntry(e TimeEntry) Intent {
	return Intent{Kind: IntentSaveEntry, EntryID: e.ID, Date: e.Date, Entry: &e}
}

// ClonedEntry is the new draft a clone intent asks for: same work, target date,
// no identifier, always draft.
func (i Intent) ClonedEntry() (TimeEntry, bool) {
	if i.Kind != IntentCloneEntry || i.Entry == nil {
		return TimeEntry{}, false
	}
	e := *i.Entry
	e.ID = ""
	e.Date = i.Date
	e.Status = StatusDraft
	return e, true
}
