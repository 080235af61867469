package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevDay    key.Binding
	NextDay    key.Binding
	Up         key.Binding
	Down       key.Binding
	PrevWeek   key.Binding
	NextWeek   key.Binding
	Today      key.Binding
	Add        key.Binding
	Edit       key.Binding
	Move       key.Binding
	Cancel     key.Binding
	Clone      key.Binding
	Yank       key.Binding
	Paste      key.Binding
	SubmitDay  key.Binding
	SubmitWeek key.Binding
	Delete     key.Binding
	Reload     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		PrevDay:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "prev day")),
		NextDay:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next day")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "prev entry")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next entry")),
		PrevWeek:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev week")),
		NextWeek:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week")),
		Today:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add time")),
		Edit:       key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Move:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move/drop")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Clone:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clone")),
		Yank:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Paste:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "paste copy")),
		SubmitDay:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit day")),
		SubmitWeek: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "submit week")),
		Delete:     key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Move, k.Clone, k.SubmitDay, k.SubmitWeek, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevDay, k.NextDay, k.Up, k.Down},
		{k.PrevWeek, k.NextWeek, k.Today, k.Reload},
		{k.Add, k.Edit, k.Delete, k.Move, k.Cancel},
		{k.Clone, k.Yank, k.Paste, k.SubmitDay, k.SubmitWeek},
		{k.Help, k.Quit},
	}
}
