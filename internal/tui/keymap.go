package tui

import "charm.land/bubbles/v2/key"

type editorKeyMap struct {
	SendMessage  key.Binding
	Newline      key.Binding
	Format       key.Binding
	DeleteMode   key.Binding
	ImageSize    key.Binding
	ImageQuality key.Binding
	ImageStyle   key.Binding
	Mention      key.Binding // display only, the composer detects '@' itself
}

type keyMap struct {
	Editor editorKeyMap

	Prompts key.Binding
	Copy    key.Binding
	Cancel  key.Binding
	Help    key.Binding
	Suspend key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Editor: editorKeyMap{
			SendMessage: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "send"),
			),
			Newline: key.NewBinding(
				key.WithKeys("shift+enter", "ctrl+j"),
				key.WithHelp("shift+enter", "newline"),
			),
			Format: key.NewBinding(
				key.WithKeys("ctrl+b"),
				key.WithHelp("ctrl+b", "format"),
			),
			DeleteMode: key.NewBinding(
				key.WithKeys("ctrl+r"),
				key.WithHelp("ctrl+r+{i}", "delete attachment at index i"),
			),
			ImageSize: key.NewBinding(
				key.WithKeys("ctrl+s"),
				key.WithHelp("ctrl+s", "image size"),
			),
			ImageQuality: key.NewBinding(
				key.WithKeys("ctrl+q"),
				key.WithHelp("ctrl+q", "image quality"),
			),
			ImageStyle: key.NewBinding(
				key.WithKeys("ctrl+e"),
				key.WithHelp("ctrl+e", "image style"),
			),
			Mention: key.NewBinding(
				key.WithHelp("@", "mention note"),
			),
		},
		Prompts: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "prompts"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy draft"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "alt+esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "more help"),
		),
		Suspend: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "suspend"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// deleteAttachmentKeyMap is the help shown while attachment delete mode
// is active.
type deleteAttachmentKeyMap struct {
	DeleteMode key.Binding
	DeleteAll  key.Binding
	Escape     key.Binding
}

var deleteKeyMap = deleteAttachmentKeyMap{
	DeleteMode: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r+{i}", "delete attachment at index i"),
	),
	DeleteAll: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("ctrl+r+r", "delete all attachments"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc", "alt+esc"),
		key.WithHelp("esc", "cancel delete mode"),
	),
}

// formatKeyMap is the help shown while the formatting toolbar is open.
type formatKeyMap struct {
	Bold   key.Binding
	Italic key.Binding
	Strike key.Binding
	Code   key.Binding
	Link   key.Binding
	Escape key.Binding
}

var formatKeys = formatKeyMap{
	Bold: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "bold"),
	),
	Italic: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "italic"),
	),
	Strike: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "strikethrough"),
	),
	Code: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "code"),
	),
	Link: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "link"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc", "alt+esc"),
		key.WithHelp("esc", "close"),
	),
}
