package tui

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
)

// MaxAttachmentSize defines the maximum allowed size for file attachments (5 MB).
const MaxAttachmentSize = int64(5 * 1024 * 1024)

// AllowedImageTypes defines the image file types accepted by path paste.
var AllowedImageTypes = []string{".jpg", ".jpeg", ".png"}

// InfoType is the severity of a transient status message.
type InfoType int

const (
	InfoTypeInfo InfoType = iota
	InfoTypeSuccess
	InfoTypeWarn
	InfoTypeError
)

// InfoMsg is a transient message for the status bar.
type InfoMsg struct {
	Type InfoType
	Msg  string
	TTL  time.Duration
}

// IsEmpty reports whether there is no message to show.
func (i InfoMsg) IsEmpty() bool {
	return i.Msg == ""
}

// ClearStatusMsg clears the current status message.
type ClearStatusMsg struct{}

// CmdHandler wraps a message in a command.
func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

// ReportError returns a command that reports an error to the status bar.
func ReportError(err error) tea.Cmd {
	return CmdHandler(InfoMsg{
		Type: InfoTypeError,
		Msg:  err.Error(),
	})
}

// ReportInfo returns a command that reports an info message to the status bar.
func ReportInfo(info string) tea.Cmd {
	return CmdHandler(InfoMsg{
		Type: InfoTypeInfo,
		Msg:  info,
	})
}

// ReportWarn returns a command that reports a warning to the status bar.
func ReportWarn(warn string) tea.Cmd {
	return CmdHandler(InfoMsg{
		Type: InfoTypeWarn,
		Msg:  warn,
	})
}

// CopyToClipboard copies the given text to the clipboard using both OSC 52
// and the native clipboard for maximum compatibility, then reports success
// with the given message.
func CopyToClipboard(text, successMessage string) tea.Cmd {
	return tea.Sequence(
		tea.SetClipboard(text),
		func() tea.Msg {
			_ = clipboard.WriteAll(text)
			return nil
		},
		ReportInfo(successMessage),
	)
}

// pastedPaths splits pasted text into candidate file paths. Terminals
// deliver drag-and-drop as space-separated paths, quoting or escaping
// the ones that contain spaces.
func pastedPaths(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var (
		paths   []string
		current strings.Builder
		quote   byte
		escaped bool
	)
	flush := func() {
		if current.Len() > 0 {
			paths = append(paths, current.String())
			current.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			current.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\n' || c == '\r' || c == '\t':
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()
	return paths
}
