package tui

import (
	"time"

	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
)

// DefaultStatusTTL is the default time-to-live for status messages.
const DefaultStatusTTL = 5 * time.Second

// statusBar is the status bar and help model.
type statusBar struct {
	styles *Styles
	help   help.Model
	helpKm help.KeyMap
	msg    InfoMsg
}

func newStatusBar(styles *Styles, km help.KeyMap) *statusBar {
	s := new(statusBar)
	s.styles = styles
	s.help = help.New()
	s.help.Styles = styles.Help
	s.helpKm = km
	return s
}

// SetInfoMsg sets the status info message.
func (s *statusBar) SetInfoMsg(msg InfoMsg) {
	s.msg = msg
}

// ClearInfoMsg clears the status info message.
func (s *statusBar) ClearInfoMsg() {
	s.msg = InfoMsg{}
}

// SetWidth sets the width of the status bar and help view.
func (s *statusBar) SetWidth(width int) {
	s.help.SetWidth(width)
}

// ShowingAll returns whether the full help view is shown.
func (s *statusBar) ShowingAll() bool {
	return s.help.ShowAll
}

// ToggleHelp toggles the full help view.
func (s *statusBar) ToggleHelp() {
	s.help.ShowAll = !s.help.ShowAll
}

// Draw draws the status bar onto the screen.
func (s *statusBar) Draw(scr uv.Screen, area uv.Rectangle) {
	helpView := s.styles.Status.Help.Render(s.help.View(s.helpKm))
	uv.NewStyledString(helpView).Draw(scr, area)

	if s.msg.IsEmpty() {
		return
	}

	var indStyle lipgloss.Style
	var msgStyle lipgloss.Style
	switch s.msg.Type {
	case InfoTypeError:
		indStyle = s.styles.Status.ErrorIndicator
		msgStyle = s.styles.Status.ErrorMessage
	case InfoTypeWarn:
		indStyle = s.styles.Status.WarnIndicator
		msgStyle = s.styles.Status.WarnMessage
	case InfoTypeInfo:
		indStyle = s.styles.Status.InfoIndicator
		msgStyle = s.styles.Status.InfoMessage
	case InfoTypeSuccess:
		indStyle = s.styles.Status.SuccessIndicator
		msgStyle = s.styles.Status.SuccessMessage
	}

	ind := indStyle.String()
	messageWidth := area.Dx() - lipgloss.Width(ind)
	msg := ansi.Truncate(s.msg.Msg, messageWidth, "…")
	info := msgStyle.Width(messageWidth).Render(msg)

	// Draw the info message over the help view.
	uv.NewStyledString(ind + info).Draw(scr, area)
}

// clearInfoMsgCmd returns a command that clears the info message after the
// given TTL.
func clearInfoMsgCmd(ttl time.Duration) tea.Cmd {
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
