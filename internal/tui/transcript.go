package tui

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/quill/internal/app"
	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/version"
	"github.com/charmbracelet/x/ansi"
)

const (
	minHeaderDiags = 3
	leftPadding    = 1
	rightPadding   = 1
)

// renderHeader renders and caches the header at the current width.
func (m *UI) renderHeader() {
	if m.state == uiChat {
		m.header = m.renderCompactHeader(m.layout.header.Dx())
	} else {
		m.header = m.renderLandingHeader(m.layout.header.Dx())
	}
}

func (m *UI) renderLandingHeader(width int) string {
	t := m.styles

	title := applyBoldForegroundGrad("QUILL", t.TitleColorA, t.TitleColorB) +
		" " + t.Muted.Render(version.Version)
	tagline := t.HalfMuted.Render("Chat with your notes.")

	vault := shortHome(m.app.Config().NotesDir())
	vaultLine := t.Header.Vault.Render(vault)
	if m.noteCount > 0 {
		vaultLine += t.Header.Separator.Render(" • ") +
			t.Header.Vault.Render(fmt.Sprintf("%d notes", m.noteCount))
	}

	return lipgloss.NewStyle().Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, tagline, "", vaultLine),
	)
}

// renderCompactHeader renders the single-line header used in the chat
// state.
func (m *UI) renderCompactHeader(width int) string {
	t := m.styles

	var b strings.Builder

	b.WriteString(applyBoldForegroundGrad("QUILL", t.TitleColorA, t.TitleColorB))
	b.WriteString(" ")

	availDetailWidth := width - leftPadding - rightPadding - lipgloss.Width(b.String()) - minHeaderDiags
	details := m.renderHeaderDetails(availDetailWidth)

	remainingWidth := width -
		lipgloss.Width(b.String()) -
		lipgloss.Width(details) -
		leftPadding -
		rightPadding

	if remainingWidth > 0 {
		b.WriteString(t.Header.Diagonals.Render(
			strings.Repeat(headerDiag, max(minHeaderDiags, remainingWidth)),
		))
		b.WriteString(" ")
	}

	b.WriteString(details)

	return t.Base.Padding(0, rightPadding, 0, leftPadding).Render(b.String())
}

// renderHeaderDetails renders the details section of the header.
func (m *UI) renderHeaderDetails(availWidth int) string {
	t := m.styles

	var parts []string

	if m.snap.Mode == composer.ModeImageGeneration {
		parts = append(parts, t.Footer.Mode.Render("IMAGE"))
	}
	if m.noteCount > 0 {
		parts = append(parts, t.Header.Vault.Render(fmt.Sprintf("%d notes", m.noteCount)))
	}
	parts = append(parts, t.Header.Keystroke.Render("ctrl+g")+t.Header.KeystrokeTip.Render(" help"))

	dot := t.Header.Separator.Render(" • ")
	metadata := strings.Join(parts, dot)
	metadata = dot + metadata

	model := m.snap.Model
	if model == "" {
		model = "no model"
	}
	model = ansi.Truncate(model, max(0, availWidth-lipgloss.Width(metadata)), "…")
	model = t.Header.Model.Render(model)

	return model + metadata
}

// landingView renders the pre-chat view with the model and a few
// starter hints.
func (m *UI) landingView() string {
	width := m.layout.main.Dx()

	if m.snap.PromptsOpen {
		return m.promptsView(width, m.layout.main.Dy())
	}

	parts := []string{
		m.modelInfo(width),
		"",
		m.landingHints(),
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.layout.main.Dy() - 1).
		PaddingTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *UI) modelInfo(width int) string {
	t := m.styles
	if m.snap.Model == "" {
		return t.Muted.Render("No model selected. Run \"quill models\" to see what is available.")
	}
	info := t.Base.Render(m.snap.Model) + t.Muted.Render(" "+m.snap.Provider)
	if m.snap.Mode == composer.ModeImageGeneration {
		info += t.Header.Separator.Render(" • ") + t.Footer.Mode.Render("IMAGE")
	}
	return ansi.Truncate(info, width, "…")
}

func (m *UI) landingHints() string {
	t := m.styles
	dot := t.Header.Separator.Render(" • ")
	rows := []string{
		t.Header.Keystroke.Render("enter") + t.Header.KeystrokeTip.Render(" send") + dot +
			t.Header.Keystroke.Render("shift+enter") + t.Header.KeystrokeTip.Render(" newline"),
		t.Header.Keystroke.Render("@") + t.Header.KeystrokeTip.Render(" mention a note"),
		t.Header.Keystroke.Render("ctrl+p") + t.Header.KeystrokeTip.Render(" suggested prompts"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// transcriptView renders the conversation, anchored to the bottom of
// the main area.
func (m *UI) transcriptView() string {
	t := m.styles
	width := m.layout.main.Dx()
	height := m.layout.main.Dy()

	if m.snap.PromptsOpen {
		return m.promptsView(width, height)
	}

	var blocks []string
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	switch {
	case m.snap.Streaming:
		blocks = append(blocks, t.Chat.Thinking.Render(thinkFrames[m.thinkFrame]+" "+m.workingPlaceholder))
	case m.snap.Generating:
		blocks = append(blocks, t.Chat.Thinking.Render(thinkFrames[m.thinkFrame]+" Generating image..."))
	}

	content := strings.Join(blocks, "\n\n")
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	if pad := height - len(lines); pad > 0 {
		return strings.Repeat("\n", pad) + strings.Join(lines, "\n")
	}
	return strings.Join(lines, "\n")
}

func (m *UI) renderMessage(msg app.ChatMessage, width int) string {
	t := m.styles
	switch {
	case msg.Role == app.RoleUser:
		body := msg.Text
		if msg.Images > 0 {
			note := fmt.Sprintf("[%d attachment(s)]", msg.Images)
			if body == "" {
				body = note
			} else {
				body += "\n" + note
			}
		}
		prompt := t.Chat.UserPrompt.String()
		rendered := t.Chat.UserText.Width(max(1, width-lipgloss.Width(prompt))).Render(body)
		return lipgloss.JoinHorizontal(lipgloss.Top, prompt, rendered)

	case msg.Err != "":
		tag := t.Chat.ErrorTag.String()
		body := t.Chat.ErrorText.Width(max(1, width-lipgloss.Width(tag)-1)).Render(msg.Err)
		return lipgloss.JoinHorizontal(lipgloss.Top, tag+" ", body)

	default:
		return t.Chat.AssistantText.Width(width).Render(msg.Text)
	}
}

// promptsView renders the suggested prompt panel in place of the main
// content.
func (m *UI) promptsView(width, height int) string {
	t := m.styles
	prompts := m.snap.Prompts

	rows := []string{t.Prompts.Title.Render("Suggested prompts"), ""}

	if m.snap.PromptsError != "" {
		rows = append(rows, t.Footer.Error.Render(ansi.Truncate(m.snap.PromptsError, width, "…")), "")
	}

	if len(prompts) == 0 {
		rows = append(rows, t.Prompts.Hint.Render("Thinking of ideas..."))
	}
	for i, p := range prompts {
		style := t.Prompts.Item
		prefix := "  "
		if i == m.promptIndex {
			style = t.Prompts.Selected
			prefix = t.Prompts.Selected.Render("> ")
		}
		row := prefix + style.Render(p.Label) + " " +
			t.Prompts.Category.Render(string(p.Category))
		rows = append(rows, ansi.Truncate(row, width, "…"))
	}

	rows = append(rows, "",
		t.Prompts.Hint.Render("enter use")+
			t.Header.Separator.Render(" • ")+
			t.Prompts.Hint.Render("ctrl+p close"))

	return lipgloss.NewStyle().
		Width(width).
		Height(height - 1).
		PaddingTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderEditorView renders the editor view with attachments if any.
func (m *UI) renderEditorView(width int) string {
	if len(m.snap.Attachments) == 0 {
		return m.textarea.View()
	}
	return lipgloss.JoinVertical(
		lipgloss.Top,
		m.chips.Render(m.snap.Attachments, m.deleting, width),
		m.textarea.View(),
	)
}

// footerView renders the slim line between the editor and the help:
// composition counters on the left, mode and image settings on the
// right. Transient errors preempt both sides.
func (m *UI) footerView(width int) string {
	t := m.styles

	if msg := cmp.Or(m.snap.FileError, m.snap.GenError, m.snap.SendError); msg != "" {
		return t.Footer.Error.Render(ansi.Truncate(msg, width, "…"))
	}

	if m.snap.Dragging {
		return t.Footer.Drop.Render("Drop files to attach")
	}

	if m.snap.ToolbarOpen {
		dot := t.Header.Separator.Render(" • ")
		keys := []string{
			t.Header.Keystroke.Render("b") + t.Footer.Format.Render(" bold"),
			t.Header.Keystroke.Render("i") + t.Footer.Format.Render(" italic"),
			t.Header.Keystroke.Render("s") + t.Footer.Format.Render(" strike"),
			t.Header.Keystroke.Render("c") + t.Footer.Format.Render(" code"),
			t.Header.Keystroke.Render("l") + t.Footer.Format.Render(" link"),
			t.Header.Keystroke.Render("esc") + t.Footer.Format.Render(" close"),
		}
		return ansi.Truncate(strings.Join(keys, dot), width, "…")
	}

	var left string
	if m.snap.HasContent {
		left = t.Footer.Counts.Render(fmt.Sprintf("%d words • %d chars • ~%d tokens",
			m.snap.WordCount, m.snap.CharCount, m.snap.EstimatedTokens))
	}

	var right string
	if m.snap.Mode == composer.ModeImageGeneration {
		parts := []string{t.Footer.Mode.Render("IMAGE")}
		s := m.snap.Settings
		parts = append(parts, t.Footer.SettingKey.Render("size ")+t.Footer.SettingValue.Render(s.Size))
		if info := m.snap.ImageModel; info != nil {
			if info.SupportsQuality {
				parts = append(parts, t.Footer.SettingKey.Render("quality ")+t.Footer.SettingValue.Render(s.Quality))
			}
			if info.SupportsStyle {
				parts = append(parts, t.Footer.SettingKey.Render("style ")+t.Footer.SettingValue.Render(s.Style))
			}
		}
		right = strings.Join(parts, t.Header.Separator.Render(" • "))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(left+" "+right, width, "…")
	}
	return left + strings.Repeat(" ", gap) + right
}

// shortHome abbreviates the user's home directory to "~".
func shortHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}
