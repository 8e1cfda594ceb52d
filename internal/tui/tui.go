package tui

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/quill/internal/app"
	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/notes"
	"github.com/charmbracelet/quill/internal/pubsub"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/ultraviolet/screen"
)

// If pasted text has more than 10 newlines, treat it as a file attachment.
const pasteLinesThreshold = 10

// Suggestions older than this are regenerated when the panel opens.
const promptRefreshAge = time.Hour

// uiState represents the different states of the UI.
type uiState int

const (
	uiLanding uiState = iota
	uiChat
)

// layout defines the rectangular regions for UI components.
type layout struct {
	area   uv.Rectangle
	header uv.Rectangle
	main   uv.Rectangle
	editor uv.Rectangle
	footer uv.Rectangle
	status uv.Rectangle
}

// draftSentMsg signals that the draft was handed to the chat pipeline.
type draftSentMsg struct{}

// imageDoneMsg signals the end of an image generation round trip.
type imageDoneMsg struct{ err string }

// thinkTickMsg advances the streaming indicator.
type thinkTickMsg struct{}

var thinkFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func thinkTickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return thinkTickMsg{}
	})
}

// UI is the main terminal interface: a transcript, the composer
// editor, and a status bar. All session semantics live on the
// composer; this model renders its snapshots and routes keys.
type UI struct {
	app    *app.App
	styles *Styles
	keyMap keyMap

	width, height int
	layout        layout
	state         uiState

	textarea textarea.Model
	status   *statusBar
	popup    *mentionPopup
	chips    *chipRenderer

	snap     composer.Snapshot
	messages []app.ChatMessage

	header     string // cached header render
	noteCount  int
	thinkFrame int

	mentionPos image.Point // x,y where the '@' was typed

	deleting    bool // attachment delete mode
	promptIndex int  // highlighted suggestion

	readyPlaceholder   string
	workingPlaceholder string
	pasteCount         int
}

// New creates the terminal interface for the given application.
func New(appInstance *app.App) *UI {
	t := DefaultStyles()
	m := &UI{
		app:    appInstance,
		styles: &t,
		keyMap: defaultKeyMap(),
	}

	m.textarea = textarea.New()
	m.textarea.SetStyles(t.TextArea)
	m.textarea.ShowLineNumbers = false
	m.textarea.CharLimit = -1
	m.textarea.SetVirtualCursor(false)
	m.textarea.SetPromptFunc(4, m.promptFunc)
	m.randomizePlaceholders()
	m.textarea.Placeholder = m.readyPlaceholder

	m.status = newStatusBar(m.styles, m)
	m.popup = newMentionPopup(m.styles)
	m.chips = newChipRenderer(m.styles)

	m.snap = appInstance.Composer.Snapshot()
	m.messages = appInstance.Chat.History()
	m.noteCount = len(appInstance.Notes.List())
	if len(m.messages) > 0 {
		m.state = uiChat
	}

	return m
}

// Init implements [tea.Model].
func (m *UI) Init() tea.Cmd {
	m.app.Composer.Focus()
	m.snap = m.app.Composer.Snapshot()
	return m.textarea.Focus()
}

// Update implements [tea.Model].
func (m *UI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.updateLayoutAndSize()

	case tea.KeyPressMsg:
		return m.handleKeyPressMsg(msg)

	case tea.PasteMsg:
		if cmd := m.handlePasteMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case thinkTickMsg:
		if m.snap.Streaming || m.snap.Generating {
			m.thinkFrame = (m.thinkFrame + 1) % len(thinkFrames)
			cmds = append(cmds, thinkTickCmd())
		}

	case pubsub.Event[composer.Snapshot]:
		// Events can arrive stale behind fast typing; render from the
		// live state instead of the payload.
		cmds = append(cmds, m.syncComposerState()...)

	case pubsub.Event[app.ChatMessage]:
		m.messages = m.app.Chat.History()
		m.state = uiChat
		m.updateLayoutAndSize()

	case pubsub.Event[notes.Note]:
		m.noteCount = len(m.app.Notes.List())
		m.renderHeader()

	case draftSentMsg:
		m.state = uiChat
		m.textarea.Reset()
		m.randomizePlaceholders()
		m.updateLayoutAndSize()
		cmds = append(cmds, m.syncComposerState()...)

	case imageDoneMsg:
		if msg.err != "" {
			cmds = append(cmds, ReportError(fmt.Errorf("image generation failed: %s", msg.err)))
		} else {
			cmds = append(cmds, ReportInfo("Image generated"))
		}
		cmds = append(cmds, m.syncComposerState()...)

	case InfoMsg:
		ttl := msg.TTL
		if ttl == 0 {
			ttl = DefaultStatusTTL
		}
		m.status.SetInfoMsg(msg)
		cmds = append(cmds, clearInfoMsgCmd(ttl))

	case ClearStatusMsg:
		m.status.ClearInfoMsg()
	}

	return m, tea.Batch(cmds...)
}

// syncComposerState pulls a fresh snapshot and reconciles everything
// derived from it: the textarea buffer, placeholders, layout, and the
// streaming indicator.
func (m *UI) syncComposerState() []tea.Cmd {
	var cmds []tea.Cmd
	prev := m.snap
	m.snap = m.app.Composer.Snapshot()

	// The composer rewrites the buffer on mention commits, suggested
	// prompts, and successful generations. Mirror it.
	if m.snap.Text != m.textarea.Value() {
		m.textarea.SetValue(m.snap.Text)
		// XXX: SetValue always moves the cursor to the end.
		m.textarea.MoveToEnd()
		m.app.Composer.SetText(m.snap.Text, len(m.snap.Text))
		m.snap = m.app.Composer.Snapshot()
	}

	if m.snap.Mention == nil {
		m.mentionPos = image.Point{}
	}

	if (m.snap.Streaming && !prev.Streaming) || (m.snap.Generating && !prev.Generating) {
		cmds = append(cmds, thinkTickCmd())
	}
	if len(m.snap.Attachments) != len(prev.Attachments) {
		if len(m.snap.Attachments) == 0 {
			m.deleting = false
		}
		m.updateLayoutAndSize()
	}
	if m.snap.Provider != prev.Provider || m.snap.Model != prev.Model {
		m.renderHeader()
	}
	if n := len(m.snap.Prompts); n > 0 && m.promptIndex >= n {
		m.promptIndex = n - 1
	}
	m.syncPlaceholder()
	return cmds
}

func (m *UI) syncPlaceholder() {
	switch {
	case m.snap.Generating, m.snap.Streaming:
		m.textarea.Placeholder = m.workingPlaceholder
	case m.snap.Mode == composer.ModeImageGeneration:
		m.textarea.Placeholder = "Describe an image..."
	default:
		m.textarea.Placeholder = m.readyPlaceholder
	}
}

// syncComposer pushes the textarea buffer into the composer. The
// cursor is reported as the end of the buffer, which is where it
// lives while composing.
func (m *UI) syncComposer() {
	value := m.textarea.Value()
	m.app.Composer.SetText(value, len(value))
	m.snap = m.app.Composer.Snapshot()
	m.syncPlaceholder()
}

func (m *UI) handleKeyPressMsg(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Attachment delete mode swallows every key.
	if m.deleting {
		m.handleDeleteModeKey(msg)
		return m, nil
	}

	// So does the formatting toolbar.
	if m.snap.ToolbarOpen {
		if handled := m.handleFormatKey(msg); handled {
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.snap.Streaming {
			m.app.Composer.Cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Suspend):
		return m, tea.Suspend

	case key.Matches(msg, m.keyMap.Help):
		m.status.ToggleHelp()
		m.updateLayoutAndSize()

	case key.Matches(msg, m.keyMap.Prompts):
		cmds = append(cmds, m.togglePrompts())

	case key.Matches(msg, m.keyMap.Copy):
		if draft := m.textarea.Value(); draft != "" {
			cmds = append(cmds, CopyToClipboard(draft, "Draft copied to clipboard"))
		}

	case key.Matches(msg, m.keyMap.Editor.DeleteMode):
		if len(m.snap.Attachments) > 0 {
			m.deleting = true
		}

	case key.Matches(msg, m.keyMap.Editor.Format):
		if m.snap.Mode == composer.ModeText {
			m.app.Composer.ToggleToolbar()
			m.snap = m.app.Composer.Snapshot()
		}

	case key.Matches(msg, m.keyMap.Editor.ImageSize):
		m.cycleImageSize()

	case key.Matches(msg, m.keyMap.Editor.ImageQuality):
		m.cycleImageQuality()

	case key.Matches(msg, m.keyMap.Editor.ImageStyle):
		m.cycleImageStyle()

	case key.Matches(msg, m.keyMap.Cancel):
		switch {
		case m.snap.Mention != nil:
			m.app.Composer.HandleKey(context.Background(), composer.KeyEscape)
			m.snap = m.app.Composer.Snapshot()
		case m.snap.Streaming:
			m.app.Composer.Cancel()
		case m.snap.PromptsOpen:
			m.app.Composer.TogglePrompts()
			m.snap = m.app.Composer.Snapshot()
		}

	case key.Matches(msg, m.keyMap.Editor.Newline):
		m.textarea.InsertRune('\n')
		ta, cmd := m.textarea.Update(msg)
		m.textarea = ta
		cmds = append(cmds, cmd)
		m.syncComposer()

	case key.Matches(msg, m.keyMap.Editor.SendMessage):
		cmds = append(cmds, m.handleSendKey(msg)...)

	case msg.String() == "tab" && m.snap.Mention != nil:
		m.app.Composer.HandleKey(context.Background(), composer.KeyTab)
		m.syncFromComposerText()

	case msg.String() == "up" || msg.String() == "down":
		delta := 1
		k := composer.KeyDown
		if msg.String() == "up" {
			delta = -1
			k = composer.KeyUp
		}
		switch {
		case m.snap.Mention != nil:
			m.app.Composer.HandleKey(context.Background(), k)
			m.snap = m.app.Composer.Snapshot()
		case m.snap.PromptsOpen && len(m.snap.Prompts) > 0:
			n := len(m.snap.Prompts)
			m.promptIndex = (m.promptIndex + delta + n) % n
		default:
			ta, cmd := m.textarea.Update(msg)
			m.textarea = ta
			cmds = append(cmds, cmd)
			m.syncComposer()
		}

	default:
		// Typing closes the prompt panel.
		if m.snap.PromptsOpen {
			m.app.Composer.TogglePrompts()
			m.snap = m.app.Composer.Snapshot()
		}
		// Record where the popup anchors before the '@' lands.
		if msg.String() == "@" && m.snap.Mention == nil {
			m.mentionPos = m.completionsPosition()
		}
		ta, cmd := m.textarea.Update(msg)
		m.textarea = ta
		cmds = append(cmds, cmd)
		m.syncComposer()
	}

	return m, tea.Batch(cmds...)
}

func (m *UI) handleDeleteModeKey(msg tea.KeyPressMsg) {
	switch {
	case key.Matches(msg, deleteKeyMap.Escape):
		m.deleting = false
	case key.Matches(msg, deleteKeyMap.DeleteAll):
		for _, att := range m.snap.Attachments {
			m.app.Composer.RemoveAttachment(att.ID)
		}
		m.deleting = false
	default:
		if r := msg.Code; r >= '0' && r <= '9' {
			if num := int(r - '0'); num < len(m.snap.Attachments) {
				m.app.Composer.RemoveAttachment(m.snap.Attachments[num].ID)
			}
		}
		m.deleting = false
	}
	m.snap = m.app.Composer.Snapshot()
	m.updateLayoutAndSize()
}

// handleFormatKey applies markdown formatting while the toolbar is
// open. Any key that is not a formatting key closes the toolbar and
// is processed normally.
func (m *UI) handleFormatKey(msg tea.KeyPressMsg) bool {
	wrap := func(before, after string) {
		cur := len(m.app.Composer.Text())
		m.app.Composer.ApplyFormat(before, after, cur, cur)
		m.app.Composer.ToggleToolbar()
		m.syncFromComposerText()
	}
	switch {
	case key.Matches(msg, formatKeys.Bold):
		wrap("**", "**")
	case key.Matches(msg, formatKeys.Italic):
		wrap("*", "*")
	case key.Matches(msg, formatKeys.Strike):
		wrap("~~", "~~")
	case key.Matches(msg, formatKeys.Code):
		wrap("`", "`")
	case key.Matches(msg, formatKeys.Link):
		wrap("[", "](url)")
	case key.Matches(msg, formatKeys.Escape):
		m.app.Composer.ToggleToolbar()
		m.snap = m.app.Composer.Snapshot()
	default:
		m.app.Composer.ToggleToolbar()
		m.snap = m.app.Composer.Snapshot()
		return false
	}
	return true
}

func (m *UI) handleSendKey(msg tea.KeyPressMsg) []tea.Cmd {
	var cmds []tea.Cmd

	if m.snap.Mention != nil {
		m.app.Composer.HandleKey(context.Background(), composer.KeyEnter)
		m.syncFromComposerText()
		return nil
	}

	value := m.textarea.Value()
	switch {
	case value == "exit" || value == "quit":
		cmds = append(cmds, tea.Quit)

	case strings.HasPrefix(value, "/model "):
		arg := strings.TrimSpace(strings.TrimPrefix(value, "/model "))
		if err := m.app.SetModel(arg); err != nil {
			cmds = append(cmds, ReportError(err))
			break
		}
		m.textarea.Reset()
		m.syncComposer()
		m.renderHeader()
		cmds = append(cmds, ReportInfo(fmt.Sprintf("Model set to %s", arg)))

	case strings.HasSuffix(value, "\\"):
		// A trailing backslash asks for a newline instead of a send.
		m.textarea.SetValue(strings.TrimSuffix(value, "\\"))
		ta, cmd := m.textarea.Update(msg)
		m.textarea = ta
		cmds = append(cmds, cmd)
		m.syncComposer()

	case m.snap.PromptsOpen && len(m.snap.Prompts) > 0:
		m.usePrompt()

	case m.snap.Streaming:
		cmds = append(cmds, ReportWarn("Please wait for the response to finish..."))

	case m.snap.Generating:
		cmds = append(cmds, ReportWarn("Please wait for the image to finish..."))

	default:
		cmds = append(cmds, m.sendDraft())
	}
	return cmds
}

// sendDraft hands the session to the composer. The outcome comes back
// through snapshots; the draft is the host's to clear once accepted.
func (m *UI) sendDraft() tea.Cmd {
	comp := m.app.Composer
	if comp.Mode() == composer.ModeImageGeneration {
		return func() tea.Msg {
			if strings.TrimSpace(comp.Text()) == "" {
				return nil
			}
			// Generate blocks until the round trip finishes.
			comp.HandleKey(context.Background(), composer.KeyEnter)
			if snap := comp.Snapshot(); snap.GenError != "" {
				return imageDoneMsg{err: snap.GenError}
			}
			return imageDoneMsg{}
		}
	}
	return func() tea.Msg {
		if strings.TrimSpace(comp.Text()) == "" && len(comp.Attachments()) == 0 {
			return nil
		}
		comp.HandleKey(context.Background(), composer.KeyEnter)
		if snap := comp.Snapshot(); snap.SendError != "" {
			return InfoMsg{Type: InfoTypeError, Msg: snap.SendError}
		}
		comp.Reset()
		return draftSentMsg{}
	}
}

// syncFromComposerText mirrors a composer-side buffer rewrite into
// the textarea.
func (m *UI) syncFromComposerText() {
	m.snap = m.app.Composer.Snapshot()
	if m.snap.Text != m.textarea.Value() {
		m.textarea.SetValue(m.snap.Text)
		// XXX: SetValue always moves the cursor to the end.
		m.textarea.MoveToEnd()
		m.app.Composer.SetText(m.snap.Text, len(m.snap.Text))
		m.snap = m.app.Composer.Snapshot()
	}
	if m.snap.Mention == nil {
		m.mentionPos = image.Point{}
	}
	m.syncPlaceholder()
}

func (m *UI) togglePrompts() tea.Cmd {
	comp := m.app.Composer
	if !m.snap.PromptsOpen && !m.snap.CanSuggest {
		return ReportWarn("Suggestions need an empty draft in text mode")
	}
	comp.TogglePrompts()
	m.snap = comp.Snapshot()
	m.promptIndex = 0
	if !m.snap.PromptsOpen {
		return nil
	}
	_, generatedAt := comp.Prompts()
	if time.Since(generatedAt) < promptRefreshAge {
		return nil
	}
	return func() tea.Msg {
		if err := comp.GeneratePrompts(context.Background()); err != nil {
			return InfoMsg{Type: InfoTypeWarn, Msg: fmt.Sprintf("Suggestions unavailable: %s", err)}
		}
		return nil
	}
}

func (m *UI) usePrompt() {
	prompts := m.snap.Prompts
	if m.promptIndex >= len(prompts) {
		return
	}
	m.app.Composer.UsePrompt(prompts[m.promptIndex])
	m.syncFromComposerText()
}

func nextOption(opts []string, current string) string {
	if len(opts) == 0 {
		return current
	}
	for i, o := range opts {
		if o == current {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}

func (m *UI) cycleImageSize() {
	info := m.snap.ImageModel
	if info == nil {
		return
	}
	m.app.Composer.SetImageSize(nextOption(info.Sizes, m.snap.Settings.Size))
	m.snap = m.app.Composer.Snapshot()
}

func (m *UI) cycleImageQuality() {
	info := m.snap.ImageModel
	if info == nil || !info.SupportsQuality {
		return
	}
	m.app.Composer.SetImageQuality(nextOption(info.QualityOptions, m.snap.Settings.Quality))
	m.snap = m.app.Composer.Snapshot()
}

func (m *UI) cycleImageStyle() {
	info := m.snap.ImageModel
	if info == nil || !info.SupportsStyle {
		return
	}
	m.app.Composer.SetImageStyle(nextOption(info.StyleOptions, m.snap.Settings.Style))
	m.snap = m.app.Composer.Snapshot()
}

// handlePasteMsg handles a paste message.
func (m *UI) handlePasteMsg(msg tea.PasteMsg) tea.Cmd {
	// Attachments have no meaning in image-generation mode.
	if m.snap.Mode == composer.ModeImageGeneration {
		return m.pasteIntoTextarea(msg)
	}

	if strings.Count(msg.Content, "\n") > pasteLinesThreshold {
		content := []byte(msg.Content)
		if int64(len(content)) > MaxAttachmentSize {
			return ReportWarn("Paste is too big (>5mb)")
		}
		m.pasteCount++
		name := fmt.Sprintf("paste_%d.txt", m.pasteCount)
		m.app.Composer.AddFiles(composer.FileCandidate{
			Name:     name,
			MIMEType: mimeOf(content),
			Data:     content,
		})
		m.snap = m.app.Composer.Snapshot()
		m.updateLayoutAndSize()
		return nil
	}

	// If the paste parses as existing image files, attach them all.
	// Otherwise it is text.
	paths := pastedPaths(msg.Content)
	allExistAndValid := func() bool {
		if len(paths) == 0 {
			return false
		}
		for _, path := range paths {
			if _, err := os.Stat(path); err != nil {
				return false
			}
			lowerPath := strings.ToLower(path)
			valid := false
			for _, ext := range AllowedImageTypes {
				if strings.HasSuffix(lowerPath, ext) {
					valid = true
					break
				}
			}
			if !valid {
				return false
			}
		}
		return true
	}
	if !allExistAndValid() {
		return m.pasteIntoTextarea(msg)
	}

	comp := m.app.Composer
	return func() tea.Msg {
		var files []composer.FileCandidate
		for _, path := range paths {
			info, err := os.Stat(path)
			if err != nil {
				return InfoMsg{Type: InfoTypeError, Msg: err.Error()}
			}
			if info.Size() > MaxAttachmentSize {
				return InfoMsg{Type: InfoTypeWarn, Msg: "File is too big (>5mb)"}
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return InfoMsg{Type: InfoTypeError, Msg: err.Error()}
			}
			files = append(files, composer.FileCandidate{
				Name:     filepath.Base(path),
				MIMEType: mimeOf(content),
				Data:     content,
			})
		}
		comp.AddFiles(files...)
		return nil
	}
}

func (m *UI) pasteIntoTextarea(msg tea.PasteMsg) tea.Cmd {
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.syncComposer()
	return cmd
}

// updateLayoutAndSize regenerates the layout and resizes components.
func (m *UI) updateLayoutAndSize() {
	m.layout = m.generateLayout(m.width, m.height)
	m.updateSize()
}

func (m *UI) updateSize() {
	m.status.SetWidth(m.layout.status.Dx())
	m.textarea.SetWidth(m.layout.editor.Dx())
	taHeight := m.layout.editor.Dy()
	if len(m.snap.Attachments) > 0 {
		taHeight--
	}
	m.textarea.SetHeight(max(1, taHeight))
	m.renderHeader()
}

// generateLayout calculates the layout rectangles for all UI
// components based on the current UI state and terminal dimensions.
func (m *UI) generateLayout(w, h int) layout {
	// The screen area we're working with
	area := image.Rect(0, 0, w, h)

	// The help height
	helpHeight := 1
	// The editor height
	editorHeight := 5
	// The footer height
	footerHeight := 1
	// The header heights
	const landingHeaderHeight = 4
	const compactHeaderHeight = 1

	var helpKeyMap help.KeyMap = m
	if m.status.ShowingAll() {
		for _, row := range helpKeyMap.FullHelp() {
			helpHeight = max(helpHeight, len(row))
		}
	}

	// Add app margins
	appRect, helpRect := uv.SplitVertical(area, uv.Fixed(area.Dy()-helpHeight))
	appRect.Min.Y += 1
	appRect.Max.Y -= 1
	helpRect.Min.Y -= 1
	appRect.Min.X += 1
	appRect.Max.X -= 1

	l := layout{
		area:   area,
		status: helpRect,
	}

	switch m.state {
	case uiLanding:
		// Layout
		//
		// header
		// ------
		// main
		// ------
		// editor
		// footer
		// ------
		// help

		// extra padding on left and right for the landing state
		appRect.Min.X += 1
		appRect.Max.X -= 1
		headerRect, mainRect := uv.SplitVertical(appRect, uv.Fixed(landingHeaderHeight))
		mainRect, editorRect := uv.SplitVertical(mainRect, uv.Fixed(mainRect.Dy()-editorHeight-footerHeight))
		editorRect, footerRect := uv.SplitVertical(editorRect, uv.Fixed(editorHeight))
		// Remove extra padding from editor (but keep it for header and main)
		editorRect.Min.X -= 1
		editorRect.Max.X += 1
		l.header = headerRect
		l.main = mainRect
		l.editor = editorRect
		l.footer = footerRect

	case uiChat:
		// Layout
		//
		// compact-header
		// ------
		// main
		// ------
		// editor
		// footer
		// ------
		// help
		headerRect, mainRect := uv.SplitVertical(appRect, uv.Fixed(compactHeaderHeight))
		// Add one line gap between header and main content
		mainRect.Min.Y += 1
		mainRect, editorRect := uv.SplitVertical(mainRect, uv.Fixed(mainRect.Dy()-editorHeight-footerHeight))
		editorRect, footerRect := uv.SplitVertical(editorRect, uv.Fixed(editorHeight))
		l.header = headerRect
		l.main = mainRect
		l.editor = editorRect
		l.footer = footerRect
	}

	return l
}

// completionsPosition returns the screen position of the editor
// cursor, which is where the mention popup anchors.
func (m *UI) completionsPosition() image.Point {
	cur := m.textarea.Cursor()
	if cur == nil {
		return image.Point{
			X: m.layout.editor.Min.X,
			Y: m.layout.editor.Min.Y,
		}
	}
	p := image.Point{
		X: cur.X + m.layout.editor.Min.X,
		Y: cur.Y + m.layout.editor.Min.Y,
	}
	if len(m.snap.Attachments) > 0 {
		p.Y++
	}
	return p
}

// Draw implements the screen drawing, returning the cursor position.
func (m *UI) Draw(scr uv.Screen, area uv.Rectangle) *tea.Cursor {
	screen.Clear(scr)
	l := m.layout

	uv.NewStyledString(m.header).Draw(scr, l.header)

	switch m.state {
	case uiLanding:
		uv.NewStyledString(m.landingView()).Draw(scr, l.main)
	case uiChat:
		uv.NewStyledString(m.transcriptView()).Draw(scr, l.main)
	}

	editor := uv.NewStyledString(m.renderEditorView(l.editor.Dx()))
	editor.Draw(scr, l.editor)

	uv.NewStyledString(m.footerView(l.footer.Dx())).Draw(scr, l.footer)

	m.status.Draw(scr, l.status)

	// Draw the mention popup if open.
	if mention := m.snap.Mention; mention != nil && len(m.snap.Candidates) > 0 {
		pos := m.mentionPos
		if pos == (image.Point{}) {
			pos = m.completionsPosition()
		}
		w, h := m.popup.Size(m.snap.Candidates)
		x := pos.X
		y := pos.Y - h

		screenW := area.Dx()
		if x+w > screenW {
			x = screenW - w
		}
		x = max(0, x)
		y = max(0, y)

		popupView := uv.NewStyledString(m.popup.Render(m.snap.Candidates, mention.Query, mention.Index))
		popupView.Draw(scr, image.Rectangle{
			Min: image.Pt(x, y),
			Max: image.Pt(x+w, y+h),
		})
	}

	if m.layout.editor.Dy() <= 0 || !m.textarea.Focused() {
		return nil
	}
	cur := m.textarea.Cursor()
	if cur == nil {
		return nil
	}
	cur.X += m.layout.editor.Min.X
	cur.Y += m.layout.editor.Min.Y
	// Offset for attachment row if present.
	if len(m.snap.Attachments) > 0 {
		cur.Y++
	}
	return cur
}

// View implements [tea.Model].
func (m *UI) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.BackgroundColor = m.styles.Background
	v.WindowTitle = "quill"

	canvas := uv.NewScreenBuffer(m.width, m.height)
	v.Cursor = m.Draw(canvas, canvas.Bounds())

	content := strings.ReplaceAll(canvas.Render(), "\r\n", "\n") // normalize newlines
	contentLines := strings.Split(content, "\n")
	for i, line := range contentLines {
		// Trim trailing spaces for concise rendering
		contentLines[i] = strings.TrimRight(line, " ")
	}
	v.Content = strings.Join(contentLines, "\n")

	return v
}

// ShortHelp implements [help.KeyMap].
func (m *UI) ShortHelp() []key.Binding {
	k := &m.keyMap
	if m.deleting {
		return []key.Binding{deleteKeyMap.DeleteMode, deleteKeyMap.DeleteAll, deleteKeyMap.Escape}
	}
	if m.snap.ToolbarOpen {
		return []key.Binding{formatKeys.Bold, formatKeys.Italic, formatKeys.Strike, formatKeys.Code, formatKeys.Link, formatKeys.Escape}
	}
	if m.snap.Mention != nil {
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "choose note")),
			key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter/tab", "mention")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		}
	}

	var binds []key.Binding
	binds = append(binds, k.Editor.SendMessage, k.Editor.Newline)
	if m.snap.Streaming {
		cancel := k.Cancel
		cancel.SetHelp("esc", "cancel response")
		binds = append(binds, cancel)
	}
	if m.snap.PromptsOpen {
		binds = append(binds,
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "choose prompt")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use prompt")),
		)
	} else {
		binds = append(binds, k.Prompts)
	}
	binds = append(binds, k.Help, k.Quit)
	return binds
}

// FullHelp implements [help.KeyMap].
func (m *UI) FullHelp() [][]key.Binding {
	k := &m.keyMap
	groups := [][]key.Binding{
		{k.Editor.SendMessage, k.Editor.Newline, k.Editor.Mention, k.Copy},
		{k.Prompts, k.Editor.Format, k.Editor.DeleteMode, k.Cancel},
	}
	if m.snap.Mode == composer.ModeImageGeneration {
		groups = append(groups, []key.Binding{k.Editor.ImageSize, k.Editor.ImageQuality, k.Editor.ImageStyle})
	}
	groups = append(groups, []key.Binding{k.Help, k.Suspend, k.Quit})
	return groups
}

var readyPlaceholders = [...]string{
	"Ready!",
	"Ready...",
	"Ready?",
	"Ready when you are",
}

var workingPlaceholders = [...]string{
	"Working!",
	"Working...",
	"Thinking...",
	"Processing...",
	"Pondering...",
}

// randomizePlaceholders selects random placeholder text for the
// textarea's ready and working states.
func (m *UI) randomizePlaceholders() {
	m.workingPlaceholder = workingPlaceholders[rand.Intn(len(workingPlaceholders))]
	m.readyPlaceholder = readyPlaceholders[rand.Intn(len(readyPlaceholders))]
}

// promptFunc returns the editor prompt ("  > " on the first line,
// "::: " on subsequent lines).
func (m *UI) promptFunc(info textarea.PromptInfo) string {
	t := m.styles
	if info.LineNumber == 0 {
		if info.Focused {
			return "  > "
		}
		return "::: "
	}
	if info.Focused {
		return t.Subtle.Render("::: ")
	}
	return t.Muted.Render("::: ")
}

// mimeOf detects the MIME type of the given content.
func mimeOf(content []byte) string {
	mimeBufferSize := min(512, len(content))
	return http.DetectContentType(content[:mimeBufferSize])
}
