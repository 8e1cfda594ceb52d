// Package composer implements the chat input engine: text and cursor
// state, mention autocomplete against a note index, attachment intake
// with per-provider validation, a derived image-generation mode,
// cached suggested prompts, markdown formatting, and send/cancel
// dispatch. It is headless: hosts drive it with events and subscribe
// to snapshots.
package composer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/quill/internal/pubsub"
	"github.com/rivo/uniseg"
	"golang.org/x/sync/singleflight"
)

// Mode says what a send will produce.
type Mode int

const (
	ModeText Mode = iota
	ModeImageGeneration
)

func (m Mode) String() string {
	if m == ModeImageGeneration {
		return "image"
	}
	return "text"
}

// Key identifies the keys the composer routes itself. Everything else
// is ordinary text input handled by the host editor.
type Key int

const (
	KeyEnter Key = iota
	KeyShiftEnter
	KeyTab
	KeyEscape
	KeyUp
	KeyDown
)

// FocusRequester asks the host to put keyboard focus back on the
// input, e.g. after a mention insertion rewrites the buffer.
type FocusRequester func()

const defaultErrorTTL = 5 * time.Second

// Options wires the composer's collaborators. Every field is
// optional; affected operations become no-ops when one is missing.
type Options struct {
	Notes        NoteIndex
	Capabilities CapabilityProvider
	Sender       SendCollaborator
	Canceler     CancelCollaborator
	Generator    ImageGenerator
	Prompts      PromptService
	PromptStore  PromptStore
	Focus        FocusRequester

	// ErrorTTL is how long transient file errors stay visible.
	ErrorTTL time.Duration
	// Now is replaceable for tests.
	Now func() time.Time
}

// Composer is the single source of truth for one input session. All
// methods are safe for concurrent use; every state change publishes a
// Snapshot on the embedded broker.
type Composer struct {
	*pubsub.Broker[Snapshot]

	notes     NoteIndex
	caps      CapabilityProvider
	sender    SendCollaborator
	canceler  CancelCollaborator
	generator ImageGenerator
	prompts   PromptService
	store     PromptStore
	focus     FocusRequester
	now       func() time.Time
	errTTL    time.Duration

	mu           sync.Mutex
	closed       bool
	text         string
	cursor       int
	focused      bool
	streaming    bool
	provider     string
	model        string
	visionOK     bool
	attachments  []Attachment
	mention      *MentionState
	imageModel   *ImageModelInfo
	settings     ImageSettings
	generating   bool
	dragging     bool
	toolbarOpen  bool
	promptsOpen  bool
	suggested    []SuggestedPrompt
	generatedAt  time.Time
	fileErr      string
	fileErrTimer *time.Timer
	genErr       string
	sendErr      string
	promptsErr   string

	flight singleflight.Group
}

// New creates a composer. Cached suggested prompts are loaded
// immediately; until a generation succeeds the static default set is
// used.
func New(opts Options) *Composer {
	c := &Composer{
		Broker:    pubsub.NewBroker[Snapshot](),
		notes:     opts.Notes,
		caps:      opts.Capabilities,
		sender:    opts.Sender,
		canceler:  opts.Canceler,
		generator: opts.Generator,
		prompts:   opts.Prompts,
		store:     opts.PromptStore,
		focus:     opts.Focus,
		now:       opts.Now,
		errTTL:    opts.ErrorTTL,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.errTTL <= 0 {
		c.errTTL = defaultErrorTTL
	}
	c.suggested = defaultPrompts()
	if c.store != nil {
		if entry, ok := c.store.Load(); ok && len(entry.Prompts) > 0 {
			c.suggested = entry.Prompts
			c.generatedAt = entry.Timestamp
		}
	}
	return c
}

// SetText replaces the buffer and cursor, then re-evaluates mention
// detection. This is the host's change handler; the cursor is clamped
// into the new text.
func (c *Composer) SetText(text string, cursor int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.cursor = clamp(cursor, 0, len(text))
	c.detectMentionLocked()
	c.publishLocked()
}

// Focus marks the input focused.
func (c *Composer) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = true
	c.publishLocked()
}

// Blur marks the input unfocused and closes the mention dropdown.
func (c *Composer) Blur() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = false
	c.mention = nil
	c.publishLocked()
}

// SetStreaming records whether an assistant response is in flight.
// The host flips this around its send/stream lifecycle; Cancel is
// only meaningful while it is true.
func (c *Composer) SetStreaming(streaming bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streaming = streaming
	c.publishLocked()
}

// SetModel switches the active provider/model pair and re-derives
// capability-dependent state: image-generation mode, image settings
// defaults, and vision gating. Losing vision support purges image
// attachments and raises a transient file error.
func (c *Composer) SetModel(provider, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if provider == c.provider && model == c.model {
		return
	}
	prevVision := c.visionOK
	prevInfo := c.imageModel
	c.provider, c.model = provider, model

	c.visionOK = false
	c.imageModel = nil
	if c.caps != nil && provider != "" && model != "" {
		c.visionOK = c.caps.SupportsVision(provider, model)
		if info, ok := c.caps.ImageModel(provider, model); ok {
			c.imageModel = &info
		}
	}

	if c.imageModel != nil {
		if prevInfo == nil || prevInfo.ID != c.imageModel.ID {
			c.settings.Size = c.imageModel.DefaultSize
		}
		if prevInfo == nil {
			// Attachments and mentions have no meaning in
			// image-generation mode.
			c.attachments = nil
			c.mention = nil
		}
	}
	if prevVision && !c.visionOK {
		c.purgeImagesLocked()
	}
	c.publishLocked()
}

// ToggleToolbar shows or hides the formatting toolbar.
func (c *Composer) ToggleToolbar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toolbarOpen = !c.toolbarOpen
	c.publishLocked()
}

// TogglePrompts shows or hides the suggested-prompt panel. Whether the
// panel may be shown at all is the host's call via CanSuggest.
func (c *Composer) TogglePrompts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promptsOpen = !c.promptsOpen
	c.publishLocked()
}

// HandleKey routes a key event. Mention handling takes priority:
// while the dropdown is open Enter and Tab commit, Escape dismisses,
// and the arrows navigate. Otherwise Enter sends. Returns false when
// the host should handle the key itself (e.g. Shift+Enter newline).
func (c *Composer) HandleKey(ctx context.Context, key Key) bool {
	c.mu.Lock()
	mentionOpen := c.mention != nil
	c.mu.Unlock()

	if mentionOpen {
		switch key {
		case KeyEnter, KeyTab:
			c.CommitMention()
			return true
		case KeyEscape:
			c.DismissMention()
			return true
		case KeyDown:
			c.MoveCandidate(1)
			return true
		case KeyUp:
			c.MoveCandidate(-1)
			return true
		}
	}
	if key == KeyEnter {
		_ = c.Send(ctx)
		return true
	}
	return false
}

// Reset returns the session to its post-send state: empty buffer, no
// attachments, no mention, no transient errors, panels closed.
// Streaming and generation flags are owned by their flows and kept.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = ""
	c.cursor = 0
	c.attachments = nil
	c.mention = nil
	c.dragging = false
	c.toolbarOpen = false
	c.promptsOpen = false
	c.clearFileErrorLocked()
	c.genErr = ""
	c.sendErr = ""
	c.promptsErr = ""
	c.publishLocked()
}

// Close stops timers and shuts down the snapshot broker. The composer
// must not be used afterwards.
func (c *Composer) Close() {
	c.mu.Lock()
	c.closed = true
	if c.fileErrTimer != nil {
		c.fileErrTimer.Stop()
		c.fileErrTimer = nil
	}
	c.mu.Unlock()
	c.Shutdown()
}

// Text returns the current buffer.
func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Mode reports whether a send produces a message or an image request.
func (c *Composer) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLocked()
}

func (c *Composer) modeLocked() Mode {
	if c.imageModel != nil {
		return ModeImageGeneration
	}
	return ModeText
}

// Snapshot returns a copy of the full session state.
func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Composer) publishLocked() {
	c.Publish(pubsub.UpdatedEvent, c.snapshotLocked())
}

func (c *Composer) setFileErrorLocked(msg string) {
	c.fileErr = msg
	if c.fileErrTimer != nil {
		c.fileErrTimer.Stop()
	}
	c.fileErrTimer = time.AfterFunc(c.errTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.fileErr != msg {
			return
		}
		c.fileErr = ""
		c.publishLocked()
	})
}

func (c *Composer) clearFileErrorLocked() {
	c.fileErr = ""
	if c.fileErrTimer != nil {
		c.fileErrTimer.Stop()
		c.fileErrTimer = nil
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Snapshot is the read model published after every state change.
type Snapshot struct {
	Text      string
	Cursor    int
	Focused   bool
	Streaming bool
	Mode      Mode
	Provider  string
	Model     string

	Attachments []Attachment
	Mention     *MentionState
	Candidates  []NoteRef

	ImageModel *ImageModelInfo
	Settings   ImageSettings
	Generating bool

	Dragging    bool
	ToolbarOpen bool
	PromptsOpen bool
	Prompts     []SuggestedPrompt

	FileError    string
	GenError     string
	SendError    string
	PromptsError string

	// CanAttach is false exactly while image-generation mode is
	// active; hosts hide the attach affordance from it.
	CanAttach bool
	// CanSuggest gates the prompt panel: empty composition, no
	// attachments, text mode, and a prompt service wired.
	CanSuggest bool

	HasContent      bool
	WordCount       int
	CharCount       int
	EstimatedTokens int
}

func (c *Composer) snapshotLocked() Snapshot {
	snap := Snapshot{
		Text:         c.text,
		Cursor:       c.cursor,
		Focused:      c.focused,
		Streaming:    c.streaming,
		Mode:         c.modeLocked(),
		Provider:     c.provider,
		Model:        c.model,
		Settings:     c.settings,
		Generating:   c.generating,
		Dragging:     c.dragging,
		ToolbarOpen:  c.toolbarOpen,
		PromptsOpen:  c.promptsOpen,
		FileError:    c.fileErr,
		GenError:     c.genErr,
		SendError:    c.sendErr,
		PromptsError: c.promptsErr,
	}
	snap.Attachments = make([]Attachment, len(c.attachments))
	copy(snap.Attachments, c.attachments)
	snap.Prompts = make([]SuggestedPrompt, len(c.suggested))
	copy(snap.Prompts, c.suggested)
	if c.mention != nil {
		m := *c.mention
		snap.Mention = &m
		snap.Candidates = c.candidatesLocked()
	}
	if c.imageModel != nil {
		info := *c.imageModel
		snap.ImageModel = &info
	}
	snap.CanAttach = snap.Mode == ModeText
	trimmed := strings.TrimSpace(c.text)
	snap.HasContent = trimmed != "" || len(c.attachments) > 0
	snap.CanSuggest = snap.Mode == ModeText && trimmed == "" &&
		len(c.attachments) == 0 && c.prompts != nil
	snap.WordCount = len(strings.Fields(c.text))
	snap.CharCount = uniseg.GraphemeClusterCount(c.text)
	// Rough heuristic: one token per four bytes.
	snap.EstimatedTokens = (len(c.text) + 3) / 4
	return snap
}
