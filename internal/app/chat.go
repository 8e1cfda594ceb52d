package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/config"
	"github.com/charmbracelet/quill/internal/event"
	"github.com/charmbracelet/quill/internal/providers"
	"github.com/charmbracelet/quill/internal/pubsub"
)

// Role identifies a transcript author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one transcript entry.
type ChatMessage struct {
	ID        string
	Role      Role
	Text      string
	Images    int
	Err       string
	CreatedAt time.Time
}

const chatSystem = "You are a thoughtful assistant inside a personal " +
	"note-taking app. Answer concisely using the conversation so far."

// Chat relays composer messages to the configured completion model and
// publishes transcript entries. It implements the composer's send and
// cancel collaborators; the completion transport is text-only, so
// attachments ride along as a count.
type Chat struct {
	*pubsub.Broker[ChatMessage]

	mu        sync.Mutex
	provider  string
	model     string
	history   []ChatMessage
	cancel    context.CancelFunc
	onStream  func(bool)
	clientFor func(providerID string) (providers.Completer, error)
	wg        sync.WaitGroup
	now       func() time.Time
}

func NewChat(cfg *config.Config) *Chat {
	return &Chat{
		Broker: pubsub.NewBroker[ChatMessage](),
		clientFor: func(providerID string) (providers.Completer, error) {
			return providers.ForModel(cfg, providerID)
		},
		now: time.Now,
	}
}

func (c *Chat) SetModel(provider, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.provider, c.model = provider, model
}

// OnStreaming registers the callback toggled around each completion.
func (c *Chat) OnStreaming(fn func(bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStream = fn
}

// History returns a copy of the transcript so far.
func (c *Chat) History() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatMessage, len(c.history))
	copy(out, c.history)
	return out
}

// Send validates the target model, records the user message, and
// completes in the background. The reply, or its failure, arrives as
// a transcript event.
func (c *Chat) Send(ctx context.Context, msg composer.TextMessage) error {
	c.mu.Lock()
	if c.provider == "" || c.model == "" {
		c.mu.Unlock()
		return errors.New("no model selected")
	}
	if c.cancel != nil {
		c.mu.Unlock()
		return errors.New("a response is already streaming")
	}
	client, err := c.clientFor(c.provider)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	user := ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      msg.Text,
		Images:    len(msg.Images),
		CreatedAt: c.now(),
	}
	c.history = append(c.history, user)
	prompt := c.promptLocked()
	provider, model := c.provider, c.model
	onStream := c.onStream

	// The reply must outlive the triggering UI event.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.mu.Unlock()

	c.Publish(pubsub.CreatedEvent, user)
	if onStream != nil {
		onStream(true)
	}
	event.MessageSent(provider, model, user.Images, len(strings.Fields(user.Text)))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		text, err := client.Complete(runCtx, providers.CompletionRequest{
			Model:  model,
			System: chatSystem,
			Prompt: prompt,
		})

		reply := ChatMessage{ID: uuid.NewString(), Role: RoleAssistant, CreatedAt: c.now()}
		switch {
		case errors.Is(err, context.Canceled):
			reply.Err = "response cancelled"
		case err != nil:
			reply.Err = err.Error()
		default:
			reply.Text = text
		}

		c.mu.Lock()
		c.history = append(c.history, reply)
		c.cancel = nil
		c.mu.Unlock()

		c.Publish(pubsub.CreatedEvent, reply)
		if onStream != nil {
			onStream(false)
		}
	}()
	return nil
}

// Cancel aborts the in-flight completion, if any.
func (c *Chat) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close cancels any in-flight completion and waits for it.
func (c *Chat) Close() {
	c.Cancel()
	c.wg.Wait()
	c.Shutdown()
}

// promptLocked renders the transcript as a single-turn prompt. Failed
// replies are left out.
func (c *Chat) promptLocked() string {
	var b strings.Builder
	for _, m := range c.history {
		if m.Err != "" {
			continue
		}
		switch m.Role {
		case RoleUser:
			b.WriteString("User: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}
