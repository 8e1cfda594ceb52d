package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/providers"
	"github.com/charmbracelet/quill/internal/pubsub"
)

type fakeCompleter struct {
	mu       sync.Mutex
	requests []providers.CompletionRequest
	complete func(ctx context.Context, req providers.CompletionRequest) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.complete != nil {
		return f.complete(ctx, req)
	}
	return "ok", nil
}

func (f *fakeCompleter) lastRequest(t *testing.T) providers.CompletionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestChat(t *testing.T, fake *fakeCompleter) *Chat {
	t.Helper()
	c := &Chat{
		Broker: pubsub.NewBroker[ChatMessage](),
		clientFor: func(string) (providers.Completer, error) {
			return fake, nil
		},
		now: time.Now,
	}
	c.SetModel("openai", "gpt-4o")
	t.Cleanup(c.Close)
	return c
}

func nextMessage(t *testing.T, ch <-chan pubsub.Event[ChatMessage]) ChatMessage {
	t.Helper()
	select {
	case ev := <-ch:
		require.Equal(t, pubsub.CreatedEvent, ev.Type)
		return ev.Payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a chat event")
		return ChatMessage{}
	}
}

func TestChatSendPublishesTranscript(t *testing.T) {
	fake := &fakeCompleter{
		complete: func(context.Context, providers.CompletionRequest) (string, error) {
			return "hello back", nil
		},
	}
	chat := newTestChat(t, fake)
	events := chat.Subscribe(t.Context())

	err := chat.Send(t.Context(), composer.TextMessage{
		Text:   "hello there",
		Images: []composer.InlineImage{{Data: "aGk=", MediaType: "image/png"}},
	})
	require.NoError(t, err)

	user := nextMessage(t, events)
	require.Equal(t, RoleUser, user.Role)
	require.Equal(t, "hello there", user.Text)
	require.Equal(t, 1, user.Images)
	require.NotEmpty(t, user.ID)

	reply := nextMessage(t, events)
	require.Equal(t, RoleAssistant, reply.Role)
	require.Equal(t, "hello back", reply.Text)
	require.Empty(t, reply.Err)

	history := chat.History()
	require.Len(t, history, 2)
	require.Equal(t, user.ID, history[0].ID)
	require.Equal(t, reply.ID, history[1].ID)
}

func TestChatSendValidation(t *testing.T) {
	t.Run("no model selected", func(t *testing.T) {
		chat := &Chat{Broker: pubsub.NewBroker[ChatMessage](), now: time.Now}
		t.Cleanup(chat.Close)

		err := chat.Send(t.Context(), composer.TextMessage{Text: "hi"})
		require.ErrorContains(t, err, "no model selected")
	})

	t.Run("client resolution failure", func(t *testing.T) {
		chat := newTestChat(t, &fakeCompleter{})
		chat.clientFor = func(string) (providers.Completer, error) {
			return nil, context.DeadlineExceeded
		}

		err := chat.Send(t.Context(), composer.TextMessage{Text: "hi"})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Empty(t, chat.History())
	})

	t.Run("rejects concurrent sends", func(t *testing.T) {
		release := make(chan struct{})
		fake := &fakeCompleter{
			complete: func(ctx context.Context, _ providers.CompletionRequest) (string, error) {
				select {
				case <-release:
				case <-ctx.Done():
				}
				return "done", nil
			},
		}
		chat := newTestChat(t, fake)
		events := chat.Subscribe(t.Context())

		require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "first"}))
		err := chat.Send(t.Context(), composer.TextMessage{Text: "second"})
		require.ErrorContains(t, err, "already streaming")

		close(release)
		nextMessage(t, events) // first user turn
		nextMessage(t, events) // its reply

		require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "third"}))
	})
}

func TestChatStreamingCallback(t *testing.T) {
	fake := &fakeCompleter{}
	chat := newTestChat(t, fake)
	events := chat.Subscribe(t.Context())

	var mu sync.Mutex
	var toggles []bool
	chat.OnStreaming(func(on bool) {
		mu.Lock()
		toggles = append(toggles, on)
		mu.Unlock()
	})

	require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "hi"}))
	nextMessage(t, events)
	nextMessage(t, events)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{true, false}, toggles)
}

func TestChatCancel(t *testing.T) {
	fake := &fakeCompleter{
		complete: func(ctx context.Context, _ providers.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	chat := newTestChat(t, fake)
	events := chat.Subscribe(t.Context())

	require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "take your time"}))
	nextMessage(t, events)

	chat.Cancel()

	reply := nextMessage(t, events)
	require.Equal(t, RoleAssistant, reply.Role)
	require.Equal(t, "response cancelled", reply.Err)
	require.Empty(t, reply.Text)
}

func TestChatCompletionFailureLandsInTranscript(t *testing.T) {
	fake := &fakeCompleter{
		complete: func(context.Context, providers.CompletionRequest) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	chat := newTestChat(t, fake)
	events := chat.Subscribe(t.Context())

	require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "hi"}))
	nextMessage(t, events)

	reply := nextMessage(t, events)
	require.Equal(t, RoleAssistant, reply.Role)
	require.Contains(t, reply.Err, "deadline exceeded")
}

func TestChatPromptCarriesTranscript(t *testing.T) {
	replies := []string{"hi", "still here"}
	fake := &fakeCompleter{}
	fake.complete = func(context.Context, providers.CompletionRequest) (string, error) {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return replies[len(fake.requests)-1], nil
	}
	chat := newTestChat(t, fake)
	events := chat.Subscribe(t.Context())

	require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "hello"}))
	nextMessage(t, events)
	nextMessage(t, events)

	require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "again"}))
	nextMessage(t, events)
	nextMessage(t, events)

	req := fake.lastRequest(t)
	require.Equal(t, "gpt-4o", req.Model)
	require.NotEmpty(t, req.System)
	require.Equal(t, "User: hello\n\nAssistant: hi\n\nUser: again\n\nAssistant:", req.Prompt)
}

func TestChatPromptSkipsFailedTurns(t *testing.T) {
	fake := &fakeCompleter{}
	fail := true
	fake.complete = func(context.Context, providers.CompletionRequest) (string, error) {
		if fail {
			fail = false
			return "", context.DeadlineExceeded
		}
		return "recovered", nil
	}
	chat := newTestChat(t, fake)
	events := chat.Subscribe(t.Context())

	require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "first"}))
	nextMessage(t, events)
	nextMessage(t, events)

	require.NoError(t, chat.Send(t.Context(), composer.TextMessage{Text: "second"}))
	nextMessage(t, events)
	nextMessage(t, events)

	req := fake.lastRequest(t)
	require.Equal(t, "User: first\n\nUser: second\n\nAssistant:", req.Prompt)
}
