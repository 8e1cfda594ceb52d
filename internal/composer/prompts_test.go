package composer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePromptService struct {
	calls   atomic.Int32
	prompts []SuggestedPrompt
	err     error
	entered chan struct{}
	release chan struct{}
	gotCtx  PromptContext
}

func (f *fakePromptService) SuggestPrompts(ctx context.Context, pc PromptContext) ([]SuggestedPrompt, error) {
	f.calls.Add(1)
	f.gotCtx = pc
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	return f.prompts, f.err
}

type fakePromptStore struct {
	mu    sync.Mutex
	entry PromptEntry
	ok    bool
	saved []PromptEntry
	err   error
}

func (f *fakePromptStore) Load() (PromptEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entry, f.ok
}

func (f *fakePromptStore) Save(entry PromptEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, entry)
	return f.err
}

func (f *fakePromptStore) savedEntries() []PromptEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PromptEntry(nil), f.saved...)
}

func generated() []SuggestedPrompt {
	return []SuggestedPrompt{
		{ID: "g1", Label: "Weekly recap", Prompt: "Summarize what I wrote this week.", Category: PromptSummarize},
		{ID: "g2", Label: "Compare drafts", Prompt: "Compare my two latest drafts.", Category: PromptAnalyze},
	}
}

func TestDefaultPromptsUntilGeneration(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{})
	prompts, generatedAt := c.Prompts()
	require.Len(t, prompts, 4)
	require.True(t, generatedAt.IsZero())

	seen := map[PromptCategory]bool{}
	for _, p := range prompts {
		seen[p.Category] = true
	}
	require.Len(t, seen, 4, "one default per category")
}

func TestCachedPromptsLoadedAtStart(t *testing.T) {
	t.Parallel()
	stamp := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &fakePromptStore{entry: PromptEntry{Prompts: generated(), Timestamp: stamp}, ok: true}
	c := newTestComposer(t, Options{PromptStore: store})

	prompts, generatedAt := c.Prompts()
	require.Equal(t, generated(), prompts)
	require.Equal(t, stamp, generatedAt)
}

func TestEmptyCacheEntryFallsBackToDefaults(t *testing.T) {
	t.Parallel()
	store := &fakePromptStore{entry: PromptEntry{}, ok: true}
	c := newTestComposer(t, Options{PromptStore: store})
	prompts, _ := c.Prompts()
	require.Len(t, prompts, 4)
}

func TestGeneratePromptsReplacesAndPersists(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := &fakePromptService{prompts: generated()}
	store := &fakePromptStore{}
	c := newTestComposer(t, Options{
		Prompts:     svc,
		PromptStore: store,
		Now:         func() time.Time { return now },
	})
	c.SetModel("openai", "gpt-4o")

	require.NoError(t, c.GeneratePrompts(t.Context()))

	prompts, generatedAt := c.Prompts()
	require.Equal(t, generated(), prompts)
	require.Equal(t, now, generatedAt)
	require.Empty(t, c.Snapshot().PromptsError)

	saved := store.savedEntries()
	require.Len(t, saved, 1)
	require.Equal(t, generated(), saved[0].Prompts)
	require.Equal(t, now, saved[0].Timestamp)

	require.Equal(t, PromptContext{Provider: "openai", Model: "gpt-4o"}, svc.gotCtx)
}

func TestGeneratePromptsFailureKeepsPrevious(t *testing.T) {
	t.Parallel()
	svc := &fakePromptService{err: errors.New("rate limited")}
	c := newTestComposer(t, Options{Prompts: svc})

	require.Error(t, c.GeneratePrompts(t.Context()))

	prompts, _ := c.Prompts()
	require.Len(t, prompts, 4, "defaults survive a failed refresh")
	require.Equal(t, "could not generate suggestions", c.Snapshot().PromptsError)
}

func TestGeneratePromptsEmptyResultIsFailure(t *testing.T) {
	t.Parallel()
	svc := &fakePromptService{}
	c := newTestComposer(t, Options{Prompts: svc})
	require.Error(t, c.GeneratePrompts(t.Context()))
	prompts, _ := c.Prompts()
	require.Len(t, prompts, 4)
}

func TestGeneratePromptsSingleFlight(t *testing.T) {
	t.Parallel()
	svc := &fakePromptService{
		prompts: generated(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := newTestComposer(t, Options{Prompts: svc})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.GeneratePrompts(context.Background())
	}()
	<-svc.entered

	go func() {
		time.Sleep(100 * time.Millisecond)
		close(svc.release)
	}()
	// Joins the in-flight request instead of issuing a second one.
	require.NoError(t, c.GeneratePrompts(context.Background()))
	wg.Wait()

	require.Equal(t, int32(1), svc.calls.Load(), "overlapping calls share one request")
	prompts, _ := c.Prompts()
	require.Equal(t, generated(), prompts)
}

func TestGeneratePromptsSaveFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	svc := &fakePromptService{prompts: generated()}
	store := &fakePromptStore{err: errors.New("disk full")}
	c := newTestComposer(t, Options{Prompts: svc, PromptStore: store})

	require.NoError(t, c.GeneratePrompts(t.Context()))
	prompts, _ := c.Prompts()
	require.Equal(t, generated(), prompts)
}

func TestUsePrompt(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{})
	c.TogglePrompts()
	require.True(t, c.Snapshot().PromptsOpen)

	p := SuggestedPrompt{ID: "g1", Prompt: "Summarize what I wrote this week."}
	c.UsePrompt(p)

	snap := c.Snapshot()
	require.Equal(t, p.Prompt, snap.Text)
	require.Equal(t, len(p.Prompt), snap.Cursor)
	require.False(t, snap.PromptsOpen)
}

func TestCanSuggestGating(t *testing.T) {
	t.Parallel()
	svc := &fakePromptService{prompts: generated()}
	caps := testCaps()
	c := newTestComposer(t, Options{Prompts: svc, Capabilities: caps})
	require.True(t, c.Snapshot().CanSuggest)

	c.SetText("draft", 5)
	require.False(t, c.Snapshot().CanSuggest, "suggestions only on an empty composition")
	c.SetText("", 0)

	c.SetModel("openai", "gpt-4o")
	c.AddFiles(pngFile("a.png", 10))
	require.False(t, c.Snapshot().CanSuggest, "attachments hide the panel")

	atts := c.Attachments()
	c.RemoveAttachment(atts[0].ID)
	require.True(t, c.Snapshot().CanSuggest)

	c.SetModel("openai", "dall-e-3")
	require.False(t, c.Snapshot().CanSuggest, "image mode has no suggestions")

	bare := newTestComposer(t, Options{})
	require.False(t, bare.Snapshot().CanSuggest, "no service wired")
}
