package providers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charmbracelet/quill/internal/composer"
)

type fakeCompleter struct {
	out string
	err error
	got CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.got = req
	return f.out, f.err
}

type staticNotes []composer.NoteRef

func (s staticNotes) List() []composer.NoteRef { return s }

const cleanPayload = `[
	{"label": "Summarize this week", "prompt": "Summarize what I wrote this week.", "category": "summarize"},
	{"label": "Find connections", "prompt": "What themes connect my recent notes?", "category": "analyze"},
	{"label": "Draft outline", "prompt": "Draft an outline for my project note.", "category": "create"},
	{"label": "Open threads", "prompt": "Which notes mention unfinished tasks?", "category": "explore"}
]`

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "bare array", raw: cleanPayload, want: 4},
		{name: "fenced", raw: "```json\n" + cleanPayload + "\n```", want: 4},
		{name: "fence without language", raw: "```\n" + cleanPayload + "\n```", want: 4},
		{name: "object wrapper", raw: `{"prompts": ` + cleanPayload + `}`, want: 4},
		{name: "chatty preamble", raw: "Sure! Here are some ideas:\n\n" + cleanPayload, want: 4},
		{name: "no json", raw: "I cannot help with that.", want: 0},
		{name: "empty", raw: "", want: 0},
		{name: "wrong shape", raw: `{"answer": 42}`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSuggestions(tt.raw)
			require.Len(t, got, tt.want)
		})
	}
}

func TestParseSuggestionsFields(t *testing.T) {
	got := parseSuggestions(cleanPayload)
	require.Len(t, got, 4)
	require.Equal(t, "Summarize this week", got[0].Label)
	require.Equal(t, "Summarize what I wrote this week.", got[0].Prompt)
	require.Equal(t, composer.PromptSummarize, got[0].Category)
	require.Equal(t, composer.PromptAnalyze, got[1].Category)
	require.Equal(t, composer.PromptCreate, got[2].Category)
	require.Equal(t, composer.PromptExplore, got[3].Category)
	for _, p := range got {
		require.NotEmpty(t, p.ID)
	}
}

func TestParseSuggestionsTolerance(t *testing.T) {
	raw := `[
		{"prompt": "", "category": "summarize"},
		{"prompt": "This prompt is certainly longer than thirty-two runes in total.", "category": "weird"},
		{"label": "Fine", "prompt": "Short one.", "category": "CREATE"}
	]`
	got := parseSuggestions(raw)
	require.Len(t, got, 2)

	require.True(t, strings.HasSuffix(got[0].Label, "…"))
	require.Equal(t, composer.PromptExplore, got[0].Category)

	require.Equal(t, "Fine", got[1].Label)
	require.Equal(t, composer.PromptCreate, got[1].Category)
}

func TestParseSuggestionsCapsAtFour(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 6; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"label": "L", "prompt": "P", "category": "create"}`)
	}
	b.WriteString("]")
	require.Len(t, parseSuggestions(b.String()), maxSuggestions)
}

func TestSuggestPrompts(t *testing.T) {
	fc := &fakeCompleter{out: cleanPayload}
	s := &Suggester{
		notes: staticNotes{{ID: "n1", Title: "Weekly Plan"}, {ID: "n2", Title: "Reading List"}},
		clientFor: func(providerID string) (Completer, error) {
			require.Equal(t, "openai", providerID)
			return fc, nil
		},
	}

	got, err := s.SuggestPrompts(context.Background(), composer.PromptContext{Provider: "openai", Model: "gpt-4o"})
	require.NoError(t, err)
	require.Len(t, got, 4)

	require.Equal(t, "gpt-4o", fc.got.Model)
	require.Contains(t, fc.got.System, "JSON array")
	require.Contains(t, fc.got.Prompt, "Weekly Plan")
	require.Contains(t, fc.got.Prompt, "Reading List")
}

func TestSuggestPromptsErrors(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		s := &Suggester{clientFor: func(string) (Completer, error) {
			return &fakeCompleter{err: errors.New("boom")}, nil
		}}
		_, err := s.SuggestPrompts(context.Background(), composer.PromptContext{Provider: "openai"})
		require.ErrorContains(t, err, "boom")
	})

	t.Run("no client", func(t *testing.T) {
		s := &Suggester{clientFor: func(string) (Completer, error) {
			return nil, errors.New("not configured")
		}}
		_, err := s.SuggestPrompts(context.Background(), composer.PromptContext{Provider: "nope"})
		require.ErrorContains(t, err, "not configured")
	})

	t.Run("unusable output", func(t *testing.T) {
		s := &Suggester{clientFor: func(string) (Completer, error) {
			return &fakeCompleter{out: "no json here"}, nil
		}}
		_, err := s.SuggestPrompts(context.Background(), composer.PromptContext{Provider: "openai"})
		require.ErrorContains(t, err, "no usable suggestions")
	})
}

func TestBuildPromptWithoutNotes(t *testing.T) {
	s := &Suggester{}
	require.NotContains(t, s.buildPrompt(), "recent notes")

	s.notes = staticNotes{}
	require.NotContains(t, s.buildPrompt(), "recent notes")
}
