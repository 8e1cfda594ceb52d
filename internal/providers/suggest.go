package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/config"
)

const (
	maxSuggestions  = 4
	maxPromptNotes  = 10
	maxLabelRunes   = 32
	suggestionSpec  = `Respond with a JSON array of exactly four objects, each with "label" (five words at most), "prompt" (one or two sentences addressed to the assistant) and "category" (one of "summarize", "analyze", "create", "explore"). Respond with JSON only, no commentary.`
	suggestionIntro = "You suggest starter prompts for a personal note-taking assistant. "
)

// Suggester generates suggested prompts with whichever provider the
// composer is currently pointed at.
type Suggester struct {
	notes     composer.NoteIndex
	clientFor func(providerID string) (Completer, error)
}

// NewSuggester builds the prompt service. notes may be nil; the
// suggestions are then not anchored to the vault.
func NewSuggester(cfg *config.Config, notes composer.NoteIndex) *Suggester {
	return &Suggester{
		notes: notes,
		clientFor: func(providerID string) (Completer, error) {
			return ForModel(cfg, providerID)
		},
	}
}

func (s *Suggester) SuggestPrompts(ctx context.Context, pc composer.PromptContext) ([]composer.SuggestedPrompt, error) {
	client, err := s.clientFor(pc.Provider)
	if err != nil {
		return nil, err
	}
	out, err := client.Complete(ctx, CompletionRequest{
		Model:  pc.Model,
		System: suggestionIntro + suggestionSpec,
		Prompt: s.buildPrompt(),
	})
	if err != nil {
		return nil, err
	}
	prompts := parseSuggestions(out)
	if len(prompts) == 0 {
		return nil, errors.New("no usable suggestions in model output")
	}
	return prompts, nil
}

func (s *Suggester) buildPrompt() string {
	var b strings.Builder
	b.WriteString("Write four fresh suggestions for what the user could ask next.")
	if s.notes == nil {
		return b.String()
	}
	refs := s.notes.List()
	if len(refs) == 0 {
		return b.String()
	}
	b.WriteString(" Their most recent notes:\n")
	for i, ref := range refs {
		if i == maxPromptNotes {
			break
		}
		fmt.Fprintf(&b, "- %s\n", ref.Title)
	}
	return b.String()
}

// parseSuggestions pulls prompts out of a model response. It accepts
// a bare array, an object with a "prompts" array, and fenced or
// chatty wrappers around either.
func parseSuggestions(raw string) []composer.SuggestedPrompt {
	payload := extractJSON(raw)
	if payload == "" {
		return nil
	}
	items := gjson.Parse(payload)
	if items.IsObject() {
		items = items.Get("prompts")
	}
	if !items.IsArray() {
		return nil
	}

	var out []composer.SuggestedPrompt
	items.ForEach(func(_, item gjson.Result) bool {
		prompt := strings.TrimSpace(item.Get("prompt").String())
		if prompt == "" {
			return true
		}
		label := strings.TrimSpace(item.Get("label").String())
		if label == "" {
			label = truncateLabel(prompt)
		}
		out = append(out, composer.SuggestedPrompt{
			ID:       uuid.NewString(),
			Label:    label,
			Prompt:   prompt,
			Category: normalizeCategory(item.Get("category").String()),
		})
		return len(out) < maxSuggestions
	})
	return out
}

// extractJSON strips code fences and leading prose so gjson sees the
// payload itself.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "```"); i >= 0 {
		rest := raw[i+3:]
		if j := strings.IndexByte(rest, '\n'); j >= 0 {
			rest = rest[j+1:]
		}
		if k := strings.Index(rest, "```"); k >= 0 {
			rest = rest[:k]
		}
		raw = strings.TrimSpace(rest)
	}
	start := strings.IndexAny(raw, "[{")
	if start < 0 {
		return ""
	}
	return raw[start:]
}

func normalizeCategory(raw string) composer.PromptCategory {
	switch composer.PromptCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case composer.PromptSummarize:
		return composer.PromptSummarize
	case composer.PromptAnalyze:
		return composer.PromptAnalyze
	case composer.PromptCreate:
		return composer.PromptCreate
	default:
		return composer.PromptExplore
	}
}

func truncateLabel(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= maxLabelRunes {
		return prompt
	}
	return strings.TrimSpace(string(runes[:maxLabelRunes])) + "…"
}
