package composer

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// PromptCategory groups suggested prompts.
type PromptCategory string

const (
	PromptSummarize PromptCategory = "summarize"
	PromptAnalyze   PromptCategory = "analyze"
	PromptCreate    PromptCategory = "create"
	PromptExplore   PromptCategory = "explore"
)

// SuggestedPrompt is one AI-suggested follow-up.
type SuggestedPrompt struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Prompt   string         `json:"prompt"`
	Category PromptCategory `json:"category"`
}

// PromptContext scopes a generation request to the active model.
type PromptContext struct {
	Provider string
	Model    string
}

// PromptEntry is the persisted cache payload.
type PromptEntry struct {
	Prompts   []SuggestedPrompt `json:"prompts"`
	Timestamp time.Time         `json:"timestamp"`
}

// PromptService generates suggested prompts.
type PromptService interface {
	SuggestPrompts(ctx context.Context, pc PromptContext) ([]SuggestedPrompt, error)
}

// PromptStore persists generated prompts between sessions. A missing
// or corrupt entry is a miss; the static defaults cover it.
type PromptStore interface {
	Load() (PromptEntry, bool)
	Save(PromptEntry) error
}

// GeneratePrompts refreshes the suggestion set once; overlapping
// calls share the single in-flight request. On success the set is
// replaced and persisted; on failure the previous set is kept and
// PromptsError carries the advisory.
func (c *Composer) GeneratePrompts(ctx context.Context) error {
	if c.prompts == nil {
		return nil
	}
	c.mu.Lock()
	pc := PromptContext{Provider: c.provider, Model: c.model}
	c.mu.Unlock()

	_, err, _ := c.flight.Do("prompts", func() (any, error) {
		prompts, err := c.prompts.SuggestPrompts(ctx, pc)
		if err != nil || len(prompts) == 0 {
			if err == nil {
				err = errors.New("empty suggestion set")
			}
			c.mu.Lock()
			c.promptsErr = "could not generate suggestions"
			c.publishLocked()
			c.mu.Unlock()
			return nil, err
		}
		entry := PromptEntry{Prompts: prompts, Timestamp: c.now()}
		c.mu.Lock()
		c.suggested = prompts
		c.generatedAt = entry.Timestamp
		c.promptsErr = ""
		c.publishLocked()
		c.mu.Unlock()
		if c.store != nil {
			if err := c.store.Save(entry); err != nil {
				slog.Warn("Failed to persist suggested prompts", "error", err)
			}
		}
		return nil, nil
	})
	return err
}

// Prompts returns the current suggestion set and its generation time;
// a zero time means the static defaults are active.
func (c *Composer) Prompts() ([]SuggestedPrompt, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SuggestedPrompt, len(c.suggested))
	copy(out, c.suggested)
	return out, c.generatedAt
}

// UsePrompt loads a suggestion into the buffer and closes the panel.
func (c *Composer) UsePrompt(p SuggestedPrompt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = p.Prompt
	c.cursor = len(p.Prompt)
	c.promptsOpen = false
	c.detectMentionLocked()
	c.publishLocked()
}

func defaultPrompts() []SuggestedPrompt {
	return []SuggestedPrompt{
		{ID: "default-summarize", Label: "Summarize recent notes", Prompt: "Summarize the key points from my most recent notes.", Category: PromptSummarize},
		{ID: "default-analyze", Label: "Find connections", Prompt: "What connections exist between my recent notes?", Category: PromptAnalyze},
		{ID: "default-create", Label: "Draft an outline", Prompt: "Draft an outline for a new note based on what I have been writing about.", Category: PromptCreate},
		{ID: "default-explore", Label: "Explore related topics", Prompt: "Suggest related topics I should explore next.", Category: PromptExplore},
	}
}
