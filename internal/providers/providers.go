// Package providers adapts hosted model APIs to the narrow
// collaborator interfaces the composer consumes.
package providers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/catwalk/pkg/catwalk"

	"github.com/charmbracelet/quill/internal/config"
)

// CompletionRequest is a single-turn text request.
type CompletionRequest struct {
	Model  string
	System string
	Prompt string
}

// Completer performs one completion and returns the concatenated text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ForModel returns the completion client for a configured provider.
// Ollama is keyed by id since it speaks its own local API; everything
// else routes by catalog type.
func ForModel(cfg *config.Config, providerID string) (Completer, error) {
	pc, ok := cfg.Providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", providerID)
	}
	key := cfg.Resolve(pc.APIKey)
	if providerID == "ollama" {
		return newOllamaClient(pc.BaseURL)
	}
	switch pc.Type {
	case catwalk.TypeAnthropic:
		return newAnthropicClient(key, pc.BaseURL), nil
	case catwalk.TypeGemini:
		return newGeminiClient(key), nil
	case catwalk.TypeOpenAI, "":
		return newOpenAIClient(key, pc.BaseURL), nil
	default:
		return nil, fmt.Errorf("provider type %q is not supported for completions", pc.Type)
	}
}
