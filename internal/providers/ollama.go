package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

const defaultOllamaHost = "http://localhost:11434"

type ollamaClient struct {
	client *ollama.Client
}

func newOllamaClient(baseURL string) (*ollamaClient, error) {
	if baseURL == "" {
		baseURL = defaultOllamaHost
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", baseURL, err)
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	return &ollamaClient{client: ollama.NewClient(u, httpClient)}, nil
}

func (o *ollamaClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var text strings.Builder
	greq := &ollama.GenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.System,
	}
	err := o.client.Generate(ctx, greq, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama completion failed: %w", err)
	}
	return text.String(), nil
}
