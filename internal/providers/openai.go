package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/config"
)

type openAIClient struct {
	client openai.Client
}

func newOpenAIClient(apiKey, baseURL string) *openAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIClient{client: openai.NewClient(opts...)}
}

func (o *openAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// ImageClient generates images through the OpenAI Images API and
// saves them under the data directory.
type ImageClient struct {
	client openai.Client
	outDir string
	now    func() time.Time
}

// NewImageClient requires a configured openai provider.
func NewImageClient(cfg *config.Config) (*ImageClient, error) {
	pc, ok := cfg.Providers["openai"]
	if !ok {
		return nil, errors.New("openai provider is not configured")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.Resolve(pc.APIKey))}
	if pc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(pc.BaseURL))
	}
	return &ImageClient{
		client: openai.NewClient(opts...),
		outDir: filepath.Join(cfg.Options.DataDir, "images"),
		now:    time.Now,
	}, nil
}

func (ic *ImageClient) GenerateImage(ctx context.Context, req composer.ImageRequest) error {
	res, err := ic.client.Images.Generate(ctx, imageParams(req))
	if err != nil {
		return fmt.Errorf("image generation failed: %w", err)
	}
	if len(res.Data) == 0 {
		return errors.New("image generation returned no data")
	}
	data, err := base64.StdEncoding.DecodeString(res.Data[0].B64JSON)
	if err != nil {
		return fmt.Errorf("failed to decode image payload: %w", err)
	}
	if err := os.MkdirAll(ic.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	path := filepath.Join(ic.outDir, fmt.Sprintf("%s-%s.png", req.Model, ic.now().Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	slog.Info("Generated image", "model", req.Model, "path", path)
	return nil
}

// imageParams maps a composer request onto the API params. Unset
// knobs stay off the wire, and gpt-image-1 rejects response_format so
// it is only sent to the dall-e models.
func imageParams(req composer.ImageRequest) openai.ImageGenerateParams {
	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(req.Model),
	}
	if req.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(req.Size)
	}
	if req.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(req.Quality)
	}
	if req.Style != "" {
		params.Style = openai.ImageGenerateParamsStyle(req.Style)
	}
	if req.Model != string(openai.ImageModelGPTImage1) {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}
	return params
}
