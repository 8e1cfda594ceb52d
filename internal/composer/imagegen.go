package composer

import (
	"context"
	"slices"
	"strings"
)

// ImageSettings holds the per-session image-generation settings.
// Quality and Style persist across model switches and are simply
// omitted from requests when the active model has no such knob.
type ImageSettings struct {
	Size    string
	Quality string
	Style   string
}

// ImageModelInfo describes an image-generation model. Selecting a
// model with a profile switches the composer into image-generation
// mode.
type ImageModelInfo struct {
	ID              string
	Name            string
	Sizes           []string
	DefaultSize     string
	SupportsQuality bool
	QualityOptions  []string
	SupportsStyle   bool
	StyleOptions    []string
	Description     string
}

// ImageRequest is the outbound generation command.
type ImageRequest struct {
	Prompt  string
	Model   string
	Size    string
	Quality string
	Style   string
}

// ImageGenerator performs a generation request, returning a
// human-readable error on failure.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) error
}

// SetImageSize picks a generation size. Sizes the active model does
// not offer are ignored.
func (c *Composer) SetImageSize(size string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imageModel == nil || !allowedOption(c.imageModel.Sizes, size) {
		return
	}
	c.settings.Size = size
	c.publishLocked()
}

// SetImageQuality picks a quality level for models that support one.
func (c *Composer) SetImageQuality(quality string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imageModel == nil || !c.imageModel.SupportsQuality ||
		!allowedOption(c.imageModel.QualityOptions, quality) {
		return
	}
	c.settings.Quality = quality
	c.publishLocked()
}

// SetImageStyle picks a style for models that support one.
func (c *Composer) SetImageStyle(style string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imageModel == nil || !c.imageModel.SupportsStyle ||
		!allowedOption(c.imageModel.StyleOptions, style) {
		return
	}
	c.settings.Style = style
	c.publishLocked()
}

// Generating reports whether a generation is in flight.
func (c *Composer) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// Generate dispatches one image-generation request. It requires a
// non-empty trimmed prompt and a wired generator; otherwise, and
// while a generation is already in flight, it is a silent no-op. On
// success the text buffer is cleared; on failure it is kept and
// GenError carries the message. The outbound call is detached from
// ctx: generation cannot be cancelled once dispatched.
func (c *Composer) Generate(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" || c.generator == nil {
		return nil
	}
	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return nil
	}
	c.generating = true
	c.genErr = ""
	req := ImageRequest{
		Prompt: prompt,
		Model:  c.model,
		Size:   c.settings.Size,
	}
	if c.imageModel != nil {
		if c.imageModel.SupportsQuality {
			req.Quality = c.settings.Quality
		}
		if c.imageModel.SupportsStyle {
			req.Style = c.settings.Style
		}
	}
	c.publishLocked()
	c.mu.Unlock()

	err := c.generator.GenerateImage(context.WithoutCancel(ctx), req)

	c.mu.Lock()
	c.generating = false
	if err != nil {
		c.genErr = err.Error()
	} else {
		c.text = ""
		c.cursor = 0
		c.detectMentionLocked()
	}
	c.publishLocked()
	c.mu.Unlock()
	return err
}

func allowedOption(opts []string, v string) bool {
	if len(opts) == 0 {
		return true
	}
	return slices.Contains(opts, v)
}
