package models

import "github.com/charmbracelet/quill/internal/composer"

// imageRules caps image attachments per provider. Sizes and counts
// track the providers' published request limits.
var imageRules = map[string]composer.ImageRule{
	"anthropic": {
		MaxImages: 20,
		MaxBytes:  5 * 1024 * 1024,
		MIMETypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	},
	"openai": {
		MaxImages: 10,
		MaxBytes:  20 * 1024 * 1024,
		MIMETypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	},
	"gemini": {
		MaxImages: 16,
		MaxBytes:  20 * 1024 * 1024,
		MIMETypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/heic", "image/heif"},
	},
	"ollama": {
		MaxImages: 4,
		MaxBytes:  20 * 1024 * 1024,
		MIMETypes: []string{"image/jpeg", "image/png"},
	},
}

var defaultImageRule = composer.ImageRule{
	MaxImages: 5,
	MaxBytes:  5 * 1024 * 1024,
	MIMETypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
}

// imageModels is the image-generation model table. Selecting one of
// these switches the composer into image-generation mode.
var imageModels = map[string]composer.ImageModelInfo{
	"dall-e-2": {
		ID:          "dall-e-2",
		Name:        "DALL-E 2",
		Sizes:       []string{"256x256", "512x512", "1024x1024"},
		DefaultSize: "1024x1024",
		Description: "Fast, lower-cost image generation.",
	},
	"dall-e-3": {
		ID:              "dall-e-3",
		Name:            "DALL-E 3",
		Sizes:           []string{"1024x1024", "1792x1024", "1024x1792"},
		DefaultSize:     "1024x1024",
		SupportsQuality: true,
		QualityOptions:  []string{"standard", "hd"},
		SupportsStyle:   true,
		StyleOptions:    []string{"vivid", "natural"},
		Description:     "High-quality generation with automatic prompt expansion.",
	},
	"gpt-image-1": {
		ID:              "gpt-image-1",
		Name:            "GPT Image 1",
		Sizes:           []string{"1024x1024", "1536x1024", "1024x1536"},
		DefaultSize:     "1024x1024",
		SupportsQuality: true,
		QualityOptions:  []string{"low", "medium", "high"},
		Description:     "Latest image model with stronger instruction following.",
	},
}

// ImageModelIDs lists the known image-generation models.
func ImageModelIDs() []string {
	ids := make([]string, 0, len(imageModels))
	for id := range imageModels {
		ids = append(ids, id)
	}
	return ids
}
