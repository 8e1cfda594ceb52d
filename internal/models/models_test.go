package models

import (
	"testing"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog([]catwalk.Provider{
		{
			ID:   "openai",
			Name: "OpenAI",
			Models: []catwalk.Model{
				{ID: "gpt-4o", Name: "GPT-4o", SupportsImages: true},
				{ID: "gpt-4o-mini", Name: "GPT-4o Mini", SupportsImages: true},
				{ID: "dall-e-3", Name: "DALL-E 3"},
			},
		},
		{
			ID:   "anthropic",
			Name: "Anthropic",
			Models: []catwalk.Model{
				{ID: "claude-sonnet-4-5", Name: "Claude Sonnet 4.5", SupportsImages: true},
				{ID: "claude-haiku", Name: "Claude Haiku"},
			},
		},
	})
}

func TestCatalogLookups(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	p, ok := c.Provider("openai")
	require.True(t, ok)
	require.Equal(t, "OpenAI", p.Name)

	_, ok = c.Provider("missing")
	require.False(t, ok)

	m, ok := c.Model("anthropic", "claude-haiku")
	require.True(t, ok)
	require.Equal(t, "Claude Haiku", m.Name)

	_, ok = c.Model("anthropic", "gpt-4o")
	require.False(t, ok, "models do not leak across providers")
}

func TestSupportsVision(t *testing.T) {
	t.Parallel()
	c := testCatalog()
	require.True(t, c.SupportsVision("openai", "gpt-4o"))
	require.False(t, c.SupportsVision("anthropic", "claude-haiku"))
	require.False(t, c.SupportsVision("missing", "gpt-4o"))
}

func TestImageRules(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	rule := c.ImageRule("anthropic")
	require.Equal(t, 20, rule.MaxImages)
	require.Equal(t, int64(5*1024*1024), rule.MaxBytes)
	require.Contains(t, rule.MIMETypes, "image/webp")

	fallback := c.ImageRule("unknown-provider")
	require.Equal(t, 5, fallback.MaxImages)
}

func TestImageModelTable(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	info, ok := c.ImageModel("openai", "dall-e-3")
	require.True(t, ok)
	require.Equal(t, "1024x1024", info.DefaultSize)
	require.ElementsMatch(t, []string{"1024x1024", "1792x1024", "1024x1792"}, info.Sizes)
	require.True(t, info.SupportsQuality)
	require.Equal(t, []string{"standard", "hd"}, info.QualityOptions)
	require.True(t, info.SupportsStyle)

	info, ok = c.ImageModel("openai", "dall-e-2")
	require.True(t, ok)
	require.False(t, info.SupportsQuality)
	require.False(t, info.SupportsStyle)

	info, ok = c.ImageModel("openai", "gpt-image-1")
	require.True(t, ok)
	require.True(t, info.SupportsQuality)
	require.False(t, info.SupportsStyle)

	_, ok = c.ImageModel("openai", "gpt-4o")
	require.False(t, ok)

	require.Len(t, ImageModelIDs(), 3)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	c := testCatalog()

	all := c.Search("")
	require.Len(t, all, 5)
	require.Equal(t, "gpt-4o", all[0].Model.ID, "catalog order for an empty query")

	hits := c.Search("sonnet")
	require.NotEmpty(t, hits)
	require.Equal(t, "claude-sonnet-4-5", hits[0].Model.ID)

	require.Empty(t, c.Search("no-such-model-xyz"))
}
