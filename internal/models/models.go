// Package models resolves model capabilities against the provider
// catalog: vision support, per-provider image attachment rules, and
// the image-generation model table.
package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/charmbracelet/quill/internal/composer"
	"github.com/sahilm/fuzzy"
)

// Catalog answers capability questions about the configured providers.
// It implements composer.CapabilityProvider.
type Catalog struct {
	providers []catwalk.Provider
}

// NewCatalog builds a catalog over the given providers. The slice is
// not copied; callers must not mutate it afterwards.
func NewCatalog(providers []catwalk.Provider) *Catalog {
	return &Catalog{providers: providers}
}

// Providers returns the backing provider list.
func (c *Catalog) Providers() []catwalk.Provider {
	return c.providers
}

// Provider looks up a provider by ID.
func (c *Catalog) Provider(id string) (catwalk.Provider, bool) {
	for _, p := range c.providers {
		if string(p.ID) == id {
			return p, true
		}
	}
	return catwalk.Provider{}, false
}

// Model looks up a model by provider and model ID.
func (c *Catalog) Model(providerID, modelID string) (catwalk.Model, bool) {
	p, ok := c.Provider(providerID)
	if !ok {
		return catwalk.Model{}, false
	}
	for _, m := range p.Models {
		if m.ID == modelID {
			return m, true
		}
	}
	return catwalk.Model{}, false
}

// SupportsVision reports whether the model accepts image input.
func (c *Catalog) SupportsVision(providerID, modelID string) bool {
	m, ok := c.Model(providerID, modelID)
	return ok && m.SupportsImages
}

// ImageRule returns the image attachment rule for a provider.
func (c *Catalog) ImageRule(providerID string) composer.ImageRule {
	if rule, ok := imageRules[providerID]; ok {
		return rule
	}
	return defaultImageRule
}

// ImageModel returns the image-generation profile when the model is a
// known image-generation model; the provider only needs to carry it.
func (c *Catalog) ImageModel(providerID, modelID string) (composer.ImageModelInfo, bool) {
	info, ok := imageModels[modelID]
	return info, ok
}

// Match is a fuzzy search hit over the catalog.
type Match struct {
	Provider catwalk.Provider
	Model    catwalk.Model
}

type modelSource []Match

func (s modelSource) String(i int) string {
	return fmt.Sprintf("%s/%s %s", s[i].Provider.ID, s[i].Model.ID, s[i].Model.Name)
}

func (s modelSource) Len() int { return len(s) }

// Search fuzzy-matches models across all providers. An empty query
// returns everything in catalog order.
func (c *Catalog) Search(query string) []Match {
	var all modelSource
	for _, p := range c.providers {
		for _, m := range p.Models {
			all = append(all, Match{Provider: p, Model: m})
		}
	}
	if strings.TrimSpace(query) == "" {
		return all
	}
	results := fuzzy.FindFrom(query, all)
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, all[r.Index])
	}
	return matches
}
