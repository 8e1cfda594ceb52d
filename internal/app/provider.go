package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/quill/internal/config"
)

type modelMatch struct {
	provider string
	modelID  string
}

// parseModelStr splits an optional provider prefix off a model
// string. Only a known provider id counts as a prefix, so model ids
// that themselves contain slashes survive intact.
func parseModelStr(providers map[string]config.ProviderConfig, modelStr string) (providerFilter, modelID string) {
	parts := strings.SplitN(modelStr, "/", 2)
	if len(parts) == 2 {
		if _, ok := providers[parts[0]]; ok {
			return parts[0], parts[1]
		}
	}
	return "", modelStr
}

// resolveModel finds the configured model the string names. It accepts
// "model-id" (searched across every provider) or "provider/model-id";
// matching is case-insensitive. Ambiguous names must be qualified.
func resolveModel(providers map[string]config.ProviderConfig, modelStr string) (modelMatch, error) {
	filter, modelID := parseModelStr(providers, modelStr)

	var matches []modelMatch
	for id, p := range providers {
		if filter != "" && id != filter {
			continue
		}
		for _, m := range p.Models {
			if strings.EqualFold(m.ID, modelID) {
				matches = append(matches, modelMatch{provider: id, modelID: m.ID})
			}
		}
	}

	switch len(matches) {
	case 0:
		return modelMatch{}, fmt.Errorf("model %q not found in any configured provider", modelStr)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.provider
		}
		slices.Sort(ids)
		return modelMatch{}, fmt.Errorf(
			"model %q is offered by multiple providers (%s); qualify it as provider/%s",
			modelStr, strings.Join(ids, ", "), modelID)
	}
}
