package config

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/charmbracelet/catwalk/pkg/embedded"
	"github.com/charmbracelet/quill/internal/cache"
)

const (
	defaultCatwalkURL   = "https://catwalk.charm.sh"
	providersNamespace  = "providers"
	catwalkFetchTimeout = 45 * time.Second
)

var (
	providerOnce sync.Once
	providerList []catwalk.Provider
)

// Providers returns the model catalog. The first call resolves it from
// the local cache or the catwalk service, falling back to the embedded
// copy; later calls reuse the result.
func Providers(cfg *Config) []catwalk.Provider {
	providerOnce.Do(func() {
		providerList = loadProviders(cfg)
	})
	return providerList
}

func loadProviders(cfg *Config) []catwalk.Provider {
	store := cache.New[[]catwalk.Provider](cfg.CacheDir(), providersNamespace)

	if cached, ok := store.Load(); ok && len(cached) > 0 {
		if !cfg.Options.DisableProviderAutoUpdate {
			go refreshProviders(store)
		}
		return cached
	}

	ctx, cancel := context.WithTimeout(context.Background(), catwalkFetchTimeout)
	defer cancel()
	providers, err := catwalkClient().GetProviders(ctx, "")
	if err != nil || len(providers) == 0 {
		slog.Warn("Failed to fetch provider catalog, using embedded copy", "error", err)
		return embedded.GetAll()
	}
	if err := store.Save(providers); err != nil {
		slog.Warn("Failed to cache provider catalog", "error", err)
	}
	return providers
}

// refreshProviders updates the cached catalog in the background so the
// next start picks up new models without blocking this one.
func refreshProviders(store *cache.Cache[[]catwalk.Provider]) {
	ctx, cancel := context.WithTimeout(context.Background(), catwalkFetchTimeout)
	defer cancel()
	providers, err := catwalkClient().GetProviders(ctx, "")
	if err != nil || len(providers) == 0 {
		slog.Debug("Provider catalog refresh failed", "error", err)
		return
	}
	if err := store.Save(providers); err != nil {
		slog.Warn("Failed to cache provider catalog", "error", err)
	}
}

// UpdateProviders replaces the cached catalog from the given source:
// the special name "embedded", an http(s) URL, or a local file path.
// An empty source uses the default catwalk service.
func UpdateProviders(cfg *Config, pathOrURL string) error {
	var providers []catwalk.Provider

	switch {
	case pathOrURL == "embedded":
		providers = embedded.GetAll()
	case strings.HasPrefix(pathOrURL, "http://"), strings.HasPrefix(pathOrURL, "https://"), pathOrURL == "":
		url := cmp.Or(pathOrURL, cmp.Or(os.Getenv("CATWALK_URL"), defaultCatwalkURL))
		ctx, cancel := context.WithTimeout(context.Background(), catwalkFetchTimeout)
		defer cancel()
		var err error
		providers, err = catwalk.NewWithURL(url).GetProviders(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to fetch providers from %s: %w", url, err)
		}
	default:
		data, err := os.ReadFile(pathOrURL)
		if err != nil {
			return fmt.Errorf("failed to read providers file: %w", err)
		}
		if err := json.Unmarshal(data, &providers); err != nil {
			return fmt.Errorf("failed to parse providers file: %w", err)
		}
	}

	if len(providers) == 0 {
		return errors.New("no providers found in source")
	}

	store := cache.New[[]catwalk.Provider](cfg.CacheDir(), providersNamespace)
	if err := store.Save(providers); err != nil {
		return fmt.Errorf("failed to cache providers: %w", err)
	}
	slog.Info("Updated provider catalog", "providers", len(providers))
	return nil
}

func catwalkClient() *catwalk.Client {
	return catwalk.NewWithURL(cmp.Or(os.Getenv("CATWALK_URL"), defaultCatwalkURL))
}
