// Package config handles application configuration: JSON config files
// merged global-to-local, environment loading, and the provider
// catalog backing model capability lookups.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/joho/godotenv"
	"github.com/qjebbs/go-jsons"
	"github.com/tidwall/sjson"
)

const (
	appName        = "quill"
	configFileName = "quill.json"
)

// ProviderConfig holds per-provider settings. Providers hydrated from
// the catalog carry its models; file-configured providers may override
// endpoint and key.
type ProviderConfig struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name,omitempty"`
	BaseURL string          `json:"base_url,omitempty"`
	Type    catwalk.Type    `json:"type,omitempty"`
	APIKey  string          `json:"api_key,omitempty"`
	Disable bool            `json:"disable,omitempty"`
	Models  []catwalk.Model `json:"models,omitempty"`
}

// Options are general application options.
type Options struct {
	DataDir                   string `json:"data_dir,omitempty"`
	NotesDir                  string `json:"notes_dir,omitempty"`
	Debug                     bool   `json:"debug,omitempty"`
	DisableProviderAutoUpdate bool   `json:"disable_provider_auto_update,omitempty"`
	DisableAnalytics          bool   `json:"disable_analytics,omitempty"`
	DisableSmartPrompts       bool   `json:"disable_smart_prompts,omitempty"`
}

// Config is the resolved application configuration.
type Config struct {
	DefaultProvider string                    `json:"default_provider,omitempty"`
	DefaultModel    string                    `json:"default_model,omitempty"`
	Providers       map[string]ProviderConfig `json:"providers,omitempty"`
	Options         Options                   `json:"options"`

	workingDir string
	path       string
}

// Init loads configuration for the given working directory. A non-empty
// dataDir overrides the configured data directory; debug forces debug
// logging on.
func Init(cwd, dataDir string, debug bool) (*Config, error) {
	// Make API keys in .env files visible before expansion.
	for _, env := range []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(globalConfigDir(), ".env"),
	} {
		if err := godotenv.Load(env); err == nil {
			slog.Debug("Loaded environment file", "path", env)
		}
	}

	cfg, err := load(cwd)
	if err != nil {
		return nil, err
	}

	if dataDir != "" {
		cfg.Options.DataDir = dataDir
	}
	if debug {
		cfg.Options.Debug = true
	}
	cfg.workingDir = cwd

	if cfg.Options.DataDir == "" {
		cfg.Options.DataDir = filepath.Join(cwd, "."+appName)
	}
	if cfg.Options.NotesDir == "" {
		cfg.Options.NotesDir = cwd
	}

	cfg.hydrateProviders(Providers(cfg))
	return cfg, nil
}

// load reads and merges the global and project config files. Missing
// files are fine; a present but invalid file is an error.
func load(cwd string) (*Config, error) {
	paths := []string{
		filepath.Join(globalConfigDir(), configFileName),
		filepath.Join(cwd, "."+configFileName),
		filepath.Join(cwd, configFileName),
	}

	var sources [][]byte
	var lastPath string
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		sources = append(sources, data)
		lastPath = p
	}

	cfg := &Config{path: filepath.Join(cwd, configFileName)}
	if lastPath != "" {
		cfg.path = lastPath
	}
	if len(sources) == 0 {
		return cfg, nil
	}

	merged := sources[0]
	if len(sources) > 1 {
		var err error
		args := make([]any, len(sources))
		for i, s := range sources {
			args[i] = s
		}
		merged, err = jsons.Merge(args...)
		if err != nil {
			return nil, fmt.Errorf("failed to merge config files: %w", err)
		}
	}

	if err := json.Unmarshal(merged, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// hydrateProviders fills the provider map from the catalog, keeping
// any file-configured overrides. A provider is enabled when its API
// key resolves to a non-empty value, or has a configured endpoint that
// needs none (e.g. a local Ollama server).
func (c *Config) hydrateProviders(catalog []catwalk.Provider) {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	for _, p := range catalog {
		id := string(p.ID)
		pc, configured := c.Providers[id]
		if pc.Disable {
			continue
		}
		pc.ID = id
		if pc.Name == "" {
			pc.Name = p.Name
		}
		if pc.BaseURL == "" {
			pc.BaseURL = p.APIEndpoint
		}
		if pc.Type == "" {
			pc.Type = p.Type
		}
		if pc.APIKey == "" {
			pc.APIKey = p.APIKey
		}
		if len(pc.Models) == 0 {
			pc.Models = p.Models
		}
		if configured || c.Resolve(pc.APIKey) != "" || pc.APIKey == "" {
			c.Providers[id] = pc
		}
	}
	for id, pc := range c.Providers {
		if pc.Disable {
			delete(c.Providers, id)
		}
	}
}

// Resolve expands $VAR and ${VAR} references against the environment.
func (c *Config) Resolve(value string) string {
	if !strings.Contains(value, "$") {
		return value
	}
	return os.ExpandEnv(value)
}

// IsConfigured reports whether at least one provider is usable.
func (c *Config) IsConfigured() bool {
	for _, p := range c.Providers {
		if !p.Disable {
			return true
		}
	}
	return false
}

// Model returns the active provider and model, falling back to the
// first configured provider's default large model.
func (c *Config) Model() (provider, model string) {
	provider, model = c.DefaultProvider, c.DefaultModel
	if provider != "" && model != "" {
		return provider, model
	}
	for _, p := range Providers(c) {
		pc, ok := c.Providers[string(p.ID)]
		if !ok || pc.Disable {
			continue
		}
		if provider == "" {
			provider = string(p.ID)
		}
		if provider == string(p.ID) && model == "" {
			model = p.DefaultLargeModelID
		}
		if provider != "" && model != "" {
			return provider, model
		}
	}
	return provider, model
}

// SetValue writes a single value back to the active config file,
// preserving its formatting.
func (c *Config) SetValue(key, value string) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		data = []byte("{}\n")
	}
	updated, err := sjson.SetBytes(data, key, value)
	if err != nil {
		return fmt.Errorf("failed to update config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.path, updated, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// WorkingDir returns the directory the application was started in.
func (c *Config) WorkingDir() string { return c.workingDir }

// DataDir returns the data directory (logs, caches, the note index).
func (c *Config) DataDir() string { return c.Options.DataDir }

// CacheDir returns the directory for file-backed caches.
func (c *Config) CacheDir() string { return filepath.Join(c.Options.DataDir, "cache") }

// NotesDir returns the note vault location.
func (c *Config) NotesDir() string { return c.Options.NotesDir }

// Path returns the active config file location.
func (c *Config) Path() string { return c.path }

func globalConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, ".config", appName)
}
