// Package app wires the composer to its collaborators and manages
// application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/charmbracelet/quill/internal/cache"
	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/config"
	"github.com/charmbracelet/quill/internal/event"
	"github.com/charmbracelet/quill/internal/log"
	"github.com/charmbracelet/quill/internal/models"
	"github.com/charmbracelet/quill/internal/notes"
	"github.com/charmbracelet/quill/internal/providers"
	"github.com/charmbracelet/quill/internal/pubsub"
)

type App struct {
	Composer *composer.Composer
	Notes    notes.Service
	Catalog  *models.Catalog
	Chat     *Chat

	config *config.Config

	serviceEventsWG *sync.WaitGroup
	eventsCtx       context.Context
	events          chan tea.Msg
	tuiWG           *sync.WaitGroup

	// global context and cleanup functions
	globalCtx    context.Context
	cleanupFuncs []func() error
}

// New initializes a new application instance.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	catalog := models.NewCatalog(config.Providers(cfg))

	noteSvc, err := notes.New(ctx, notes.Options{
		Vault:   cfg.Options.NotesDir,
		DataDir: cfg.Options.DataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open note index: %w", err)
	}

	chat := NewChat(cfg)

	var generator composer.ImageGenerator
	if ic, err := providers.NewImageClient(cfg); err == nil {
		generator = ic
	} else {
		slog.Warn("Image generation unavailable", "error", err)
	}

	comp := composer.New(composer.Options{
		Notes:        noteSvc,
		Capabilities: catalog,
		Sender:       chat,
		Canceler:     chat,
		Generator:    generator,
		Prompts:      providers.NewSuggester(cfg, noteSvc),
		PromptStore:  cache.New[composer.PromptEntry](cfg.CacheDir(), "prompts"),
	})
	chat.OnStreaming(comp.SetStreaming)

	app := &App{
		Composer: comp,
		Notes:    noteSvc,
		Catalog:  catalog,
		Chat:     chat,

		config: cfg,

		globalCtx: ctx,

		events:          make(chan tea.Msg, 100),
		serviceEventsWG: &sync.WaitGroup{},
		tuiWG:           &sync.WaitGroup{},
	}

	if provider, model := cfg.Model(); provider != "" && model != "" {
		comp.SetModel(provider, model)
		chat.SetModel(provider, model)
	} else {
		slog.Warn("No default model configured")
	}

	app.setupEvents()

	// Sync the vault in the background; mentions serve the persisted
	// snapshot until the rescan lands.
	go func() {
		if err := noteSvc.Reindex(ctx); err != nil {
			if !errors.Is(err, notes.ErrClosed) && !errors.Is(err, context.Canceled) {
				slog.Error("Initial vault reindex failed", "error", err)
			}
			return
		}
		event.VaultIndexed(len(noteSvc.List()))
		if err := noteSvc.Watch(ctx); err != nil && !errors.Is(err, notes.ErrClosed) {
			slog.Error("Vault watcher failed to start", "error", err)
		}
	}()

	app.cleanupFuncs = append(app.cleanupFuncs,
		noteSvc.Close,
		func() error { chat.Close(); return nil },
		func() error { comp.Close(); return nil },
	)
	return app, nil
}

// Config returns the application configuration.
func (app *App) Config() *config.Config {
	return app.config
}

// SetModel switches the active model for the composer and the chat
// relay and persists the choice. modelStr accepts "model-id" or
// "provider/model-id".
func (app *App) SetModel(modelStr string) error {
	match, err := resolveModel(app.config.Providers, modelStr)
	if err != nil {
		return err
	}

	app.Composer.SetModel(match.provider, match.modelID)
	app.Chat.SetModel(match.provider, match.modelID)

	if err := app.config.SetValue("default_provider", match.provider); err != nil {
		return fmt.Errorf("failed to persist provider choice: %w", err)
	}
	if err := app.config.SetValue("default_model", match.modelID); err != nil {
		return fmt.Errorf("failed to persist model choice: %w", err)
	}
	slog.Info("Switched model", "provider", match.provider, "model", match.modelID)
	return nil
}

func (app *App) setupEvents() {
	ctx, cancel := context.WithCancel(app.globalCtx)
	app.eventsCtx = ctx
	setupSubscriber(ctx, app.serviceEventsWG, "composer", app.Composer.Subscribe, app.events)
	setupSubscriber(ctx, app.serviceEventsWG, "notes", app.Notes.Subscribe, app.events)
	setupSubscriber(ctx, app.serviceEventsWG, "chat", app.Chat.Subscribe, app.events)
	cleanupFunc := func() error {
		cancel()
		app.serviceEventsWG.Wait()
		return nil
	}
	app.cleanupFuncs = append(app.cleanupFuncs, cleanupFunc)
}

func setupSubscriber[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	subscriber func(context.Context) <-chan pubsub.Event[T],
	outputCh chan<- tea.Msg,
) {
	wg.Go(func() {
		subCh := subscriber(ctx)
		for {
			select {
			case event, ok := <-subCh:
				if !ok {
					slog.Debug("subscription channel closed", "name", name)
					return
				}
				var msg tea.Msg = event
				select {
				case outputCh <- msg:
				case <-time.After(2 * time.Second):
					slog.Warn("message dropped due to slow consumer", "name", name)
				case <-ctx.Done():
					slog.Debug("subscription cancelled", "name", name)
					return
				}
			case <-ctx.Done():
				slog.Debug("subscription cancelled", "name", name)
				return
			}
		}
	})
}

// Subscribe sends events to the TUI as tea.Msgs.
func (app *App) Subscribe(program *tea.Program) {
	defer log.RecoverPanic("app.Subscribe", func() {
		slog.Info("TUI subscription panic: attempting graceful shutdown")
		program.Quit()
	})

	app.tuiWG.Add(1)
	tuiCtx, tuiCancel := context.WithCancel(app.globalCtx)
	app.cleanupFuncs = append(app.cleanupFuncs, func() error {
		slog.Debug("Cancelling TUI message handler")
		tuiCancel()
		app.tuiWG.Wait()
		return nil
	})
	defer app.tuiWG.Done()

	for {
		select {
		case <-tuiCtx.Done():
			slog.Debug("TUI message handler shutting down")
			return
		case msg, ok := <-app.events:
			if !ok {
				slog.Debug("TUI message channel closed")
				return
			}
			program.Send(msg)
		}
	}
}

// Shutdown performs a graceful shutdown of the application.
func (app *App) Shutdown() {
	start := time.Now()
	defer func() { slog.Info("Shutdown took " + time.Since(start).String()) }()

	// Stop any in-flight completion first so cleanup does not wait on
	// a slow provider.
	app.Chat.Cancel()

	var wg sync.WaitGroup
	for _, cleanup := range app.cleanupFuncs {
		if cleanup != nil {
			wg.Go(func() {
				if err := cleanup(); err != nil {
					slog.Error("Failed to cleanup app properly on shutdown", "error", err)
				}
			})
		}
	}
	wg.Wait()
}
