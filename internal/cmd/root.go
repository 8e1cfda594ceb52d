package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/quill/internal/app"
	"github.com/charmbracelet/quill/internal/config"
	"github.com/charmbracelet/quill/internal/event"
	"github.com/charmbracelet/quill/internal/log"
	"github.com/charmbracelet/quill/internal/tui"
	"github.com/charmbracelet/quill/internal/version"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().StringP("data-dir", "D", "", "Custom quill data directory")
	rootCmd.PersistentFlags().String("vault", "", "Notes vault directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.Flags().BoolP("help", "h", false, "Help")

	rootCmd.AddCommand(
		modelsCmd,
		updateProvidersCmd,
		promptsCmd,
		notesCmd,
		logsCmd,
		schemaCmd,
	)
}

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Chat with your notes",
	Long:  "A terminal chat companion for your markdown vault, with note mentions, file attachments, and image generation",
	Example: `
# Run in interactive mode
quill

# Run with debug logging
quill -d

# Chat over a specific vault
quill --vault ~/notes

# Run with custom data directory
quill -D /path/to/custom/.quill

# Print version
quill -v

# List available models
quill models
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setupApp(cmd)
		if err != nil {
			return err
		}
		defer app.Shutdown()

		event.AppInitialized()

		var env uv.Environ = os.Environ()
		ui := tui.New(app)
		program := tea.NewProgram(
			ui,
			tea.WithEnvironment(env),
			tea.WithContext(cmd.Context()),
		)
		go app.Subscribe(program)

		if _, err := program.Run(); err != nil {
			event.Error(err)
			slog.Error("TUI run error", "error", err)
			return errors.New("Quill crashed. Please copy the stacktrace above and open an issue at https://github.com/charmbracelet/quill/issues/new")
		}
		return nil
	},
	PostRun: func(cmd *cobra.Command, args []string) {
		event.AppExited()
	},
}

var plume = lipgloss.NewStyle().Foreground(charmtone.Dolly).SetString(`
             ▄▄███▄
          ▄████████
        ▄█████████▀
      ▄█████████▀
     ███████████
    ███████████
   ██████████▀
  ▀████████▀
  ▀██████▀
 ▀▀███▀▀
 ▀▀▀
`)

// copied from cobra:
const defaultVersionTemplate = `{{with .DisplayName}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`

func Execute() {
	// Cobra has no hook for custom version rendering, so prepend the
	// colored wordmark to the version template through a colorprofile
	// writer pointed at a buffer.
	if term.IsTerminal(os.Stdout.Fd()) {
		var b bytes.Buffer
		w := colorprofile.NewWriter(os.Stdout, os.Environ())
		w.Forward = &b
		_, _ = w.WriteString(plume.String())
		rootCmd.SetVersionTemplate(b.String() + "\n" + defaultVersionTemplate)
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// setupApp handles the common setup logic for the interactive mode.
func setupApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := setupConfig(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	appInstance, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create app instance", "error", err)
		return nil, err
	}

	if shouldEnableAnalytics(cfg) {
		event.Init()
	}

	return appInstance, nil
}

// setupConfig resolves flags into a loaded configuration and points
// the logger at the data directory.
func setupConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	vault, _ := cmd.Flags().GetString("vault")

	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Init(cwd, dataDir, debug)
	if err != nil {
		return nil, err
	}
	if vault != "" {
		cfg.Options.NotesDir = vault
	}

	if err := createDataDir(cfg.Options.DataDir); err != nil {
		return nil, err
	}
	_ = log.Setup(cfg.Options.DataDir, cfg.Options.Debug)

	return cfg, nil
}

func shouldEnableAnalytics(cfg *config.Config) bool {
	if v, _ := strconv.ParseBool(os.Getenv("QUILL_DISABLE_ANALYTICS")); v {
		return false
	}
	if v, _ := strconv.ParseBool(os.Getenv("DO_NOT_TRACK")); v {
		return false
	}
	return !cfg.Options.DisableAnalytics
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}

func createDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %q %w", dir, err)
	}

	gitIgnorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitIgnorePath); os.IsNotExist(err) {
		if err := os.WriteFile(gitIgnorePath, []byte("*\n"), 0o644); err != nil {
			return fmt.Errorf("failed to create .gitignore file: %q %w", gitIgnorePath, err)
		}
	}

	return nil
}
