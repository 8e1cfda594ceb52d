package cmd

import (
	"fmt"
	"os"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/quill/internal/cache"
	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/notes"
	"github.com/charmbracelet/quill/internal/providers"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var promptsRefresh bool

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Show suggested prompts for your vault",
	Long: heredoc.Doc(`
		Show the cached AI-suggested prompts for the current vault.
		With --refresh, ask the configured model for a fresh set first.
	`),
	Example: `
# Show cached suggestions
quill prompts

# Generate a fresh set
quill prompts --refresh
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store := cache.New[composer.PromptEntry](cfg.CacheDir(), "prompts")
		entry, ok := store.Load()

		if promptsRefresh || !ok {
			provider, model := cfg.Model()
			if provider == "" || model == "" {
				return fmt.Errorf("no default model configured - run 'quill models' and pick one")
			}

			noteSvc, err := notes.New(ctx, notes.Options{
				Vault:   cfg.Options.NotesDir,
				DataDir: cfg.Options.DataDir,
			})
			if err != nil {
				return err
			}
			defer func() { _ = noteSvc.Close() }()
			if err := noteSvc.Reindex(ctx); err != nil {
				return err
			}

			suggester := providers.NewSuggester(cfg, noteSvc)
			prompts, err := suggester.SuggestPrompts(ctx, composer.PromptContext{
				Provider: provider,
				Model:    model,
			})
			if err != nil {
				return fmt.Errorf("failed to generate prompts: %w", err)
			}
			entry = composer.PromptEntry{Prompts: prompts, Timestamp: time.Now()}
			if err := store.Save(entry); err != nil {
				return fmt.Errorf("failed to cache prompts: %w", err)
			}
		}

		if len(entry.Prompts) == 0 {
			cmd.Println("No suggestions yet. Run 'quill prompts --refresh' to generate some.")
			return nil
		}

		if !isatty.IsTerminal(os.Stdout.Fd()) {
			for _, p := range entry.Prompts {
				fmt.Printf("[%s] %s\t%s\n", p.Category, p.Label, p.Prompt)
			}
			return nil
		}

		categoryStyle := lipgloss.NewStyle().Foreground(charmtone.Squid)
		labelStyle := lipgloss.NewStyle().Foreground(charmtone.Dolly).Bold(true)
		promptStyle := lipgloss.NewStyle().Foreground(charmtone.Ash).MarginLeft(2)
		footerStyle := lipgloss.NewStyle().Foreground(charmtone.Oyster)

		cmd.Println()
		for _, p := range entry.Prompts {
			cmd.Printf("%s %s\n", labelStyle.Render(p.Label), categoryStyle.Render(string(p.Category)))
			cmd.Println(promptStyle.Render(p.Prompt))
			cmd.Println()
		}
		cmd.Println(footerStyle.Render("Generated " + humanize.Time(entry.Timestamp)))
		return nil
	},
}

func init() {
	promptsCmd.Flags().BoolVar(&promptsRefresh, "refresh", false, "Generate a fresh suggestion set")
}
