package cmd

import (
	"fmt"
	"log/slog"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/quill/internal/config"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/spf13/cobra"
)

var updateProvidersCmd = &cobra.Command{
	Use:   "update-providers [path-or-url]",
	Short: "Update the provider catalog",
	Long:  `Update the model catalog from a specified local path or remote URL.`,
	Example: `
# Update the catalog from the default service
quill update-providers

# Update the catalog from a custom URL
quill update-providers https://example.com/providers.json

# Update the catalog from a local file
quill update-providers /path/to/local-providers.json

# Restore the embedded catalog
quill update-providers embedded
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Keep log output off stdout.
		slog.SetDefault(slog.New(slog.DiscardHandler))

		var pathOrURL string
		if len(args) > 0 {
			pathOrURL = args[0]
		}

		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		dataDir, _ := cmd.Flags().GetString("data-dir")
		cfg, err := config.Init(cwd, dataDir, false)
		if err != nil {
			return err
		}

		if err := config.UpdateProviders(cfg, pathOrURL); err != nil {
			return err
		}

		// This style is more-or-less copied from Fang's error message,
		// adapted for success.
		headerStyle := lipgloss.NewStyle().
			Foreground(charmtone.Butter).
			Background(charmtone.Guac).
			Bold(true).
			Padding(0, 1).
			Margin(1).
			MarginLeft(2).
			SetString("SUCCESS")
		textStyle := lipgloss.NewStyle().
			MarginLeft(2).
			SetString("Provider catalog updated successfully.")

		fmt.Printf("%s\n%s\n\n", headerStyle.Render(), textStyle.Render())
		return nil
	},
}
