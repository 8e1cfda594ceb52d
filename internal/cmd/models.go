package cmd

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"charm.land/lipgloss/v2/tree"
	"github.com/MakeNowJust/heredoc"
	"github.com/mattn/go-isatty"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models [query]",
	Short: "List available models from configured providers",
	Long: heredoc.Doc(`
		List available models from configured providers, grouped by
		provider. With a query, models are fuzzy-matched against
		"provider/model".
	`),
	Example: `# List all available models
quill models

# Fuzzy-search models
quill models gpt4o`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupConfig(cmd)
		if err != nil {
			return err
		}

		if !cfg.IsConfigured() {
			return fmt.Errorf("no providers configured - set an API key (e.g. OPENAI_API_KEY) and try again")
		}

		var candidates []string
		for providerID, provider := range cfg.Providers {
			if provider.Disable {
				continue
			}
			for _, model := range provider.Models {
				candidates = append(candidates, providerID+"/"+model.ID)
			}
		}
		sort.Strings(candidates)

		if term := strings.Join(args, " "); term != "" {
			matches := fuzzy.Find(term, candidates)
			candidates = candidates[:0]
			for _, match := range matches {
				candidates = append(candidates, match.Str)
			}
		}
		if len(candidates) == 0 {
			return fmt.Errorf("no models found matching %q", strings.Join(args, " "))
		}

		if !isatty.IsTerminal(os.Stdout.Fd()) {
			for _, c := range candidates {
				fmt.Println(c)
			}
			return nil
		}

		var providerIDs []string
		providerModels := make(map[string][]string)
		for _, c := range candidates {
			providerID, modelID, _ := strings.Cut(c, "/")
			if !slices.Contains(providerIDs, providerID) {
				providerIDs = append(providerIDs, providerID)
			}
			providerModels[providerID] = append(providerModels[providerID], modelID)
		}

		t := tree.New()
		for _, providerID := range providerIDs {
			providerNode := tree.Root(providerID)
			for _, modelID := range providerModels[providerID] {
				providerNode.Child(modelID)
			}
			t.Child(providerNode)
		}

		cmd.Println(t)
		return nil
	},
}
