package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/quill/internal/notes"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Inspect the note index",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed notes",
	Long: heredoc.Doc(`
		List the notes currently in the index, newest first. The index
		is served as-is; run "quill notes reindex" first if the vault
		changed outside a running session.
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openNotes(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = svc.Close() }()

		all := svc.Notes()
		if len(all) == 0 {
			cmd.Println("No notes indexed yet. Run 'quill notes reindex'.")
			return nil
		}

		if !isatty.IsTerminal(os.Stdout.Fd()) {
			for _, n := range all {
				fmt.Printf("%s\t%s\t%s\n", n.ID, n.Title, n.Path)
			}
			return nil
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				return lipgloss.NewStyle().Padding(0, 2)
			}).
			Headers("Title", "Path", "Tags", "Modified")
		for _, n := range all {
			t.Row(n.Title, n.Path, strings.Join(n.Tags, ", "), humanize.Time(n.ModTime))
		}
		lipgloss.Println(t)
		return nil
	},
}

var notesReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rescan the vault and rebuild the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openNotes(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = svc.Close() }()

		start := time.Now()
		if err := svc.Reindex(cmd.Context()); err != nil {
			return err
		}
		cmd.Printf("Indexed %d notes in %s.\n", len(svc.Notes()), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func openNotes(cmd *cobra.Command) (notes.Service, error) {
	cfg, err := setupConfig(cmd)
	if err != nil {
		return nil, err
	}
	return notes.New(cmd.Context(), notes.Options{
		Vault:   cfg.Options.NotesDir,
		DataDir: cfg.Options.DataDir,
	})
}

func init() {
	notesCmd.AddCommand(notesListCmd, notesReindexCmd)
}
