package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/quill/internal/config"
	"github.com/charmbracelet/quill/internal/log"
	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
)

var (
	logsFollow bool
	logsLines  int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the application logs",
	Long: heredoc.Doc(`
		Print the application log file. With --follow, keep the file
		open and stream new lines as sessions write them.
	`),
	Example: `
# Print the last 500 log lines
quill logs

# Stream logs from a running session
quill logs --follow
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		dataDir, _ := cmd.Flags().GetString("data-dir")
		cfg, err := config.Init(cwd, dataDir, false)
		if err != nil {
			return err
		}

		path := log.Path(cfg.Options.DataDir)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("no log file yet at %s - run 'quill' first", path)
		}

		if !logsFollow {
			return printLastLines(path, logsLines)
		}

		// Stream from the end of the file, surviving rotation.
		t, err := tail.TailFile(path, tail.Config{
			Follow: true,
			ReOpen: true,
			Location: &tail.SeekInfo{
				Offset: 0,
				Whence: io.SeekEnd,
			},
			Logger: tail.DiscardingLogger,
		})
		if err != nil {
			return err
		}
		defer func() { _ = t.Stop() }()

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case line, ok := <-t.Lines:
				if !ok {
					return nil
				}
				if line.Err != nil {
					return line.Err
				}
				fmt.Println(line.Text)
			}
		}
	},
}

func printLastLines(path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Stream new log lines")
	logsCmd.Flags().IntVarP(&logsLines, "tail", "t", 500, "Number of lines to show")
}
