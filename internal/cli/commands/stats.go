package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/cli/ui"
	"github.com/aki/tailbox/internal/core/behavior"
	"github.com/aki/tailbox/internal/filemanager"
)

// FileStats summarises one message file
type FileStats struct {
	Path    string `json:"path"`
	Lines   int    `json:"lines"`
	Keyword string `json:"keyword,omitempty"`
	Matches int    `json:"matches"`
}

// CollectStats counts complete lines in path and those containing keyword
// as a whole word. An empty keyword matches nothing.
func CollectStats(path, keyword string) (FileStats, error) {
	lines, err := filemanager.ReadLines(path)
	if err != nil {
		return FileStats{}, err
	}

	s := FileStats{Path: path, Lines: len(lines), Keyword: keyword}
	if keyword == "" {
		return s, nil
	}
	for _, line := range lines {
		if behavior.ContainsWord(line, keyword) {
			s.Matches++
		}
	}
	return s, nil
}

func newStatsCmd() *cobra.Command {
	var (
		keyword string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "stats <file...>",
		Short: "Count messages in files",
		Long: `Count the complete lines in each file and how many contain a keyword.

Use this after a run to check that a keyword filter's count matches the
number of messages physically written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ui.ParseFormat(format)
			if err != nil {
				return err
			}

			stats := make([]FileStats, 0, len(args))
			for _, path := range args {
				s, err := CollectStats(path, keyword)
				if err != nil {
					return err
				}
				stats = append(stats, s)
			}

			out := cmd.OutOrStdout()
			if f == ui.FormatJSON {
				return ui.WriteJSON(out, stats)
			}

			ui.PrintSectionHeader(out, ui.FileIcon, "Files", len(stats))
			tbl := ui.NewTable(out, "PATH", "LINES", "KEYWORD", "MATCHES")
			for _, s := range stats {
				kw := s.Keyword
				if kw == "" {
					kw = "-"
				}
				tbl.AddRow(s.Path, s.Lines, kw, s.Matches)
			}
			tbl.Print()
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "hello", "Word to count")
	cmd.Flags().StringVar(&format, "format", "pretty", "Output format (pretty, json)")
	return cmd
}
