package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/cli/ui"
)

// Version information - these will be set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display detailed version information about tailbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ui.ParseFormat(format)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f == ui.FormatJSON {
				return ui.WriteJSON(out, map[string]string{
					"version":   Version,
					"gitCommit": GitCommit,
					"buildDate": BuildDate,
					"goVersion": runtime.Version(),
					"os":        runtime.GOOS,
					"arch":      runtime.GOARCH,
				})
			}

			ui.OutputLine(out, "tailbox version %s", Version)
			ui.OutputLine(out, "  Git commit: %s", GitCommit)
			ui.OutputLine(out, "  Build date: %s", BuildDate)
			ui.OutputLine(out, "  Go version: %s", runtime.Version())
			ui.OutputLine(out, "  OS/Arch:    %s/%s", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "pretty", "Output format (pretty, json)")
	return cmd
}
