// Package commands implements the tailbox command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/core/config"
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	debug      bool
	quiet      bool
}

// NewRootCommand builds the full command tree
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "tailbox",
		Short: "File-based messaging agents",
		Long: `Tailbox runs agents that talk through plain text files.

Each agent tails an inbox file, hands every new line to its message
handlers, and runs state handlers that append messages to an outbox file.
Point one agent's outbox at another agent's inbox to wire them together.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.ConfigFile, "Path to the configuration file")
	registerLoggerFlags(rootCmd, opts)

	rootCmd.AddCommand(
		newInitCmd(opts),
		newRunCmd(opts),
		newPairCmd(opts),
		newSendCmd(opts),
		newTailCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
