package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/cli/ui"
	"github.com/aki/tailbox/internal/core/config"
)

func newInitCmd(global *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration",
		Long: `Write a configuration with two agents wired into a loop.

alice reads inbox.txt and writes outbox.txt. bob reads outbox.txt, writes
inbox.txt and prints every message containing "hello".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := config.NewManager(global.configPath)
			if m.Exists() {
				if !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", m.GetConfigPath())
				}
				ui.Warning(cmd.OutOrStdout(), "Overwriting %s", m.GetConfigPath())
			}
			if err := m.Save(config.DefaultConfig()); err != nil {
				return err
			}
			ui.Success(cmd.OutOrStdout(), "Wrote %s", m.GetConfigPath())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")
	return cmd
}
