package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/app"
)

func newPairCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pair [agent...]",
		Short: "Run several configured agents in one process",
		Long: `Run agents from the configuration side by side until interrupted.

Without arguments every configured agent is started. With the default
configuration this runs alice and bob talking to each other through
inbox.txt and outbox.txt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := newContainer(cmd, global)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = container.AgentNames()
			}

			runtimes := make([]*app.Runtime, 0, len(names))
			for _, name := range names {
				rt, err := buildRuntime(cmd, container, name)
				if err != nil {
					return err
				}
				runtimes = append(runtimes, rt)
			}

			return runAgents(cmd, runtimes)
		},
	}
}
