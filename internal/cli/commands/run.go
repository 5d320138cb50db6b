package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aki/tailbox/internal/app"
	"github.com/aki/tailbox/internal/cli/ui"
)

func newRunCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <agent>",
		Short: "Run one configured agent",
		Long: `Run one agent from the configuration until interrupted.

The agent tails its inbox and runs its generator, if any. Keyword filter
matches are printed to standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := newContainer(cmd, global)
			if err != nil {
				return err
			}

			rt, err := buildRuntime(cmd, container, args[0])
			if err != nil {
				return err
			}

			return runAgents(cmd, []*app.Runtime{rt})
		},
	}
}

// newContainer loads the configuration with a logger built from the
// global flags. Filter matches go to the command's output.
func newContainer(cmd *cobra.Command, global *globalOptions) (*app.Container, error) {
	log, err := createLogger(global, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	container, err := app.NewContainer(global.configPath, log)
	if err != nil {
		return nil, err
	}
	container.Out = cmd.OutOrStdout()
	return container, nil
}

// buildRuntime builds the named agent and tags its filter matches with
// the agent name.
func buildRuntime(cmd *cobra.Command, container *app.Container, name string) (*app.Runtime, error) {
	rt, err := container.BuildAgent(name)
	if err != nil {
		return nil, err
	}
	if rt.Filter != nil {
		rt.Filter.Out = &ui.MatchWriter{Name: rt.Name, W: cmd.OutOrStdout()}
	}
	return rt, nil
}

// agentResult is what Start returned for one runtime
type agentResult struct {
	rt  *app.Runtime
	err error
}

// runAgents starts every runtime and blocks until the command context is
// cancelled or one agent fails. All agents are stopped before returning.
func runAgents(cmd *cobra.Command, runtimes []*app.Runtime) error {
	out := cmd.OutOrStdout()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	results := make(chan agentResult, len(runtimes))
	for _, rt := range runtimes {
		ui.Info(out, "%s %s: %s -> %s", ui.AgentIcon, rt.Name, rt.Agent.InboxPath(), rt.Agent.OutboxPath())
		go func() {
			results <- agentResult{rt: rt, err: rt.Agent.Start(ctx)}
		}()
	}

	var runErr error
	for range runtimes {
		res := <-results
		if res.err != nil && ctx.Err() == nil {
			ui.Error(out, "%s failed: %v", res.rt.Name, res.err)
			runErr = fmt.Errorf("agent %s: %w", res.rt.Name, res.err)
			cancel()
		}
	}

	// A failed agent returns before its remaining tasks unwind.
	cancel()
	for _, rt := range runtimes {
		rt.Agent.Wait()
	}

	printSummary(cmd, runtimes)
	return runErr
}

func printSummary(cmd *cobra.Command, runtimes []*app.Runtime) {
	out := cmd.OutOrStdout()
	for _, rt := range runtimes {
		ui.OutputLine(out, "%s %s %s %s", ui.AgentIcon, ui.BoldStyle.Render(rt.Name),
			ui.DimStyle.Render(rt.Agent.ID()), string(rt.Agent.Status()))
		if err := rt.Agent.InboxErr(); err != nil {
			ui.Warning(out, "%s inbox stopped: %v", rt.Name, err)
		}
		ui.OutputLine(out, "   delivered: %d", rt.Agent.Delivered())
		if rt.Filter != nil {
			ui.OutputLine(out, "   %q matches: %d", rt.Filter.Keyword, rt.Filter.Count())
		}
	}
}
