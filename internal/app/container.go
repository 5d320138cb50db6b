// Package app wires configuration, logging and the stock handlers into
// runnable agents.
package app

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/aki/tailbox/internal/core/agent"
	"github.com/aki/tailbox/internal/core/behavior"
	"github.com/aki/tailbox/internal/core/config"
	"github.com/aki/tailbox/internal/core/logger"
)

// Container holds the loaded configuration and shared dependencies
type Container struct {
	ConfigManager *config.Manager
	Config        *config.Config
	Logger        logger.Logger
	// Out receives keyword filter matches
	Out io.Writer
}

// NewContainer loads the configuration at configPath
func NewContainer(configPath string, log logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.Nop()
	}
	c := &Container{
		ConfigManager: config.NewManager(configPath),
		Logger:        log,
		Out:           os.Stdout,
	}

	cfg, err := c.ConfigManager.Load()
	if err != nil {
		return nil, err
	}
	c.Config = cfg
	return c, nil
}

// AgentNames returns the configured agent names in sorted order
func (c *Container) AgentNames() []string {
	names := make([]string, 0, len(c.Config.Agents))
	for name := range c.Config.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runtime is an agent built from configuration together with the stock
// handlers attached to it.
type Runtime struct {
	Name      string
	Agent     *agent.Agent
	Generator *behavior.Generator
	Filter    *behavior.KeywordFilter
}

// BuildAgent creates the named agent and registers its configured handlers
func (c *Container) BuildAgent(name string) (*Runtime, error) {
	ac, err := c.Config.Agent(name)
	if err != nil {
		return nil, err
	}
	return Build(name, ac, c.Logger, c.Out)
}

// Build creates an agent from ac. Filter matches go to out.
func Build(name string, ac config.Agent, log logger.Logger, out io.Writer) (*Runtime, error) {
	if log == nil {
		log = logger.Nop()
	}
	opts := []agent.Option{
		agent.WithLogger(log.With("name", name)),
		agent.WithPollInterval(ac.PollInterval),
	}
	if ac.LockOutbox {
		opts = append(opts, agent.WithOutboxLock(0))
	}

	rt := &Runtime{
		Name:  name,
		Agent: agent.New(ac.Inbox, ac.Outbox, opts...),
	}

	if ac.Filter != nil {
		rt.Filter = behavior.NewKeywordFilter(ac.Filter.Keyword, out)
		if err := rt.Agent.RegisterMessageHandler(rt.Filter); err != nil {
			return nil, fmt.Errorf("failed to register filter: %w", err)
		}
	}

	if ac.Generator != nil {
		rt.Generator = behavior.NewGenerator()
		if len(ac.Generator.Words) > 0 {
			rt.Generator.Words = ac.Generator.Words
		}
		if ac.Generator.Interval > 0 {
			rt.Generator.Interval = ac.Generator.Interval
		}
		if err := rt.Agent.RegisterStateHandler(rt.Generator); err != nil {
			return nil, fmt.Errorf("failed to register generator: %w", err)
		}
	}

	return rt, nil
}
