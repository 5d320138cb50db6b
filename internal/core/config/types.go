package config

import (
	"time"

	"github.com/aki/tailbox/internal/core/behavior"
	"github.com/aki/tailbox/internal/core/tail"
)

// Config represents a tailbox configuration file
type Config struct {
	Version string           `yaml:"version"`
	Agents  map[string]Agent `yaml:"agents"`
}

// Agent describes one agent: its two files and the stock handlers to
// attach to it.
type Agent struct {
	Inbox        string           `yaml:"inbox"`
	Outbox       string           `yaml:"outbox"`
	PollInterval time.Duration    `yaml:"pollInterval,omitempty"`
	LockOutbox   bool             `yaml:"lockOutbox,omitempty"`
	Generator    *GeneratorConfig `yaml:"generator,omitempty"`
	Filter       *FilterConfig    `yaml:"filter,omitempty"`
}

// GeneratorConfig configures the random two-word message generator
type GeneratorConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	Words    []string      `yaml:"words,omitempty"`
}

// FilterConfig configures the keyword filter
type FilterConfig struct {
	Keyword string `yaml:"keyword"`
}

// DefaultConfig returns two agents wired into a loop: alice writes what
// bob reads and the other way round. Both generate messages; bob also
// filters for "hello".
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Agents: map[string]Agent{
			"alice": {
				Inbox:        "inbox.txt",
				Outbox:       "outbox.txt",
				PollInterval: tail.DefaultOptions().PollInterval,
				Generator: &GeneratorConfig{
					Interval: behavior.DefaultInterval,
				},
			},
			"bob": {
				Inbox:        "outbox.txt",
				Outbox:       "inbox.txt",
				PollInterval: tail.DefaultOptions().PollInterval,
				Generator: &GeneratorConfig{
					Interval: behavior.DefaultInterval,
				},
				Filter: &FilterConfig{
					Keyword: "hello",
				},
			},
		},
	}
}
