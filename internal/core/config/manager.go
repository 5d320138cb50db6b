// Package config loads and saves tailbox configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the default configuration filename
const ConfigFile = "tailbox.yaml"

// Manager handles one configuration file
type Manager struct {
	configPath string
}

// NewManager creates a manager for the configuration file at path
func NewManager(path string) *Manager {
	return &Manager{
		configPath: path,
	}
}

// Load reads, validates and decodes the configuration. Relative inbox and
// outbox paths are resolved against the directory holding the file.
func (m *Manager) Load() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s (run 'tailbox init' first)", m.configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := ValidateYAML(data); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	m.resolvePaths(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to disk
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Exists reports whether the configuration file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}

// GetConfigPath returns the configuration file path
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Agent returns the named agent's configuration
func (c *Config) Agent(name string) (Agent, error) {
	a, ok := c.Agents[name]
	if !ok {
		return Agent{}, fmt.Errorf("agent '%s' is not configured", name)
	}
	return a, nil
}

func (m *Manager) resolvePaths(cfg *Config) {
	base := filepath.Dir(m.configPath)
	for name, a := range cfg.Agents {
		if !filepath.IsAbs(a.Inbox) {
			a.Inbox = filepath.Join(base, a.Inbox)
		}
		if !filepath.IsAbs(a.Outbox) {
			a.Outbox = filepath.Join(base, a.Outbox)
		}
		cfg.Agents[name] = a
	}
}

// applyDefaults applies default values to the configuration
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
}
