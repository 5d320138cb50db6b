package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SaveLoadDefault(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, ConfigFile))
	assert.False(t, m.Exists())

	require.NoError(t, m.Save(DefaultConfig()))
	assert.True(t, m.Exists())

	cfg, err := m.Load()
	require.NoError(t, err)

	alice, err := cfg.Agent("alice")
	require.NoError(t, err)
	bob, err := cfg.Agent("bob")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "inbox.txt"), alice.Inbox)
	assert.Equal(t, filepath.Join(dir, "outbox.txt"), alice.Outbox)
	assert.Equal(t, alice.Outbox, bob.Inbox)
	assert.Equal(t, alice.Inbox, bob.Outbox)
	assert.Equal(t, 100*time.Millisecond, alice.PollInterval)
	require.NotNil(t, bob.Generator)
	assert.Equal(t, 2*time.Second, bob.Generator.Interval)
	require.NotNil(t, bob.Filter)
	assert.Equal(t, "hello", bob.Filter.Keyword)
	assert.Nil(t, alice.Filter)

	_, err = cfg.Agent("carol")
	assert.Error(t, err)
}

func TestManager_LoadMissing(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), ConfigFile))
	_, err := m.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tailbox init")
}

func TestManager_LoadAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	content := "agents:\n  solo:\n    inbox: /var/spool/in.txt\n    outbox: out.txt\n    generator:\n      interval: 500ms\n      words: [alpha, beta]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := NewManager(path).Load()
	require.NoError(t, err)

	solo := cfg.Agents["solo"]
	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "/var/spool/in.txt", solo.Inbox)
	assert.Equal(t, filepath.Join(dir, "out.txt"), solo.Outbox)
	assert.Equal(t, 500*time.Millisecond, solo.Generator.Interval)
	assert.Equal(t, []string{"alpha", "beta"}, solo.Generator.Words)
	assert.Zero(t, solo.PollInterval)
}

func TestValidateYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "minimal",
			yaml: "agents:\n  a:\n    inbox: in\n    outbox: out\n",
		},
		{
			name:    "no agents",
			yaml:    "version: \"1.0\"\n",
			wantErr: true,
		},
		{
			name:    "missing outbox",
			yaml:    "agents:\n  a:\n    inbox: in\n",
			wantErr: true,
		},
		{
			name:    "unknown field",
			yaml:    "agents:\n  a:\n    inbox: in\n    outbox: out\n    color: red\n",
			wantErr: true,
		},
		{
			name:    "bad duration",
			yaml:    "agents:\n  a:\n    inbox: in\n    outbox: out\n    pollInterval: soon\n",
			wantErr: true,
		},
		{
			name:    "keyword with spaces",
			yaml:    "agents:\n  a:\n    inbox: in\n    outbox: out\n    filter:\n      keyword: two words\n",
			wantErr: true,
		},
		{
			name: "full agent",
			yaml: "agents:\n  a:\n    inbox: in\n    outbox: out\n    pollInterval: 50ms\n    lockOutbox: true\n    generator:\n      interval: 1m0s\n      words: [x, y]\n    filter:\n      keyword: x\n",
		},
		{
			name:    "not yaml",
			yaml:    "agents: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYAML([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		errMsg string
	}{
		{name: "nil config", config: nil, errMsg: "config is nil"},
		{name: "no agents", config: &Config{}, errMsg: "no agents configured"},
		{
			name:   "same file both ways",
			config: &Config{Agents: map[string]Agent{"a": {Inbox: "x.txt", Outbox: "./x.txt"}}},
			errMsg: "inbox and outbox must differ",
		},
		{
			name: "two readers on one inbox",
			config: &Config{Agents: map[string]Agent{
				"a": {Inbox: "in.txt", Outbox: "a.txt"},
				"b": {Inbox: "in.txt", Outbox: "b.txt"},
			}},
			errMsg: "read the same inbox",
		},
		{
			name:   "negative poll interval",
			config: &Config{Agents: map[string]Agent{"a": {Inbox: "in", Outbox: "out", PollInterval: -time.Second}}},
			errMsg: "pollInterval",
		},
		{
			name:   "empty keyword",
			config: &Config{Agents: map[string]Agent{"a": {Inbox: "in", Outbox: "out", Filter: &FilterConfig{}}}},
			errMsg: "filter keyword is required",
		},
		{name: "default", config: DefaultConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
