package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Cluster.CheckInterval.Std())
	assert.Equal(t, 100, cfg.Cluster.HistorySize)
	assert.Equal(t, time.Second, cfg.Failover.CatchupThreshold.Std())
	assert.Equal(t, 30*time.Second, cfg.Failover.CatchupTimeout.Std())
	assert.Equal(t, 2*time.Second, cfg.Failover.PollInterval.Std())
	assert.Equal(t, 15*time.Minute, cfg.Failover.RTOTarget.Std())
	assert.Equal(t, 5*time.Minute, cfg.Failover.RPOTarget.Std())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  log_level: debug
cluster:
  check_interval: 250ms
  nodes:
    - name: primary
      host: db1.internal
      port: 5432
      user: postgres
      database: app
      primary: true
    - name: standby-1
      host: db2.internal
      port: 5432
      user: postgres
      database: app
failover:
  catchup_timeout: 45
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Cluster.CheckInterval.Std())

	// Numeric durations are read as seconds.
	assert.Equal(t, 45*time.Second, cfg.Failover.CatchupTimeout.Std())

	// Untouched fields keep their defaults.
	assert.Equal(t, time.Second, cfg.Failover.CatchupThreshold.Std())
	assert.Equal(t, 100, cfg.Cluster.HistorySize)

	require.Len(t, cfg.Cluster.Nodes, 2)
	assert.True(t, cfg.Cluster.Nodes[0].Primary)
	assert.Equal(t, "db2.internal", cfg.Cluster.Nodes[1].Host)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
cluster:
  check_interval: fast
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SENTINEL_PORT", "7070")
	t.Setenv("SENTINEL_LOG_LEVEL", "debug")
	t.Setenv("SENTINEL_CHECK_INTERVAL", "10s")
	t.Setenv("SENTINEL_CATCHUP_TIMEOUT", "1m")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Cluster.CheckInterval.Std())
	assert.Equal(t, time.Minute, cfg.Failover.CatchupTimeout.Std())
}

func TestLoadFromEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv("SENTINEL_PORT", "not-a-port")
	t.Setenv("SENTINEL_CHECK_INTERVAL", "whenever")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Cluster.CheckInterval.Std())
}

func TestValidate(t *testing.T) {
	node := func(name, host string, primary bool) NodeConfig {
		return NodeConfig{Name: name, Host: host, Port: 5432, User: "postgres", Database: "app", Primary: primary}
	}

	tests := []struct {
		name    string
		nodes   []NodeConfig
		wantErr string
	}{
		{
			name:    "no nodes",
			nodes:   nil,
			wantErr: "at least one node",
		},
		{
			name:    "duplicate names",
			nodes:   []NodeConfig{node("a", "h1", true), node("a", "h2", false)},
			wantErr: "duplicate node name",
		},
		{
			name:    "missing host",
			nodes:   []NodeConfig{node("a", "", true)},
			wantErr: "has no host",
		},
		{
			name:    "no primary",
			nodes:   []NodeConfig{node("a", "h1", false), node("b", "h2", false)},
			wantErr: "exactly one primary",
		},
		{
			name:    "two primaries",
			nodes:   []NodeConfig{node("a", "h1", true), node("b", "h2", true)},
			wantErr: "exactly one primary",
		},
		{
			name:  "valid",
			nodes: []NodeConfig{node("a", "h1", true), node("b", "h2", false)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Cluster.Nodes = tt.nodes

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("SENTINEL_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnvOrDefault("SENTINEL_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("SENTINEL_TEST_UNSET_KEY", "fallback"))
}
