// Package config holds the sentinel configuration: defaults in code,
// overridden by a YAML file, overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can say "5s" or a plain
// number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds float64
	if err := value.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration value %q", value.Value)
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Cluster  ClusterConfig  `yaml:"cluster"`
	Failover FailoverConfig `yaml:"failover"`
	Alerting AlertingConfig `yaml:"alerting"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

type ClusterConfig struct {
	CheckInterval Duration     `yaml:"check_interval"`
	HistorySize   int          `yaml:"history_size"`
	Nodes         []NodeConfig `yaml:"nodes"`
}

type NodeConfig struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Primary  bool   `yaml:"primary"`
}

type FailoverConfig struct {
	CatchupThreshold Duration `yaml:"catchup_threshold"`
	CatchupTimeout   Duration `yaml:"catchup_timeout"`
	PollInterval     Duration `yaml:"poll_interval"`
	RTOTarget        Duration `yaml:"rto_target"`
	RPOTarget        Duration `yaml:"rpo_target"`
}

type AlertingConfig struct {
	ThrottleInterval Duration `yaml:"throttle_interval"`
	Burst            int      `yaml:"burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			LogLevel: "info",
		},
		Cluster: ClusterConfig{
			CheckInterval: Duration(5 * time.Second),
			HistorySize:   100,
		},
		Failover: FailoverConfig{
			CatchupThreshold: Duration(1 * time.Second),
			CatchupTimeout:   Duration(30 * time.Second),
			PollInterval:     Duration(2 * time.Second),
			RTOTarget:        Duration(15 * time.Minute),
			RPOTarget:        Duration(5 * time.Minute),
		},
		Alerting: AlertingConfig{
			ThrottleInterval: Duration(30 * time.Second),
			Burst:            3,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the cluster definition.
func (c *Config) Validate() error {
	if len(c.Cluster.Nodes) == 0 {
		return errors.New("config: at least one node is required")
	}

	seen := make(map[string]bool)
	primaries := 0
	for _, n := range c.Cluster.Nodes {
		if n.Name == "" {
			return errors.New("config: every node needs a name")
		}
		if seen[n.Name] {
			return fmt.Errorf("config: duplicate node name %q", n.Name)
		}
		seen[n.Name] = true
		if n.Host == "" {
			return fmt.Errorf("config: node %q has no host", n.Name)
		}
		if n.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		return fmt.Errorf("config: exactly one primary required, got %d", primaries)
	}
	return nil
}
