package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// Load reads, expands, unmarshals and validates a config file. Bad
// retention rules fail here, before anything touches a snapshot.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "@hourly"
	}
	if c.ZFS.AutoSnapshotProperty == "" {
		c.ZFS.AutoSnapshotProperty = "com.sun:auto-snapshot"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9465"
	}
	if c.ConfigReload.Method == "" {
		c.ConfigReload.Method = "fsnotify"
	}
	if c.ConfigReload.PollInterval == 0 {
		c.ConfigReload.PollInterval = Duration(5 * time.Second)
	}
	if c.ConfigReload.DebounceWindow == 0 {
		c.ConfigReload.DebounceWindow = Duration(500 * time.Millisecond)
	}
}

func (c *Config) validate() error {
	if !c.ZFS.Discover && len(c.ZFS.Datasets) == 0 {
		return fmt.Errorf("no datasets configured and discovery is disabled")
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("retention config: %w", err)
	}
	return nil
}
