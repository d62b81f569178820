package config

import (
	"time"

	"github.com/snaprune/snaprune/internal/policy"
)

type Config struct {
	ZFS          ZFSConfig       `yaml:"zfs"`
	Schedule     ScheduleConfig  `yaml:"schedule"`
	Retention    RetentionConfig `yaml:"retention"`
	Logging      LoggingConfig   `yaml:"logging"`
	Metrics      MetricsConfig   `yaml:"metrics"`
	ConfigReload ReloadConfig    `yaml:"configReload"`
}

type ZFSConfig struct {
	Path                 string   `yaml:"path"`                 // zfs binary, default /sbin/zfs
	Datasets             []string `yaml:"datasets"`             // explicit targets
	Discover             bool     `yaml:"discover"`             // discover targets by property instead
	AutoSnapshotProperty string   `yaml:"autoSnapshotProperty"` // default com.sun:auto-snapshot
	SnapshotFormat       string   `yaml:"snapshotFormat"`       // snapshot suffix time layout
}

type ScheduleConfig struct {
	Cron string `yaml:"cron"` // default "@hourly"
}

type RetentionConfig struct {
	Rules []RetentionRule `yaml:"rules"`
}

type RetentionRule struct {
	Period Duration `yaml:"period"`
	Keep   int      `yaml:"keep"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text"
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // default ":9465"
}

type ReloadConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Method         string   `yaml:"method"` // "fsnotify", "poll"
	PollInterval   Duration `yaml:"pollInterval"`
	DebounceWindow Duration `yaml:"debounceWindow"`
}

// Policy converts the retention section into a validated policy. An
// empty rule list means the built-in default tier table.
func (c *Config) Policy() (policy.Policy, error) {
	if len(c.Retention.Rules) == 0 {
		return policy.Default(), nil
	}
	rules := make([]policy.Rule, len(c.Retention.Rules))
	for i, r := range c.Retention.Rules {
		rules[i] = policy.Rule{Period: time.Duration(r.Period), Keep: r.Keep}
	}
	return policy.New(rules)
}
