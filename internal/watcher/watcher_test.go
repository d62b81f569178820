package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaprune/snaprune/internal/config"
)

func TestPollingReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("zfs:\n  datasets: [tank/data]\nlogging:\n  level: info\n"), 0o644))

	applied := make(chan *config.Config, 4)
	w := New(path, config.ReloadConfig{
		Method:       "poll",
		PollInterval: config.Duration(10 * time.Millisecond),
	}, func(c *config.Config) { applied <- c }, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("zfs:\n  datasets: [tank/data]\nlogging:\n  level: debug\n"), 0o644))
	// Force a visible mtime change regardless of filesystem resolution.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case cfg := <-applied:
		assert.Equal(t, "debug", cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not applied")
	}
}

func TestReloadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schedule: {cron: '@hourly'}\n"), 0o644)) // no datasets

	called := false
	w := New(path, config.ReloadConfig{}, func(*config.Config) { called = true }, zerolog.Nop())
	w.Reload()
	assert.False(t, called, "invalid config must not be applied")
}
