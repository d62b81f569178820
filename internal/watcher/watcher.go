// Package watcher reloads the config file when it changes on disk.
package watcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/snaprune/snaprune/internal/config"
)

// Watcher watches one config file and calls apply with every
// successfully reloaded config. A config that fails to load or
// validate is logged and ignored; the running config stays in effect.
type Watcher struct {
	path     string
	mode     string // "fsnotify", "poll"
	debounce time.Duration
	interval time.Duration
	apply    func(*config.Config)
	log      zerolog.Logger
}

func New(path string, rc config.ReloadConfig, apply func(*config.Config), log zerolog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		mode:     rc.Method,
		debounce: time.Duration(rc.DebounceWindow),
		interval: time.Duration(rc.PollInterval),
		apply:    apply,
		log:      log,
	}
}

// Start blocks until ctx is done. With mode "poll" it polls the file
// mtime; otherwise it uses fsnotify and falls back to polling if the
// watch cannot be established.
func (w *Watcher) Start(ctx context.Context) error {
	if w.mode == "poll" {
		w.startPolling(ctx)
		return nil
	}
	if err := w.startFsNotify(ctx); err != nil {
		w.log.Error().Err(err).Msg("fsnotify unavailable, falling back to polling")
		w.startPolling(ctx)
	}
	return nil
}

// Reload loads the config file and applies it.
func (w *Watcher) Reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		w.log.Error().Err(err).Msg("config reload failed")
		return
	}
	w.apply(cfg)
	w.log.Info().Str("path", w.path).Msg("config reloaded")
}
