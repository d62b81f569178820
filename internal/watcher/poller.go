package watcher

import (
	"context"
	"os"
	"time"
)

// startPolling reloads when the config file's mtime changes.
func (w *Watcher) startPolling(ctx context.Context) {
	var lastMod time.Time
	if info, err := os.Stat(w.path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				w.log.Error().Err(err).Msg("stat config file")
				continue
			}
			if info.ModTime().Equal(lastMod) {
				continue
			}
			lastMod = info.ModTime()
			w.Reload()
		}
	}
}
