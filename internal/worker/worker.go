// Package worker executes per-dataset maintenance jobs: create a
// snapshot, then thin the dataset's snapshot set per the retention
// policy.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/snaprune/snaprune/internal/mailbox"
	"github.com/snaprune/snaprune/internal/metrics"
	"github.com/snaprune/snaprune/internal/policy"
	"github.com/snaprune/snaprune/internal/retention"
	"github.com/snaprune/snaprune/internal/zfs"
)

// Worker drains maintenance jobs from the mailbox. Datasets are
// independent snapshot domains; one worker handles them one at a
// time, so no two cleanups ever share a dataset.
type Worker struct {
	mu     sync.RWMutex
	pol    policy.Policy
	format string

	client *zfs.Client
	engine *retention.Engine
	mb     *mailbox.Mailbox[string, Job]
	dryRun bool
	log    zerolog.Logger
}

// New creates a worker. With dryRun set, no snapshot is created or
// destroyed; would-be deletions are only logged.
func New(client *zfs.Client, pol policy.Policy, format string, eng *retention.Engine, mb *mailbox.Mailbox[string, Job], log zerolog.Logger, dryRun bool) *Worker {
	return &Worker{
		pol:    pol,
		format: format,
		client: client,
		engine: eng,
		mb:     mb,
		dryRun: dryRun,
		log:    log,
	}
}

// UpdateConfig hot-reloads the policy and snapshot name format.
func (w *Worker) UpdateConfig(pol policy.Policy, format string) {
	w.mu.Lock()
	w.pol = pol
	w.format = format
	w.mu.Unlock()
}

// Start runs the worker loop until the mailbox is closed or ctx is
// cancelled. Per-dataset failures are logged and do not stop the
// loop.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("starting worker")
	for {
		job, ok := w.mb.Take()
		if !ok || ctx.Err() != nil {
			return
		}
		if err := w.Handle(ctx, job); err != nil {
			w.log.Error().Err(err).Str("dataset", job.Dataset).Msg("maintenance failed")
		}
	}
}

// Handle runs one maintenance pass for one dataset.
func (w *Worker) Handle(ctx context.Context, job Job) error {
	w.mu.RLock()
	pol := w.pol
	format := w.format
	w.mu.RUnlock()

	now := job.Now
	if now.IsZero() {
		now = time.Now()
	}

	ds := zfs.NewDataset(w.client, job.Dataset, format)

	if job.Create {
		if w.dryRun {
			w.log.Info().Str("dataset", job.Dataset).Msg("dry run: would create snapshot")
		} else {
			if _, err := ds.Create(ctx, now); err != nil {
				metrics.CleanupFailures.WithLabelValues(job.Dataset).Inc()
				return fmt.Errorf("creating snapshot of %s: %w", job.Dataset, err)
			}
			metrics.SnapshotsCreated.WithLabelValues(job.Dataset).Inc()
		}
	}

	var src retention.Source = ds
	if w.dryRun {
		src = dryRunSource{Source: ds, log: w.log}
	}

	start := time.Now()
	deleted, err := w.engine.Cleanup(ctx, now, src, pol)
	metrics.CleanupDuration.Observe(time.Since(start).Seconds())
	if !w.dryRun {
		metrics.SnapshotsDeleted.WithLabelValues(job.Dataset).Add(float64(deleted))
	}
	if err != nil {
		metrics.CleanupFailures.WithLabelValues(job.Dataset).Inc()
		return fmt.Errorf("cleanup of %s: %w", job.Dataset, err)
	}

	metrics.LastRun.SetToCurrentTime()
	w.log.Info().Str("dataset", job.Dataset).Int("deleted", deleted).Msg("maintenance complete")
	return nil
}

// dryRunSource reads through to the real source but reports instead
// of destroying.
type dryRunSource struct {
	retention.Source
	log zerolog.Logger
}

func (d dryRunSource) Destroy(ctx context.Context, name string) error {
	d.log.Info().Str("snapshot", name).Msg("dry run: would destroy")
	return nil
}
