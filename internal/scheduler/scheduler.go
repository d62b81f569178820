// Package scheduler enqueues periodic maintenance jobs, one per
// target dataset, on a cron cadence.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/snaprune/snaprune/internal/config"
	"github.com/snaprune/snaprune/internal/mailbox"
	"github.com/snaprune/snaprune/internal/worker"
	"github.com/snaprune/snaprune/internal/zfs"
)

type Scheduler struct {
	mu    sync.RWMutex
	zcfg  config.ZFSConfig
	spec  string
	entry cron.EntryID

	cron   *cron.Cron
	client *zfs.Client
	mb     *mailbox.Mailbox[string, worker.Job]
	log    zerolog.Logger
}

func New(client *zfs.Client, zcfg config.ZFSConfig, spec string, mb *mailbox.Mailbox[string, worker.Job], log zerolog.Logger) *Scheduler {
	return &Scheduler{
		zcfg:   zcfg,
		spec:   spec,
		cron:   cron.New(),
		client: client,
		mb:     mb,
		log:    log,
	}
}

// Start registers the cron entry and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(s.spec, s.tick)
	if err != nil {
		return err
	}
	s.entry = id
	s.cron.Start()
	s.log.Info().Str("cron", s.spec).Msg("scheduler started")
	return nil
}

// Stop stops the cron runner; a tick in flight finishes.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// UpdateConfig hot-reloads targets and, if changed, the cron spec.
// An invalid new spec keeps the old schedule.
func (s *Scheduler) UpdateConfig(zcfg config.ZFSConfig, spec string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.zcfg = zcfg
	if spec == s.spec {
		return
	}
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		s.log.Error().Err(err).Str("cron", spec).Msg("invalid cron spec, keeping previous schedule")
		return
	}
	s.cron.Remove(s.entry)
	s.entry = id
	s.spec = spec
	s.log.Info().Str("cron", spec).Msg("schedule updated")
}

// tick enqueues one create-and-clean job per target dataset. The
// mailbox coalesces per dataset, so a slow worker never piles up more
// than one pending job per target.
func (s *Scheduler) tick() {
	s.mu.RLock()
	zcfg := s.zcfg
	s.mu.RUnlock()

	datasets, err := Targets(context.Background(), s.client, zcfg)
	if err != nil {
		s.log.Error().Err(err).Msg("resolving target datasets failed")
		return
	}
	if len(datasets) == 0 {
		s.log.Warn().Msg("no target datasets")
		return
	}

	for _, ds := range datasets {
		s.mb.Put(ds, worker.Job{Dataset: ds, Create: true})
	}
	s.log.Debug().Int("datasets", len(datasets)).Msg("maintenance jobs enqueued")
}

// Targets resolves the datasets to maintain: the explicit list from
// config, or discovery by auto-snapshot property.
func Targets(ctx context.Context, client *zfs.Client, zcfg config.ZFSConfig) ([]string, error) {
	if zcfg.Discover {
		return client.AutoSnapshotDatasets(ctx, zcfg.AutoSnapshotProperty)
	}
	return zcfg.Datasets, nil
}
