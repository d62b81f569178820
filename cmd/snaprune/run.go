package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/snaprune/snaprune/internal/config"
	"github.com/snaprune/snaprune/internal/logging"
	"github.com/snaprune/snaprune/internal/mailbox"
	"github.com/snaprune/snaprune/internal/metrics"
	"github.com/snaprune/snaprune/internal/retention"
	"github.com/snaprune/snaprune/internal/scheduler"
	"github.com/snaprune/snaprune/internal/watcher"
	"github.com/snaprune/snaprune/internal/worker"
	"github.com/snaprune/snaprune/internal/zfs"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the snapshot daemon",
	Long: `Run the scheduler and worker: on every cron tick, take a snapshot of
each target dataset and thin its snapshot set per the retention
policy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		logg := logging.WithComponent("main")

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Graceful shutdown
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			logg.Info().Msg("shutting down...")
			cancel()
		}()

		pol, err := cfg.Policy()
		if err != nil {
			return err
		}

		client := zfs.NewClient(cfg.ZFS.Path, logging.WithComponent("zfs"), nil)
		mb := mailbox.New[string, worker.Job]()
		eng := retention.New(logging.WithComponent("retention"))
		w := worker.New(client, pol, cfg.ZFS.SnapshotFormat, eng, mb, logging.WithComponent("worker"), false)
		sched := scheduler.New(client, cfg.ZFS, cfg.Schedule.Cron, mb, logging.WithComponent("scheduler"))

		if cfg.Metrics.Enabled {
			go func() {
				if err := metrics.Serve(ctx, cfg.Metrics.Listen); err != nil {
					logg.Error().Err(err).Msg("metrics server failed")
				}
			}()
		}

		go w.Start(ctx)

		if err := sched.Start(); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer sched.Stop()
		defer mb.Close()

		apply := func(newCfg *config.Config) {
			newPol, err := newCfg.Policy()
			if err != nil {
				logg.Error().Err(err).Msg("reloaded config rejected")
				return
			}
			w.UpdateConfig(newPol, newCfg.ZFS.SnapshotFormat)
			sched.UpdateConfig(newCfg.ZFS, newCfg.Schedule.Cron)
		}

		// Hot reload on file change
		if cfg.ConfigReload.Enabled {
			watch := watcher.New(configPath, cfg.ConfigReload, apply, logging.WithComponent("watcher"))
			go func() {
				if err := watch.Start(ctx); err != nil {
					logg.Error().Err(err).Msg("config watcher failed")
				}
			}()
		}

		// Manual reload on SIGHUP
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGHUP)

			for range sigCh {
				newCfg, err := config.Load(configPath)
				if err != nil {
					logg.Error().Err(err).Msg("config reload failed")
					continue
				}
				apply(newCfg)
				logg.Info().Msg("config reloaded")
			}
		}()

		<-ctx.Done()
		logg.Info().Msg("exit complete")
		return nil
	},
}
