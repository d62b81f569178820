package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/snaprune/snaprune/internal/config"
	"github.com/snaprune/snaprune/internal/logging"
	"github.com/snaprune/snaprune/internal/mailbox"
	"github.com/snaprune/snaprune/internal/retention"
	"github.com/snaprune/snaprune/internal/scheduler"
	"github.com/snaprune/snaprune/internal/worker"
	"github.com/snaprune/snaprune/internal/zfs"
)

var (
	pruneDryRun bool
	pruneNow    string
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Run one cleanup pass over all target datasets and exit",
	Long: `Thin the snapshot sets of all target datasets once, without creating
new snapshots. With --dry-run, report what would be deleted without
touching anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

		var now time.Time
		if pruneNow != "" {
			now, err = time.Parse(time.RFC3339, pruneNow)
			if err != nil {
				return fmt.Errorf("parsing --now: %w", err)
			}
		}

		pol, err := cfg.Policy()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client := zfs.NewClient(cfg.ZFS.Path, logging.WithComponent("zfs"), nil)
		eng := retention.New(logging.WithComponent("retention"))
		mb := mailbox.New[string, worker.Job]()
		w := worker.New(client, pol, cfg.ZFS.SnapshotFormat, eng, mb, logging.WithComponent("worker"), pruneDryRun)

		datasets, err := scheduler.Targets(ctx, client, cfg.ZFS)
		if err != nil {
			return fmt.Errorf("resolving target datasets: %w", err)
		}
		if len(datasets) == 0 {
			return fmt.Errorf("no target datasets")
		}

		for _, ds := range datasets {
			if err := w.Handle(ctx, worker.Job{Dataset: ds, Now: now}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "report deletions without destroying anything")
	pruneCmd.Flags().StringVar(&pruneNow, "now", "", "reference time (RFC 3339), defaults to the current time")
}
