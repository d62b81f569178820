// Package metrics exposes prometheus collectors for snapshot
// maintenance and serves them over HTTP.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SnapshotsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snaprune_snapshots_created_total",
			Help: "Snapshots created, by dataset",
		},
		[]string{"dataset"},
	)

	SnapshotsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snaprune_snapshots_deleted_total",
			Help: "Snapshots deleted by retention cleanup, by dataset",
		},
		[]string{"dataset"},
	)

	CleanupFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snaprune_cleanup_failures_total",
			Help: "Failed maintenance runs, by dataset",
		},
		[]string{"dataset"},
	)

	CleanupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snaprune_cleanup_duration_seconds",
			Help:    "Duration of one cleanup invocation",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)

	LastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "snaprune_last_run_timestamp_seconds",
			Help: "Unix time of the last completed maintenance run",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SnapshotsCreated,
		SnapshotsDeleted,
		CleanupFailures,
		CleanupDuration,
		LastRun,
	)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
