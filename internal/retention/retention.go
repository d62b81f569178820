// Package retention implements tiered thinning of timestamped
// snapshots. Each rule carves the trailing period before a reference
// time into keep equal slots and keeps at most one representative per
// slot; snapshots older than a rule's period fall through to the next,
// coarser rule. Anything older than the coarsest rule is never
// deleted.
package retention

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/snaprune/snaprune/internal/policy"
	"github.com/snaprune/snaprune/internal/snapshot"
)

// Source is the snapshot store one cleanup invocation runs against.
// Created must be stable across calls within one invocation; Destroy
// must take effect immediately.
type Source interface {
	Snapshots(ctx context.Context) ([]string, error)
	Created(ctx context.Context, name string) (time.Time, error)
	Destroy(ctx context.Context, name string) error
}

// Engine computes and issues snapshot deletions. It holds no state
// across invocations: every Cleanup call re-reads the source and
// re-derives its decisions, so re-running after a partial failure is
// safe and converges to the same fixed point.
type Engine struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Cleanup applies the policy's rules, finest first, deleting excess
// snapshots through src one at a time in selection order. A zero now
// means the current time. It returns the number of snapshots deleted;
// on error, deletions already issued stand and the count reflects
// them.
func (e *Engine) Cleanup(ctx context.Context, now time.Time, src Source, pol policy.Policy) (int, error) {
	if now.IsZero() {
		now = time.Now()
	}

	names, err := src.Snapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing snapshots: %w", err)
	}

	working := make([]snapshot.Snapshot, 0, len(names))
	for _, name := range names {
		created, err := src.Created(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("reading creation time of %s: %w", name, err)
		}
		working = append(working, snapshot.Snapshot{Name: name, Created: created})
	}

	// Oldest first; equal timestamps keep enumeration order.
	sort.SliceStable(working, func(i, j int) bool {
		return working[i].Created.Before(working[j].Created)
	})

	deleted := 0
	for _, rule := range pol.Rules() {
		remaining, n, err := e.applyRule(ctx, now, src, rule, working)
		deleted += n
		if err != nil {
			return deleted, err
		}
		working = remaining
	}

	// Whatever outlived the coarsest rule is retained indefinitely.
	return deleted, nil
}

// applyRule classifies the working set into the rule's slots, thins
// overfull slots through src, and returns the snapshots older than
// the rule's period for the next rule to consider. Snapshots that
// survive classification under this rule are final.
func (e *Engine) applyRule(ctx context.Context, now time.Time, src Source, rule policy.Rule, working []snapshot.Snapshot) ([]snapshot.Snapshot, int, error) {
	width := rule.Period / time.Duration(rule.Keep)

	// thresholds[i] is the lower bound of slot i, newest slot first.
	thresholds := make([]time.Time, rule.Keep)
	for i := range thresholds {
		thresholds[i] = now.Add(-width * time.Duration(i+1))
	}

	buckets := make([][]snapshot.Snapshot, rule.Keep)
	var deferred []snapshot.Snapshot
	total := 0
	for _, s := range working {
		slot := -1
		for i, t := range thresholds {
			if !s.Created.Before(t) {
				slot = i
				break
			}
		}
		if slot < 0 {
			deferred = append(deferred, s)
			continue
		}
		// Working set is sorted ascending, so buckets stay oldest first.
		buckets[slot] = append(buckets[slot], s)
		total++
	}

	if ev := e.log.Debug(); ev.Enabled() {
		sizes := make([]int, len(buckets))
		for i, b := range buckets {
			sizes[i] = len(b)
		}
		ev.Time("now", now).
			Dur("period", rule.Period).
			Int("keep", rule.Keep).
			Ints("buckets", sizes).
			Int("deferred", len(deferred)).
			Msg("classified")
	}

	deleted := 0
	for total > rule.Keep {
		i := mostCrowded(buckets)
		b := buckets[i]
		// Remove the newest member so the survivor of a slot trends
		// toward its oldest snapshot; removing the oldest can
		// re-crowd buckets and never converge.
		victim := b[len(b)-1]
		if err := src.Destroy(ctx, victim.Name); err != nil {
			return deferred, deleted, fmt.Errorf("destroying %s: %w", victim.Name, err)
		}
		buckets[i] = b[:len(b)-1]
		total--
		deleted++
		e.log.Debug().Str("snapshot", victim.Name).Time("created", victim.Created).Msg("thinned")
	}

	return deferred, deleted, nil
}

// mostCrowded picks the bucket to thin next: greatest member count,
// ties broken by the latest newest-member timestamp, residual ties by
// the older slot.
func mostCrowded(buckets [][]snapshot.Snapshot) int {
	best := -1
	for i, b := range buckets {
		if len(b) == 0 {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		chosen := buckets[best]
		if len(b) != len(chosen) {
			if len(b) > len(chosen) {
				best = i
			}
			continue
		}
		if !b[len(b)-1].Created.Before(chosen[len(chosen)-1].Created) {
			best = i
		}
	}
	return best
}
