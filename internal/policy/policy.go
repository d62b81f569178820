// Package policy defines the retention rule table applied by the
// thinning engine.
package policy

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidRule marks a rule with a non-positive period or keep count.
var ErrInvalidRule = errors.New("invalid retention rule")

// Rule keeps at most Keep snapshots, evenly spread, within the most
// recent Period before the reference time.
type Rule struct {
	Period time.Duration
	Keep   int
}

func (r Rule) String() string {
	return fmt.Sprintf("{period=%s keep=%d}", r.Period, r.Keep)
}

// Policy is an ordered, immutable set of retention rules. Evaluation
// order is ascending by period regardless of the order rules were
// supplied in.
type Policy struct {
	rules []Rule
}

// New validates the given rules and returns a policy holding them
// sorted ascending by period. The input slice is not modified.
func New(rules []Rule) (Policy, error) {
	for _, r := range rules {
		if r.Period <= 0 || r.Keep <= 0 {
			return Policy{}, fmt.Errorf("%w: %s", ErrInvalidRule, r)
		}
	}

	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period < sorted[j].Period
	})

	return Policy{rules: sorted}, nil
}

// Default returns the built-in tier table: dense coverage for the last
// few hours thinning out to roughly one snapshot per year at the
// ten-year horizon.
func Default() Policy {
	p, err := New([]Rule{
		{Period: 3 * time.Hour, Keep: 3},
		{Period: 24 * time.Hour, Keep: 4},
		{Period: 7 * 24 * time.Hour, Keep: 7},
		{Period: 28 * 24 * time.Hour, Keep: 4},
		{Period: 365 * 24 * time.Hour, Keep: 12},
		{Period: 3650 * 24 * time.Hour, Keep: 10},
	})
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return p
}

// Rules returns the rules in evaluation order.
func (p Policy) Rules() []Rule { return p.rules }

// Len returns the number of rules.
func (p Policy) Len() int { return len(p.rules) }
