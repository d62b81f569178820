package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"zero period", Rule{Period: 0, Keep: 3}},
		{"negative period", Rule{Period: -time.Hour, Keep: 3}},
		{"zero keep", Rule{Period: time.Hour, Keep: 0}},
		{"negative keep", Rule{Period: time.Hour, Keep: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]Rule{tt.rule})
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestNewSortsByPeriod(t *testing.T) {
	input := []Rule{
		{Period: 7 * 24 * time.Hour, Keep: 7},
		{Period: 3 * time.Hour, Keep: 3},
		{Period: 24 * time.Hour, Keep: 4},
	}

	p, err := New(input)
	require.NoError(t, err)

	rules := p.Rules()
	require.Len(t, rules, 3)
	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].Period, rules[i].Period)
	}

	// Caller's slice is left alone.
	assert.Equal(t, 7*24*time.Hour, input[0].Period)
}

func TestNewEmpty(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	assert.Zero(t, p.Len())
}

func TestDefault(t *testing.T) {
	p := Default()
	rules := p.Rules()
	require.Len(t, rules, 6)
	assert.Equal(t, Rule{Period: 3 * time.Hour, Keep: 3}, rules[0])
	assert.Equal(t, Rule{Period: 3650 * 24 * time.Hour, Keep: 10}, rules[5])
	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].Period, rules[i].Period)
	}
}
