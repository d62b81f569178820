package scheduler

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaprune/snaprune/internal/config"
	"github.com/snaprune/snaprune/internal/mailbox"
	"github.com/snaprune/snaprune/internal/worker"
	"github.com/snaprune/snaprune/internal/zfs"
)

func scriptClient(responses map[string]string) *zfs.Client {
	return zfs.NewClient("", zerolog.Nop(), func(ctx context.Context, path string, args ...string) ([]byte, error) {
		out, ok := responses[strings.Join(args, " ")]
		if !ok {
			return nil, fmt.Errorf("unexpected command: zfs %s", strings.Join(args, " "))
		}
		return []byte(out), nil
	})
}

func TestTargetsExplicit(t *testing.T) {
	zcfg := config.ZFSConfig{Datasets: []string{"tank/data", "tank/home"}}

	targets, err := Targets(context.Background(), scriptClient(nil), zcfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank/data", "tank/home"}, targets)
}

func TestTargetsDiscovery(t *testing.T) {
	client := scriptClient(map[string]string{
		"list -H -o name": "tank\ntank/data\ntank/tmp\n",
		"get -H -o value com.sun:auto-snapshot tank":      "-\n",
		"get -H -o value com.sun:auto-snapshot tank/data": "true\n",
		"get -H -o value com.sun:auto-snapshot tank/tmp":  "false\n",
	})
	zcfg := config.ZFSConfig{
		Discover:             true,
		AutoSnapshotProperty: "com.sun:auto-snapshot",
		Datasets:             []string{"ignored/when-discovering"},
	}

	targets, err := Targets(context.Background(), client, zcfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"tank/data"}, targets)
}

func TestTickEnqueuesJobs(t *testing.T) {
	mb := mailbox.New[string, worker.Job]()
	zcfg := config.ZFSConfig{Datasets: []string{"tank/data", "tank/home"}}
	s := New(scriptClient(nil), zcfg, "@hourly", mb, zerolog.Nop())

	s.tick()

	require.Equal(t, 2, mb.Pending())
	job, ok := mb.Take()
	require.True(t, ok)
	assert.Equal(t, "tank/data", job.Dataset)
	assert.True(t, job.Create)
	assert.True(t, job.Now.IsZero(), "reference time is taken at execution")
}

func TestTickCoalesces(t *testing.T) {
	mb := mailbox.New[string, worker.Job]()
	zcfg := config.ZFSConfig{Datasets: []string{"tank/data"}}
	s := New(scriptClient(nil), zcfg, "@hourly", mb, zerolog.Nop())

	s.tick()
	s.tick()
	s.tick()

	assert.Equal(t, 1, mb.Pending(), "slow worker gets one pending job per dataset")
}

func TestStartRejectsBadSpec(t *testing.T) {
	mb := mailbox.New[string, worker.Job]()
	s := New(scriptClient(nil), config.ZFSConfig{Datasets: []string{"tank"}}, "not a cron spec", mb, zerolog.Nop())
	assert.Error(t, s.Start())
}

func TestUpdateConfigKeepsScheduleOnBadSpec(t *testing.T) {
	mb := mailbox.New[string, worker.Job]()
	s := New(scriptClient(nil), config.ZFSConfig{Datasets: []string{"tank"}}, "@hourly", mb, zerolog.Nop())
	require.NoError(t, s.Start())
	defer s.Stop()

	s.UpdateConfig(config.ZFSConfig{Datasets: []string{"tank/other"}}, "garbage")
	assert.Equal(t, "@hourly", s.spec)

	s.UpdateConfig(config.ZFSConfig{Datasets: []string{"tank/other"}}, "@daily")
	assert.Equal(t, "@daily", s.spec)
}
