// Package zfs wraps the zfs command line tool behind a small client
// used for snapshot maintenance.
package zfs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPath is where the zfs binary usually lives.
const DefaultPath = "/sbin/zfs"

// Runner executes one zfs invocation and returns its stdout.
type Runner func(ctx context.Context, path string, args ...string) ([]byte, error)

func run(ctx context.Context, path string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("zfs %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("zfs %s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}

// Client runs zfs subcommands.
type Client struct {
	path string
	run  Runner
	log  zerolog.Logger
}

// NewClient creates a client. An empty path means DefaultPath; a nil
// runner means real command execution.
func NewClient(path string, log zerolog.Logger, runner Runner) *Client {
	if path == "" {
		path = DefaultPath
	}
	if runner == nil {
		runner = run
	}
	return &Client{path: path, run: runner, log: log}
}

// ListDatasets returns the names of all datasets.
func (c *Client) ListDatasets(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, c.path, "list", "-H", "-o", "name")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ListSnapshots returns the names of the dataset's direct snapshots.
func (c *Client) ListSnapshots(ctx context.Context, dataset string) ([]string, error) {
	out, err := c.run(ctx, c.path, "list", "-H", "-d", "1", "-t", "snapshot", "-o", "name", dataset)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// GetProperty returns the raw value of a property; unset native
// properties come back as "-".
func (c *Client) GetProperty(ctx context.Context, name, property string) (string, error) {
	out, err := c.run(ctx, c.path, "get", "-H", "-o", "value", property, name)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// CreationTime returns when a snapshot (or dataset) was created.
// The -p flag makes zfs print the creation property as unix seconds,
// which avoids parsing its locale-dependent date format.
func (c *Client) CreationTime(ctx context.Context, name string) (time.Time, error) {
	out, err := c.run(ctx, c.path, "get", "-Hp", "-o", "value", "creation", name)
	if err != nil {
		return time.Time{}, err
	}
	v := strings.TrimSpace(string(out))
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing creation time %q of %s: %w", v, name, err)
	}
	return time.Unix(sec, 0), nil
}

// CreateSnapshot creates a snapshot with the given full name.
func (c *Client) CreateSnapshot(ctx context.Context, name string) error {
	_, err := c.run(ctx, c.path, "snapshot", name)
	return err
}

// DestroySnapshot removes a snapshot by its full name.
func (c *Client) DestroySnapshot(ctx context.Context, name string) error {
	_, err := c.run(ctx, c.path, "destroy", name)
	return err
}

// AutoSnapshotDatasets returns every dataset whose property (usually
// com.sun:auto-snapshot) is set to a truthy value.
func (c *Client) AutoSnapshotDatasets(ctx context.Context, property string) ([]string, error) {
	datasets, err := c.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}

	var targets []string
	for _, ds := range datasets {
		v, err := c.GetProperty(ctx, ds, property)
		if err != nil {
			return nil, err
		}
		if v == "-" || v == "" {
			continue
		}
		enabled, ok := parseBool(v)
		if !ok {
			c.log.Warn().Str("dataset", ds).Str("value", v).Msg("unrecognized auto-snapshot value, skipping")
			continue
		}
		if enabled {
			targets = append(targets, ds)
		}
	}
	return targets, nil
}

// parseBool accepts the usual sysadmin spellings of a boolean.
func parseBool(v string) (value, ok bool) {
	switch strings.ToLower(v) {
	case "y", "yes", "t", "true", "on", "1":
		return true, true
	case "n", "no", "f", "false", "off", "0":
		return false, true
	}
	return false, false
}

func splitLines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
