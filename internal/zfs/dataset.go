package zfs

import (
	"context"
	"time"
)

// GMTFormat is the default snapshot name suffix, the Samba
// shadow-copy ("previous versions") naming convention, in UTC.
const GMTFormat = "@GMT-2006.01.02-15.04.05"

// Dataset binds a client to one dataset. It implements the retention
// engine's snapshot source and creates new snapshots.
type Dataset struct {
	client *Client
	name   string
	format string
}

// NewDataset returns a dataset handle. An empty name format means
// GMTFormat.
func NewDataset(client *Client, name, format string) *Dataset {
	if format == "" {
		format = GMTFormat
	}
	return &Dataset{client: client, name: name, format: format}
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

// Snapshots lists the dataset's snapshots.
func (d *Dataset) Snapshots(ctx context.Context) ([]string, error) {
	return d.client.ListSnapshots(ctx, d.name)
}

// Created returns a snapshot's creation time.
func (d *Dataset) Created(ctx context.Context, name string) (time.Time, error) {
	return d.client.CreationTime(ctx, name)
}

// Destroy removes a snapshot.
func (d *Dataset) Destroy(ctx context.Context, name string) error {
	if err := d.client.DestroySnapshot(ctx, name); err != nil {
		return err
	}
	d.client.log.Info().Str("snapshot", name).Msg("snapshot removed")
	return nil
}

// Create takes a new snapshot named after now and returns its full
// name.
func (d *Dataset) Create(ctx context.Context, now time.Time) (string, error) {
	name := d.name + now.UTC().Format(d.format)
	if err := d.client.CreateSnapshot(ctx, name); err != nil {
		return "", err
	}
	d.client.log.Info().Str("snapshot", name).Msg("snapshot created")
	return name, nil
}
