// Package database persists run history so past reports survive beyond
// the emailed summary.
package database

import (
	"context"
	"sync"

	"github.com/panelops/hestiabak/report"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Database struct {
	Lock   sync.Mutex
	Cli    *gorm.DB
	Logger zerolog.Logger
	DryRun bool
}

// RecordRun persists one finished run with its per-account rows.
func (d *Database) RecordRun(ctx context.Context, rep *report.Report) error {
	if d.DryRun {
		d.Logger.Info().Msg("dry run, not recording run history")
		return nil
	}

	d.Lock.Lock()
	defer d.Lock.Unlock()

	run := Run{
		Mode:             string(rep.Mode),
		Label:            rep.Label,
		StartedAt:        rep.StartedAt,
		FinishedAt:       rep.FinishedAt,
		Attempted:        rep.Attempted,
		Succeeded:        rep.Succeeded,
		Failed:           rep.Failed,
		Skipped:          rep.Skipped,
		Deleted:          rep.Deleted,
		BytesTransferred: rep.BytesTransferred,
		BytesFreed:       rep.BytesFreed,
	}
	for _, row := range rep.Rows {
		run.Entries = append(run.Entries, RunEntry{
			Account:  row.Account,
			Outcome:  string(row.Outcome),
			Size:     row.Size,
			Duration: row.Duration,
			Checksum: row.Checksum,
		})
	}

	if err := d.Cli.WithContext(ctx).Create(&run).Error; err != nil {
		return err
	}

	d.Logger.Debug().Uint("run_id", run.ID).Int("entries", len(run.Entries)).Msg("recorded run history")
	return nil
}

// RecentRuns returns the latest runs with their entries, newest first.
func (d *Database) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	var runs []Run
	err := d.Cli.WithContext(ctx).
		Preload("Entries").
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
