package main

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/panelops/hestiabak/database"
)

func historyCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	dbCli, err := newSQLite(args.History.Database, logger)
	if err != nil {
		return fmt.Errorf("could not open run history database: %w", err)
	}
	db := &database.Database{Cli: dbCli, Logger: logger}

	runs, err := db.RecentRuns(ctx, args.History.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		logger.Info().Msg("no recorded runs")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %-8s %-10s attempted=%d succeeded=%d failed=%d deleted=%d transferred=%s freed=%s\n",
			run.StartedAt.Format(time.RFC3339), run.Mode, run.Label,
			run.Attempted, run.Succeeded, run.Failed, run.Deleted,
			units.HumanSize(float64(run.BytesTransferred)), units.HumanSize(float64(run.BytesFreed)))
		for _, e := range run.Entries {
			fmt.Printf("    %-16s %-20s %10s %10s\n", e.Account, e.Outcome, e.Size, e.Duration)
		}
	}
	return nil
}
