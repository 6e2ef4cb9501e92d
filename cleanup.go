package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/panelops/hestiabak/config"
	"github.com/panelops/hestiabak/panel"
	"github.com/panelops/hestiabak/report"
	"github.com/panelops/hestiabak/storage"
)

func cleanupCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	logger, closeLog := runLogger(logger, args.Cleanup.LogDir, "cleanup")
	defer closeLog()

	if args.Cleanup.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	cfg, err := config.Load(args.Cleanup.Config)
	if err != nil {
		return err
	}
	apiKey, err := config.LoadSecret(args.Cleanup.Secret, logger)
	if err != nil {
		return err
	}

	pan := panel.New(panel.Params{
		HomeDir:   cfg.HomeDir,
		BackupDir: cfg.BackupDir,
		AdminUser: cfg.AdminUser,
		Logger:    logger,
	})
	store := storage.New(storage.Params{
		Remote: cfg.RcloneRemote,
		Bucket: cfg.RcloneBucket,
		Logger: logger,
	})

	users, err := pan.Users(ctx)
	if err != nil {
		return err
	}

	startTime := time.Now()
	logger.Info().
		Int("accounts", len(users)).
		Int("retention_days", cfg.RetentionDays).
		Str("target", store.Target()).
		Msg("starting cleanup run")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("cleanup run cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("cleanup run done")
		}
	}()

	runCleanupJob(ctx, cleanupParams{
		users:         users,
		store:         store,
		retentionDays: cfg.RetentionDays,
		now:           time.Now(),
		report:        report.New(report.ModeCleanup, cfg.ScheduleLabel),
		dryRun:        args.Cleanup.DryRun,
		logger:        logger,
	}, func(ctx context.Context, rep *report.Report) {
		finishRun(ctx, rep, cfg, apiKey, args.Cleanup.Database, args.Cleanup.DryRun, logger)
	})
	return nil
}

type remoteLister interface {
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	Delete(ctx context.Context, name string) error
}

type cleanupParams struct {
	users         []string
	store         remoteLister
	retentionDays int
	now           time.Time
	report        *report.Report
	dryRun        bool
	logger        zerolog.Logger
}

// runCleanupJob mirrors runBackupJob: the per-account loop, then the
// finished report goes to finish. With no eligible accounts nothing is
// emailed or recorded.
func runCleanupJob(ctx context.Context, p cleanupParams, finish finishFunc) {
	if len(p.users) == 0 {
		p.logger.Info().Msg("No users with domains found.")
		return
	}

	runCleanups(ctx, p)
	p.report.Finish()
	finish(ctx, p.report)
}

func runCleanups(ctx context.Context, p cleanupParams) {
	for _, user := range p.users {
		if ctx.Err() != nil {
			break
		}
		cleanupAccount(ctx, user, p)
	}
}

// cleanupAccount deletes the account's remote archives that are
// strictly older than the retention threshold. Objects without a
// parseable date token are skipped, not treated as errors.
func cleanupAccount(ctx context.Context, user string, p cleanupParams) {
	logger := p.logger.With().Str("account", user).Logger()
	start := time.Now()

	objects, err := p.store.List(ctx, user+".")
	if err != nil {
		logger.Error().Err(err).Msg("could not list remote archives")
		p.report.AddFailure(user, report.OutcomeListFailed)
		return
	}

	var deleted, skipped int
	var freed int64
	for _, obj := range objects {
		if ctx.Err() != nil {
			break
		}

		ts, ok := storage.ArchiveDate(obj.Name)
		if !ok {
			logger.Warn().Str("object", obj.Name).Msg("no date token in archive name, skipping")
			skipped++
			continue
		}

		age := ageInDays(ts, p.now)
		if age <= p.retentionDays {
			logger.Debug().Str("object", obj.Name).Int("age_days", age).Msg("archive within retention")
			continue
		}

		if p.dryRun {
			logger.Info().Str("object", obj.Name).Int("age_days", age).Msg("would delete expired archive")
			continue
		}

		if err := p.store.Delete(ctx, obj.Name); err != nil {
			logger.Error().Err(err).Str("object", obj.Name).Msg("could not delete expired archive")
			continue
		}

		logger.Info().
			Str("object", obj.Name).
			Int("age_days", age).
			Int64("size", obj.Size).
			Msg("deleted expired archive")
		deleted++
		freed += obj.Size
	}

	p.report.AddCleanup(user, deleted, freed, skipped, time.Since(start))
}

// ageInDays counts whole days between the archive date and now, both
// truncated to UTC midnight. An archive uploaded earlier today is 0
// days old no matter the hour.
func ageInDays(archiveDate, now time.Time) int {
	a := time.Date(archiveDate.Year(), archiveDate.Month(), archiveDate.Day(), 0, 0, 0, 0, time.UTC)
	n := now.UTC()
	b := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
