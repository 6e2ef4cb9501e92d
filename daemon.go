package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/panelops/hestiabak/config"
	"github.com/panelops/hestiabak/report"
	"github.com/panelops/hestiabak/scheduler"
)

func daemonCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	if args.Daemon.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	cfg, err := config.Load(args.Daemon.Config)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	// Fail at startup, not at 2am when the first job fires.
	if _, err := config.LoadSecret(args.Daemon.Secret, logger); err != nil {
		return err
	}

	backupArgs := Command{}
	backupArgs.Backup.Config = args.Daemon.Config
	backupArgs.Backup.Secret = args.Daemon.Secret
	backupArgs.Backup.Database = args.Daemon.Database
	backupArgs.Backup.LogDir = args.Daemon.LogDir
	backupArgs.Backup.DryRun = args.Daemon.DryRun

	cleanupArgs := Command{}
	cleanupArgs.Cleanup.Config = args.Daemon.Config
	cleanupArgs.Cleanup.Secret = args.Daemon.Secret
	cleanupArgs.Cleanup.Database = args.Daemon.Database
	cleanupArgs.Cleanup.LogDir = args.Daemon.LogDir
	cleanupArgs.Cleanup.DryRun = args.Daemon.DryRun

	sched := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	err = sched.AddJob(cfg.BackupCron, &runJob{ctx: ctx, mode: report.ModeBackup, args: backupArgs, logger: logger})
	if err != nil {
		return fmt.Errorf("could not schedule backup job: %w", err)
	}
	err = sched.AddJob(cfg.CleanupCron, &runJob{ctx: ctx, mode: report.ModeCleanup, args: cleanupArgs, logger: logger})
	if err != nil {
		return fmt.Errorf("could not schedule cleanup job: %w", err)
	}

	logger.Info().
		Str("backup_cron", cfg.BackupCron).
		Str("cleanup_cron", cfg.CleanupCron).
		Msg("scheduler started")

	sched.Start()
	defer sched.Stop()

	<-ctx.Done()

	return nil
}

type runJob struct {
	ctx    context.Context
	mode   report.Mode
	args   Command
	logger zerolog.Logger
}

func (j *runJob) Run() {
	var err error
	switch j.mode {
	case report.ModeCleanup:
		err = cleanupCommand(j.ctx, j.args, j.logger)
	default:
		err = backupCommand(j.ctx, j.args, j.logger)
	}
	if err != nil {
		j.logger.Error().Err(err).Str("mode", string(j.mode)).Msg("scheduled run failed")
	}
}
