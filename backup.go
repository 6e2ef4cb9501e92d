package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog"

	"github.com/panelops/hestiabak/config"
	"github.com/panelops/hestiabak/panel"
	"github.com/panelops/hestiabak/report"
	"github.com/panelops/hestiabak/storage"
)

func backupCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	logger, closeLog := runLogger(logger, args.Backup.LogDir, "backup")
	defer closeLog()

	if args.Backup.DryRun {
		logger = logger.With().Bool("dryrun", true).Logger()
	}

	cfg, err := config.Load(args.Backup.Config)
	if err != nil {
		return err
	}
	apiKey, err := config.LoadSecret(args.Backup.Secret, logger)
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
	logger.Info().Int("accounts", len(users)).Str("target", store.Target()).Msg("starting backup run")
	defer func() {
		tookSeconds := time.Since(startTime).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("backup run cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("backup run done")
		}
	}()

	runBackupJob(ctx, backupParams{
		users:  users,
		panel:  pan,
		store:  store,
		report: report.New(report.ModeBackup, cfg.ScheduleLabel),
		dryRun: args.Backup.DryRun,
		logger: logger,
	}, func(ctx context.Context, rep *report.Report) {
		finishRun(ctx, rep, cfg, apiKey, args.Backup.Database, args.Backup.DryRun, logger)
	})
	return nil
}

type accountBackuper interface {
	BackupUser(ctx context.Context, user string) error
	LatestArchive(user string) (string, error)
}

type archiveUploader interface {
	Upload(ctx context.Context, localPath string) error
}

type backupParams struct {
	users  []string
	panel  accountBackuper
	store  archiveUploader
	report *report.Report
	dryRun bool
	logger zerolog.Logger
}

// runBackupJob runs the per-account loop and hands the finished report
// to finish. With no eligible accounts there is nothing to report: no
// email goes out and no run is recorded.
func runBackupJob(ctx context.Context, p backupParams, finish finishFunc) {
	if len(p.users) == 0 {
		p.logger.Info().Msg("No users with domains found.")
		return
	}

	runBackups(ctx, p)
	p.report.Finish()
	finish(ctx, p.report)
}

// runBackups processes accounts one at a time. Every account gets
// exactly one outcome row; a failure never stops the loop.
func runBackups(ctx context.Context, p backupParams) {
	for _, user := range p.users {
		if ctx.Err() != nil {
			break
		}
		backupAccount(ctx, user, p)
	}
}

func backupAccount(ctx context.Context, user string, p backupParams) {
	logger := p.logger.With().Str("account", user).Logger()
	start := time.Now()

	if err := p.panel.BackupUser(ctx, user); err != nil {
		logger.Error().Err(err).Msg("backup command failed")
		p.report.AddFailure(user, report.OutcomeBackupFailed)
		return
	}

	archivePath, err := p.panel.LatestArchive(user)
	if err != nil {
		logger.Error().Err(err).Msg("backup command succeeded but no archive found")
		p.report.AddFailure(user, report.OutcomeArchiveNotFound)
		return
	}

	var size int64
	if info, err := os.Stat(archivePath); err == nil {
		size = info.Size()
	}

	checksum, err := checksumFile(archivePath)
	if err != nil {
		logger.Warn().Err(err).Str("archive", archivePath).Msg("could not checksum archive")
	}

	if p.dryRun {
		logger.Info().Str("archive", archivePath).Int64("size", size).Msg("dry run, not uploading")
		p.report.AddSuccess(user, size, time.Since(start), checksum)
		return
	}

	if err := p.store.Upload(ctx, archivePath); err != nil {
		// The local archive stays behind so the upload can be retried
		// by hand or by the next scheduled run.
		logger.Error().Err(err).Str("archive", archivePath).Msg("upload failed, keeping local archive")
		p.report.AddFailure(user, report.OutcomeUploadFailed)
		return
	}

	// The local copy must be gone before the account counts as done,
	// otherwise archives pile up and fill the disk.
	if err := os.Remove(archivePath); err != nil {
		logger.Error().Err(err).Str("archive", archivePath).Msg("uploaded but could not delete local archive")
		p.report.AddFailure(user, report.OutcomeLocalDeleteFailed)
		return
	}

	took := time.Since(start)
	logger.Info().
		Str("archive", archivePath).
		Int64("size", size).
		Str("checksum", checksum).
		Float64("seconds", took.Seconds()).
		Msg("archive uploaded")
	p.report.AddSuccess(user, size, took, checksum)
}

// checksumFile hashes the archive before upload so run history can be
// checked against the remote copy later.
func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
