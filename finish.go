package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/panelops/hestiabak/config"
	"github.com/panelops/hestiabak/database"
	"github.com/panelops/hestiabak/notify"
	"github.com/panelops/hestiabak/report"
)

// finishFunc receives the finished report of a run that processed at
// least one account.
type finishFunc func(ctx context.Context, rep *report.Report)

// finishRun emails the report and records run history. Both are best
// effort: failures are logged for visibility but never change the run
// outcome, and nothing is retried.
func finishRun(ctx context.Context, rep *report.Report, cfg *config.Config, apiKey, dbPath string, dryRun bool, logger zerolog.Logger) {
	html, err := rep.HTML()
	if err != nil {
		logger.Error().Err(err).Msg("could not render report email")
	} else if dryRun {
		logger.Info().Str("subject", rep.Subject()).Msg("dry run, not sending report email")
	} else {
		mailer := notify.NewMailer(apiKey, cfg.FromEmail, cfg.ToEmail, logger)
		if err := mailer.Send(ctx, rep.Subject(), html); err != nil {
			logger.Error().Err(err).Msg("could not send report email")
		}
	}

	if dryRun {
		logger.Info().Msg("dry run, not recording run history")
		return
	}

	dbCli, err := newSQLite(dbPath, logger)
	if err != nil {
		logger.Error().Err(err).Str("path", dbPath).Msg("could not open run history database")
		return
	}
	db := &database.Database{Cli: dbCli, Logger: logger}
	if err := db.RecordRun(ctx, rep); err != nil {
		logger.Error().Err(err).Msg("could not record run history")
	}
}
