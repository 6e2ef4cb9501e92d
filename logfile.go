package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// runLogger tees console output into the mode's append-only log file
// (backup.log or cleanup.log). A missing or unwritable log directory
// only costs the file copy of the log, never the run.
func runLogger(console zerolog.Logger, logDir, mode string) (zerolog.Logger, func()) {
	if logDir == "" {
		return console, func() {}
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		console.Warn().Err(err).Str("dir", logDir).Msg("could not create log directory")
		return console, func() {}
	}

	path := filepath.Join(logDir, mode+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		console.Warn().Err(err).Str("path", path).Msg("could not open log file")
		return console, func() {}
	}

	partsOrder := []string{
		zerolog.TimestampFieldName,
		zerolog.LevelFieldName,
		zerolog.MessageFieldName,
	}

	fileWriter := zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "[" + time.RFC3339 + "]"}
	fileWriter.PartsOrder = partsOrder

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false, TimeFormat: "[" + time.RFC3339 + "]"}
	consoleWriter.PartsOrder = partsOrder

	logger := zerolog.New(zerolog.MultiLevelWriter(consoleWriter, fileWriter)).
		With().Timestamp().Logger().
		Level(console.GetLevel())

	return logger, func() {
		_ = f.Close()
	}
}
