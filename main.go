package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
)

const version = "0.4.2"

func newLogger() zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false, TimeFormat: "[" + time.RFC3339 + "]"}
	consoleWriter.PartsOrder = []string{
		zerolog.TimestampFieldName,
		zerolog.LevelFieldName,
		zerolog.MessageFieldName,
	}

	logger := zerolog.New(consoleWriter).
		With().Timestamp().Logger()

	level := zerolog.InfoLevel
	envLevel, ok := os.LookupEnv("LOG_LEVEL")
	if ok {
		parsed, err := zerolog.ParseLevel(envLevel)
		if err != nil {
			logger.Warn().Err(err).Msg("could not parse environment variable LOG_LEVEL")
			return logger
		}
		level = parsed
	}

	return logger.Level(level)
}

func main() {
	logger := newLogger()

	// A bare invocation on a machine without a config file is the first
	// run: drop into interactive setup. Once configured, a bare
	// invocation falls through to kong, which prints usage and exits 1.
	if len(os.Args) == 1 {
		if _, err := os.Stat(defaultConfigPath); errors.Is(err, os.ErrNotExist) {
			if err := runSetup(defaultConfigPath, defaultSecretPath, logger); err != nil {
				logger.Error().Err(err).Msg("setup error")
				os.Exit(1)
			}
			return
		}
	}

	args := Command{}
	cli := kong.Parse(&args,
		kong.Name("hestiabak"),
		kong.Description("Backup and retention tooling for HestiaCP hosting accounts."),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignals(cancel)

	switch cli.Command() {
	case "version":
		fmt.Println("hestiabak " + version)
	case "setup":
		err := runSetup(args.Setup.Config, args.Setup.Secret, logger)
		if err != nil {
			logger.Error().Err(err).Msg("setup error")
			cli.Exit(1)
		}
	case "backup":
		err := backupCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("backup error")
			cli.Exit(1)
		}
	case "cleanup":
		err := cleanupCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("cleanup error")
			cli.Exit(1)
		}
	case "history":
		err := historyCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("history error")
			cli.Exit(1)
		}
	case "daemon":
		err := daemonCommand(ctx, args, logger)
		if err != nil {
			logger.Error().Err(err).Msg("daemon error")
			cli.Exit(1)
		}
	default:
		panic(cli.Command())
	}
}

func setupSignals(onSignal func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		onSignal()
	}()
}
