package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/panelops/hestiabak/config"
)

// runSetup walks through first-run configuration interactively and
// persists the config and secret files. Non-interactive invocation with
// no config is a fatal error, there is nothing sensible to default the
// bucket or recipient to.
func runSetup(configPath, secretPath string, logger zerolog.Logger) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("setup needs an interactive terminal and config file %s is missing", configPath)
	}

	fmt.Println("hestiabak first-run setup")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	cfg := &config.Config{}
	cfg.RcloneRemote = promptLine(reader, "rclone remote name", "s3backup")
	cfg.RcloneBucket = promptLine(reader, "bucket name", "")
	cfg.FromEmail = promptLine(reader, "sender email address", "")
	cfg.ToEmail = promptLine(reader, "report recipient email address", "")

	retention := promptLine(reader, "retention days", "30")
	days, err := strconv.Atoi(retention)
	if err != nil || days <= 0 {
		return fmt.Errorf("retention days must be a positive number, got %q", retention)
	}
	cfg.RetentionDays = days

	cfg.ScheduleLabel = promptLine(reader, "schedule label for report subjects", "daily")
	cfg.BackupDir = promptLine(reader, "panel backup directory", "/backup")
	cfg.HomeDir = promptLine(reader, "panel home directory", "/home")
	cfg.AdminUser = promptLine(reader, "panel admin account", "admin")
	cfg.BackupCron = promptLine(reader, "backup schedule (cron)", "15 2 * * *")
	cfg.CleanupCron = promptLine(reader, "cleanup schedule (cron)", "45 4 * * *")

	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Print("email API key (input hidden): ")
	rawKey, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("could not read API key: %w", err)
	}
	key := strings.TrimSpace(string(rawKey))
	if key == "" {
		return fmt.Errorf("API key must not be empty")
	}

	if err := config.Write(configPath, cfg); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	if err := config.WriteSecret(secretPath, key); err != nil {
		return fmt.Errorf("could not write secret: %w", err)
	}

	logger.Info().Str("config", configPath).Str("secret", secretPath).Msg("setup complete")
	return nil
}

func promptLine(reader *bufio.Reader, label, fallback string) string {
	if fallback != "" {
		fmt.Printf("%s [%s]: ", label, fallback)
	} else {
		fmt.Printf("%s: ", label)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return fallback
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}
