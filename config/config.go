package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultBackupDir   = "/backup"
	defaultHomeDir     = "/home"
	defaultAdminUser   = "admin"
	defaultBackupCron  = "15 2 * * *"
	defaultCleanupCron = "45 4 * * *"
)

// Config is the typed view of the key=value settings file. The file
// stays shell sourceable so existing tooling on the server can keep
// reading it.
type Config struct {
	RcloneRemote  string
	RcloneBucket  string
	ToEmail       string
	FromEmail     string
	RetentionDays int
	ScheduleLabel string

	BackupDir string
	HomeDir   string
	AdminUser string

	BackupCron  string
	CleanupCron string
}

// Load reads and validates the config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetDefault("BACKUP_DIR", defaultBackupDir)
	v.SetDefault("HOME_DIR", defaultHomeDir)
	v.SetDefault("ADMIN_USER", defaultAdminUser)
	v.SetDefault("BACKUP_CRON", defaultBackupCron)
	v.SetDefault("CLEANUP_CRON", defaultCleanupCron)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config %s: %w", path, err)
	}

	cfg := &Config{
		RcloneRemote:  v.GetString("RCLONE_REMOTE"),
		RcloneBucket:  v.GetString("RCLONE_BUCKET"),
		ToEmail:       v.GetString("TO_EMAIL"),
		FromEmail:     v.GetString("FROM_EMAIL"),
		RetentionDays: v.GetInt("RETENTION_DAYS"),
		ScheduleLabel: v.GetString("SCHEDULE_LABEL"),
		BackupDir:     v.GetString("BACKUP_DIR"),
		HomeDir:       v.GetString("HOME_DIR"),
		AdminUser:     v.GetString("ADMIN_USER"),
		BackupCron:    v.GetString("BACKUP_CRON"),
		CleanupCron:   v.GetString("CLEANUP_CRON"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing required key at once.
func (c *Config) Validate() error {
	var missing []string
	if c.RcloneRemote == "" {
		missing = append(missing, "RCLONE_REMOTE")
	}
	if c.RcloneBucket == "" {
		missing = append(missing, "RCLONE_BUCKET")
	}
	if c.ToEmail == "" {
		missing = append(missing, "TO_EMAIL")
	}
	if c.FromEmail == "" {
		missing = append(missing, "FROM_EMAIL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config is missing required keys: %s", strings.Join(missing, ", "))
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be a positive number of days")
	}
	return nil
}

// Write persists the config as a shell-sourceable key=value file.
func Write(path string, c *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "RCLONE_REMOTE=%q\n", c.RcloneRemote)
	fmt.Fprintf(&b, "RCLONE_BUCKET=%q\n", c.RcloneBucket)
	fmt.Fprintf(&b, "TO_EMAIL=%q\n", c.ToEmail)
	fmt.Fprintf(&b, "FROM_EMAIL=%q\n", c.FromEmail)
	fmt.Fprintf(&b, "RETENTION_DAYS=%d\n", c.RetentionDays)
	fmt.Fprintf(&b, "SCHEDULE_LABEL=%q\n", c.ScheduleLabel)
	fmt.Fprintf(&b, "BACKUP_DIR=%q\n", c.BackupDir)
	fmt.Fprintf(&b, "HOME_DIR=%q\n", c.HomeDir)
	fmt.Fprintf(&b, "ADMIN_USER=%q\n", c.AdminUser)
	fmt.Fprintf(&b, "BACKUP_CRON=%q\n", c.BackupCron)
	fmt.Fprintf(&b, "CLEANUP_CRON=%q\n", c.CleanupCron)

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
