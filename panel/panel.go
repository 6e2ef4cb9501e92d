// Package panel wraps the HestiaCP command line tools used to
// enumerate and back up hosting accounts.
package panel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	listUsersBin  = "v-list-users"
	backupUserBin = "v-backup-user"
)

// ErrPanelMissing means the control panel CLI is not installed. This is
// a configuration error and callers must abort before any account work.
var ErrPanelMissing = errors.New("hestia control panel tools not found")

// ErrNoArchive means the backup command finished but left no archive
// behind, which is reported separately from the command failing.
var ErrNoArchive = errors.New("no archive found after backup")

// Runner executes external commands. Tests substitute fakes.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Run(ctx context.Context, name string, args ...string) error
	LookPath(name string) (string, error)
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

type Params struct {
	HomeDir   string
	BackupDir string
	AdminUser string
	Runner    Runner
	Logger    zerolog.Logger
}

func New(p Params) *Client {
	if p.Runner == nil {
		p.Runner = execRunner{}
	}
	return &Client{
		runner:    p.Runner,
		homeDir:   p.HomeDir,
		backupDir: p.BackupDir,
		adminUser: p.AdminUser,
		logger:    p.Logger,
	}
}

type Client struct {
	runner    Runner
	homeDir   string
	backupDir string
	adminUser string
	logger    zerolog.Logger
}

// Users returns the non-admin accounts that have at least one web
// domain, in panel list order.
func (c *Client) Users(ctx context.Context) ([]string, error) {
	if _, err := c.runner.LookPath(listUsersBin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPanelMissing, err)
	}

	out, err := c.runner.Output(ctx, listUsersBin, "plain")
	if err != nil {
		return nil, fmt.Errorf("could not list accounts: %w", err)
	}

	var users []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		user := fields[0]
		if user == c.adminUser {
			continue
		}
		if !c.hasDomains(user) {
			c.logger.Debug().Str("account", user).Msg("skipping account without web domains")
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// hasDomains reports whether the account's web directory is non-empty.
func (c *Client) hasDomains(user string) bool {
	entries, err := os.ReadDir(filepath.Join(c.homeDir, user, "web"))
	return err == nil && len(entries) > 0
}

// BackupUser runs the panel's per-account backup. The archive lands in
// the panel backup directory; use LatestArchive to find it.
func (c *Client) BackupUser(ctx context.Context, user string) error {
	if err := c.runner.Run(ctx, backupUserBin, user); err != nil {
		return fmt.Errorf("%s %s: %w", backupUserBin, user, err)
	}
	return nil
}

// LatestArchive returns the most recently modified archive for the
// account, or ErrNoArchive when none exists.
func (c *Client) LatestArchive(user string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(c.backupDir, user+".*.tar"))
	if err != nil {
		return "", err
	}

	var newest string
	var newestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = m
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w: account %s", ErrNoArchive, user)
	}
	return newest, nil
}
