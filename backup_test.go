package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelops/hestiabak/panel"
	"github.com/panelops/hestiabak/report"
)

type fakePanel struct {
	backupErrs map[string]error
	archives   map[string]string
}

func (f *fakePanel) BackupUser(_ context.Context, user string) error {
	if err, ok := f.backupErrs[user]; ok {
		return err
	}
	return nil
}

func (f *fakePanel) LatestArchive(user string) (string, error) {
	path, ok := f.archives[user]
	if !ok {
		return "", fmt.Errorf("%w: account %s", panel.ErrNoArchive, user)
	}
	return path, nil
}

type fakeUploader struct {
	errs     map[string]error
	uploaded []string
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) error {
	if err, ok := f.errs[localPath]; ok {
		return err
	}
	f.uploaded = append(f.uploaded, localPath)
	return nil
}

func writeArchive(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("tar contents"), 0o644))
	return path
}

func TestRunBackupJob_NoUsersSendsNothing(t *testing.T) {
	var logs strings.Builder
	store := &fakeUploader{}
	rep := report.New(report.ModeBackup, "daily")

	finished := 0
	runBackupJob(context.Background(), backupParams{
		panel:  &fakePanel{},
		store:  store,
		report: rep,
		logger: zerolog.New(&logs),
	}, func(context.Context, *report.Report) { finished++ })

	assert.Zero(t, finished, "an empty run must not email a report or touch history")
	assert.Empty(t, store.uploaded)
	assert.Zero(t, rep.Attempted)
	assert.Contains(t, logs.String(), "No users with domains found.")
}

func TestRunBackupJob_HandsFinishedReportToFinish(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "acme.2026-08-22_01-10-00.tar")
	rep := report.New(report.ModeBackup, "daily")

	var got *report.Report
	runBackupJob(context.Background(), backupParams{
		users:  []string{"acme"},
		panel:  &fakePanel{archives: map[string]string{"acme": archive}},
		store:  &fakeUploader{},
		report: rep,
		logger: zerolog.Nop(),
	}, func(_ context.Context, r *report.Report) { got = r })

	require.Same(t, rep, got)
	assert.False(t, got.FinishedAt.IsZero())
	assert.Equal(t, 1, got.Succeeded)
}

func TestRunBackups_OneOutcomePerAccount(t *testing.T) {
	dir := t.TempDir()
	acmeArchive := writeArchive(t, dir, "acme.2026-08-22_01-10-00.tar")

	pan := &fakePanel{
		backupErrs: map[string]error{"bravo": errors.New("exit status 1")},
		archives:   map[string]string{"acme": acmeArchive},
	}
	store := &fakeUploader{}
	rep := report.New(report.ModeBackup, "daily")

	runBackups(context.Background(), backupParams{
		users:  []string{"acme", "bravo", "zulu"}, // zulu: command ok, no archive
		panel:  pan,
		store:  store,
		report: rep,
		logger: zerolog.Nop(),
	})

	assert.Equal(t, 3, rep.Attempted)
	assert.Equal(t, 1, rep.Succeeded)
	assert.Equal(t, 2, rep.Failed)
	assert.Equal(t, rep.Attempted, rep.Succeeded+rep.Failed)
	assert.Len(t, rep.Rows, 3, "exactly one outcome row per account")
}

func TestBackupAccount_CommandFailureContinuesRun(t *testing.T) {
	dir := t.TempDir()
	zuluArchive := writeArchive(t, dir, "zulu.2026-08-22_01-10-00.tar")

	pan := &fakePanel{
		backupErrs: map[string]error{"bravo": errors.New("exit status 1")},
		archives:   map[string]string{"zulu": zuluArchive},
	}
	store := &fakeUploader{}
	rep := report.New(report.ModeBackup, "daily")

	runBackups(context.Background(), backupParams{
		users:  []string{"bravo", "zulu"},
		panel:  pan,
		store:  store,
		report: rep,
		logger: zerolog.Nop(),
	})

	require.Len(t, rep.Rows, 2)
	assert.Equal(t, report.OutcomeBackupFailed, rep.Rows[0].Outcome)
	assert.Equal(t, "-", rep.Rows[0].Size)
	assert.Equal(t, "-", rep.Rows[0].Duration)
	assert.Equal(t, report.OutcomeUploaded, rep.Rows[1].Outcome, "run must proceed past a failed account")
}

func TestBackupAccount_MissingArchiveIsDistinct(t *testing.T) {
	pan := &fakePanel{archives: map[string]string{}}
	rep := report.New(report.ModeBackup, "")

	backupAccount(context.Background(), "acme", backupParams{
		panel:  pan,
		store:  &fakeUploader{},
		report: rep,
		logger: zerolog.Nop(),
	})

	require.Len(t, rep.Rows, 1)
	assert.Equal(t, report.OutcomeArchiveNotFound, rep.Rows[0].Outcome)
}

func TestBackupAccount_KeepsLocalArchiveOnUploadFailure(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "acme.2026-08-22_01-10-00.tar")

	pan := &fakePanel{archives: map[string]string{"acme": archive}}
	store := &fakeUploader{errs: map[string]error{archive: errors.New("exit status 1")}}
	rep := report.New(report.ModeBackup, "")

	backupAccount(context.Background(), "acme", backupParams{
		panel:  pan,
		store:  store,
		report: rep,
		logger: zerolog.Nop(),
	})

	require.Len(t, rep.Rows, 1)
	assert.Equal(t, report.OutcomeUploadFailed, rep.Rows[0].Outcome)
	assert.FileExists(t, archive, "local archive must survive a failed upload")
}

func TestBackupAccount_DeletesLocalArchiveAfterUpload(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "acme.2026-08-22_01-10-00.tar")

	pan := &fakePanel{archives: map[string]string{"acme": archive}}
	store := &fakeUploader{}
	rep := report.New(report.ModeBackup, "")

	backupAccount(context.Background(), "acme", backupParams{
		panel:  pan,
		store:  store,
		report: rep,
		logger: zerolog.Nop(),
	})

	require.Len(t, rep.Rows, 1)
	assert.Equal(t, report.OutcomeUploaded, rep.Rows[0].Outcome)
	assert.Equal(t, []string{archive}, store.uploaded)
	assert.NoFileExists(t, archive, "local archive must be removed after a confirmed upload")
}

func TestBackupAccount_DryRunUploadsNothing(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "acme.2026-08-22_01-10-00.tar")

	pan := &fakePanel{archives: map[string]string{"acme": archive}}
	store := &fakeUploader{}
	rep := report.New(report.ModeBackup, "")

	backupAccount(context.Background(), "acme", backupParams{
		panel:  pan,
		store:  store,
		report: rep,
		dryRun: true,
		logger: zerolog.Nop(),
	})

	assert.Empty(t, store.uploaded)
	assert.FileExists(t, archive)
	assert.Equal(t, 1, rep.Succeeded)
}

func TestChecksumFile(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "acme.tar")

	sum1, err := checksumFile(archive)
	require.NoError(t, err)
	assert.Len(t, sum1, 16)

	sum2, err := checksumFile(archive)
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2)

	_, err = checksumFile(filepath.Join(dir, "missing.tar"))
	assert.Error(t, err)
}
