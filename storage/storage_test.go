package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelops/hestiabak/storage"
)

type fakeRunner struct {
	output    []byte
	outputErr error
	runErr    error
	calls     [][]string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.outputErr
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.runErr
}

func newRemote(runner storage.Runner) *storage.Remote {
	return storage.New(storage.Params{
		Remote: "wasabi",
		Bucket: "srv-backups",
		Runner: runner,
		Logger: zerolog.Nop(),
	})
}

func TestTarget(t *testing.T) {
	assert.Equal(t, "wasabi:srv-backups/", newRemote(&fakeRunner{}).Target())
}

func TestUpload(t *testing.T) {
	runner := &fakeRunner{}
	err := newRemote(runner).Upload(context.Background(), "/backup/acme.2026-08-22_01-10-00.tar")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"rclone", "copy", "/backup/acme.2026-08-22_01-10-00.tar", "wasabi:srv-backups/"},
	}, runner.calls)
}

func TestUpload_Failure(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("exit status 1")}
	err := newRemote(runner).Upload(context.Background(), "/backup/acme.tar")
	assert.Error(t, err)
}

func TestList_ParsesAndFilters(t *testing.T) {
	runner := &fakeRunner{output: []byte(
		"      123 acme.2026-08-20_01-10-00.tar\n" +
			"     4567 acme.2026-08-22_01-10-00.tar\n" +
			"       89 bravo.2026-08-22_01-10-00.tar\n" +
			"garbage\n" +
			"      foo acme.broken.tar\n" +
			"\n")}

	objects, err := newRemote(runner).List(context.Background(), "acme.")
	require.NoError(t, err)
	assert.Equal(t, []storage.Object{
		{Name: "acme.2026-08-20_01-10-00.tar", Size: 123},
		{Name: "acme.2026-08-22_01-10-00.tar", Size: 4567},
	}, objects)
}

func TestList_Failure(t *testing.T) {
	runner := &fakeRunner{outputErr: errors.New("exit status 3")}
	_, err := newRemote(runner).List(context.Background(), "acme.")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	runner := &fakeRunner{}
	err := newRemote(runner).Delete(context.Background(), "acme.2026-05-01_01-10-00.tar")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"rclone", "deletefile", "wasabi:srv-backups/acme.2026-05-01_01-10-00.tar"},
	}, runner.calls)
}

func TestArchiveDate(t *testing.T) {
	tests := []struct {
		name string
		want time.Time
		ok   bool
	}{
		{"acme.2026-08-20_01-10-00.tar", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), true},
		{"acme.2026-08-20.tar", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), true},
		{"acme.tar", time.Time{}, false},
		{"acme.backup.tar", time.Time{}, false},
		{"acme.2026-13-40_01-10-00.tar", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := storage.ArchiveDate(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.True(t, got.Equal(tt.want), tt.name)
		}
	}
}
