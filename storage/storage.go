// Package storage drives the rclone client against the configured
// remote bucket.
package storage

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const rcloneBin = "rclone"

// Runner executes external commands. Tests substitute fakes.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Object is one remote archive as reported by the storage client.
type Object struct {
	Name string
	Size int64
}

type Params struct {
	Remote string
	Bucket string
	Runner Runner
	Logger zerolog.Logger
}

func New(p Params) *Remote {
	if p.Runner == nil {
		p.Runner = execRunner{}
	}
	return &Remote{
		runner: p.Runner,
		remote: p.Remote,
		bucket: p.Bucket,
		logger: p.Logger,
	}
}

type Remote struct {
	runner Runner
	remote string
	bucket string
	logger zerolog.Logger
}

// Target is the rclone destination, "remote:bucket/".
func (r *Remote) Target() string {
	return r.remote + ":" + r.bucket + "/"
}

func (r *Remote) Upload(ctx context.Context, localPath string) error {
	if err := r.runner.Run(ctx, rcloneBin, "copy", localPath, r.Target()); err != nil {
		return fmt.Errorf("upload %s to %s: %w", localPath, r.Target(), err)
	}
	return nil
}

// List returns the remote objects whose name starts with prefix.
// rclone ls prints one "<size> <name>" line per object.
func (r *Remote) List(ctx context.Context, prefix string) ([]Object, error) {
	out, err := r.runner.Output(ctx, rcloneBin, "ls", r.Target())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.Target(), err)
	}

	var objects []Object
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sep := strings.IndexByte(line, ' ')
		if sep < 0 {
			r.logger.Warn().Str("line", line).Msg("unrecognized listing line")
			continue
		}
		size, err := strconv.ParseInt(line[:sep], 10, 64)
		if err != nil {
			r.logger.Warn().Str("line", line).Msg("unrecognized listing size")
			continue
		}
		name := strings.TrimSpace(line[sep+1:])
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		objects = append(objects, Object{Name: name, Size: size})
	}
	return objects, nil
}

func (r *Remote) Delete(ctx context.Context, name string) error {
	if err := r.runner.Run(ctx, rcloneBin, "deletefile", r.Target()+name); err != nil {
		return fmt.Errorf("delete %s%s: %w", r.Target(), name, err)
	}
	return nil
}

var archiveDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ArchiveDate extracts the date token embedded in an archive name.
// Names without a valid token report ok=false; retention treats those
// objects as untouchable rather than as errors.
func ArchiveDate(name string) (time.Time, bool) {
	token := archiveDatePattern.FindString(name)
	if token == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02", token)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
