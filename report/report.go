// Package report accumulates the per-account outcomes of one run and
// renders them as the HTML email body.
package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/docker/go-units"
)

type Mode string

const (
	ModeBackup  Mode = "backup"
	ModeCleanup Mode = "cleanup"
)

type Outcome string

const (
	OutcomeUploaded          Outcome = "Uploaded"
	OutcomeBackupFailed      Outcome = "Backup Failed"
	OutcomeArchiveNotFound   Outcome = "Archive Not Found"
	OutcomeUploadFailed      Outcome = "Upload Failed"
	OutcomeLocalDeleteFailed Outcome = "Local Delete Failed"
	OutcomeListFailed        Outcome = "Remote List Failed"
)

// Row is one account's outcome. Size and Duration are "-" when the
// account never reached the upload stage.
type Row struct {
	Account  string
	Outcome  Outcome
	Size     string
	Duration string
	Checksum string
}

// Report is built fresh per run and is append-only: rows and counters
// only ever grow until Finish.
type Report struct {
	Mode       Mode
	Label      string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       []Row

	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	Deleted   int

	BytesTransferred int64
	BytesFreed       int64
}

func New(mode Mode, label string) *Report {
	return &Report{Mode: mode, Label: label, StartedAt: time.Now()}
}

func (r *Report) AddSuccess(account string, size int64, took time.Duration, checksum string) {
	r.Attempted++
	r.Succeeded++
	r.BytesTransferred += size
	r.Rows = append(r.Rows, Row{
		Account:  account,
		Outcome:  OutcomeUploaded,
		Size:     units.HumanSize(float64(size)),
		Duration: took.Round(time.Second).String(),
		Checksum: checksum,
	})
}

func (r *Report) AddFailure(account string, outcome Outcome) {
	r.Attempted++
	r.Failed++
	r.Rows = append(r.Rows, Row{Account: account, Outcome: outcome, Size: "-", Duration: "-"})
}

func (r *Report) AddCleanup(account string, deleted int, freed int64, skipped int, took time.Duration) {
	r.Attempted++
	r.Succeeded++
	r.Deleted += deleted
	r.BytesFreed += freed
	r.Skipped += skipped
	r.Rows = append(r.Rows, Row{
		Account:  account,
		Outcome:  Outcome(fmt.Sprintf("%d deleted", deleted)),
		Size:     units.HumanSize(float64(freed)),
		Duration: took.Round(time.Second).String(),
	})
}

func (r *Report) Finish() {
	r.FinishedAt = time.Now()
}

func (r *Report) Title() string {
	switch r.Mode {
	case ModeCleanup:
		return "Cleanup run " + r.StartedAt.Format("2006-01-02 15:04")
	default:
		return "Backup run " + r.StartedAt.Format("2006-01-02 15:04")
	}
}

func (r *Report) Subject() string {
	prefix := ""
	if r.Label != "" {
		prefix = "[" + r.Label + "] "
	}
	switch r.Mode {
	case ModeCleanup:
		return fmt.Sprintf("%sCleanup report: %d archives deleted, %s freed",
			prefix, r.Deleted, units.HumanSize(float64(r.BytesFreed)))
	default:
		return fmt.Sprintf("%sBackup report: %d/%d accounts uploaded",
			prefix, r.Succeeded, r.Attempted)
	}
}

// Summary is the one-line count rollup shown above the detail table.
func (r *Report) Summary() string {
	took := r.FinishedAt.Sub(r.StartedAt).Round(time.Second)
	switch r.Mode {
	case ModeCleanup:
		return fmt.Sprintf("%d accounts processed, %d archives deleted, %d skipped, %s freed in %s",
			r.Attempted, r.Deleted, r.Skipped, units.HumanSize(float64(r.BytesFreed)), took)
	default:
		return fmt.Sprintf("%d accounts processed, %d uploaded, %d failed, %s transferred in %s",
			r.Attempted, r.Succeeded, r.Failed, units.HumanSize(float64(r.BytesTransferred)), took)
	}
}

var emailTmpl = template.Must(template.New("report").Parse(`<h2>{{.Title}}</h2>
<p>{{.Summary}}</p>
<table border="1" cellpadding="4" cellspacing="0">
  <tr><th>Account</th><th>Status</th><th>Size</th><th>Duration</th></tr>
{{- range .Rows}}
  <tr><td>{{.Account}}</td><td>{{.Outcome}}</td><td>{{.Size}}</td><td>{{.Duration}}</td></tr>
{{- end}}
</table>
`))

// HTML renders the email body.
func (r *Report) HTML() (string, error) {
	var b strings.Builder
	if err := emailTmpl.Execute(&b, r); err != nil {
		return "", err
	}
	return b.String(), nil
}
