// Package notify posts run reports to the transactional email API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

// DefaultEndpoint is the transactional email API the reports go to.
const DefaultEndpoint = "https://api.brevo.com/v3/smtp/email"

type Mailer struct {
	Endpoint string
	APIKey   string
	From     string
	To       string
	Client   *http.Client
	Logger   zerolog.Logger
}

func NewMailer(apiKey, from, to string, logger zerolog.Logger) *Mailer {
	return &Mailer{
		Endpoint: DefaultEndpoint,
		APIKey:   apiKey,
		From:     from,
		To:       to,
		Client:   cleanhttp.DefaultClient(),
		Logger:   logger,
	}
}

type address struct {
	Email string `json:"email"`
}

type message struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

// Send posts one HTML email. Delivery is best effort and never retried:
// callers log the returned error and move on, a failed notification must
// not fail the run.
func (m *Mailer) Send(ctx context.Context, subject, htmlBody string) error {
	payload, err := json.Marshal(message{
		Sender:      address{Email: m.From},
		To:          []address{{Email: m.To}},
		Subject:     subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("could not encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("could not build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.APIKey)

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("could not send email: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned status %s", resp.Status)
	}

	m.Logger.Info().Str("to", m.To).Str("subject", subject).Msg("report email accepted")
	return nil
}
