// Package mail sends share notification emails through a hosted email
// API. One request per email, no retry; a failure is the caller's to
// report.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/project-mc/server/internal/config"
)

// Sender delivers share emails. Split out as an interface so services can
// be tested without network access.
type Sender interface {
	SendShareLinks(ctx context.Context, toEmail, subject string, links []string) error
}

type Mailer struct {
	cfg  config.MailConfig
	http *http.Client
}

func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *Mailer) SendShareLinks(ctx context.Context, toEmail, subject string, links []string) error {
	var list strings.Builder
	for _, l := range links {
		escaped := html.EscapeString(l)
		fmt.Fprintf(&list, `<li><a href="%s">%s</a></li>`, escaped, escaped)
	}
	body := fmt.Sprintf(`<div>
  <p>You have been sent %d item(s) via Project MC.</p>
  <ul>%s</ul>
  <p>Links expire in 7 days.</p>
</div>`, len(links), list.String())

	payload, err := json.Marshal(sendRequest{
		From:    m.cfg.FromAddress,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return fmt.Errorf("encoding email: %w", err)
	}

	url := strings.TrimSuffix(m.cfg.BaseURL, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, errBody)
	}
	return nil
}
