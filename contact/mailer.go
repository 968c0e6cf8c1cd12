package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEmailJSURL is the EmailJS REST send endpoint.
const DefaultEmailJSURL = "https://api.emailjs.com/api/v1.0/email/send"

// Mailer forwards a stored message to the site owner.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// EmailJS sends messages through the EmailJS REST API using a template
// with from_name, from_email and message parameters.
type EmailJS struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string // optional access token
	Endpoint   string
	HTTP       *http.Client
}

// Configured reports whether the credentials needed to send are present.
func (e *EmailJS) Configured() bool {
	return e != nil && e.ServiceID != "" && e.TemplateID != "" && e.PublicKey != ""
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send posts m to EmailJS. Any non-2xx answer is an error carrying the body text.
func (e *EmailJS) Send(ctx context.Context, m Message) error {
	if !e.Configured() {
		return fmt.Errorf("contact: emailjs is not configured")
	}
	payload, err := json.Marshal(emailJSRequest{
		ServiceID:   e.ServiceID,
		TemplateID:  e.TemplateID,
		UserID:      e.PublicKey,
		AccessToken: e.PrivateKey,
		TemplateParams: map[string]string{
			"from_name":  m.Name,
			"from_email": m.Email,
			"message":    m.Body,
		},
	})
	if err != nil {
		return err
	}
	endpoint := e.Endpoint
	if endpoint == "" {
		endpoint = DefaultEmailJSURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := e.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("contact: emailjs request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("contact: emailjs returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
