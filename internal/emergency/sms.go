package emergency

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Alert is one outgoing emergency message.
type Alert struct {
	Message  string
	Location *Location
}

func (a Alert) Body() string {
	body := a.Message
	if a.Location != nil {
		body += "\nApproximate location: " + a.Location.Describe()
		if link := a.Location.MapsLink(); link != "" {
			body += "\n" + link
		}
	}
	return body
}

// Transport delivers an alert to the emergency contact.
type Transport interface {
	Send(ctx context.Context, alert Alert) error
	Configured() bool
}

type SMSConfig struct {
	AccountSID string
	AuthToken  string
	BaseURL    string
	From       string
	To         string
}

// SMSTransport sends alerts through a Twilio-compatible messages
// endpoint.
type SMSTransport struct {
	cfg  SMSConfig
	http *http.Client
}

func NewSMSTransport(cfg SMSConfig) *SMSTransport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	return &SMSTransport{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *SMSTransport) Configured() bool {
	return t.cfg.AccountSID != "" && t.cfg.AuthToken != "" && t.cfg.From != "" && t.cfg.To != ""
}

func (t *SMSTransport) Send(ctx context.Context, alert Alert) error {
	form := url.Values{}
	form.Set("From", t.cfg.From)
	form.Set("To", t.cfg.To)
	form.Set("Body", alert.Body())

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.cfg.BaseURL, t.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("send sms: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
