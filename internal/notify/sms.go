package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SMSResult reports the outcome of one SMS delivery attempt: either the
// provider's status and message SID, or its error message and code.
type SMSResult struct {
	Success      bool
	Status       string
	SID          string
	ErrorCode    int
	ErrorMessage string
}

// SMSSender sends a text message to the site owner's number.
type SMSSender interface {
	Send(ctx context.Context, body string) SMSResult
}

// TwilioConfig holds Twilio REST API settings.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	BaseURL    string // override for tests; empty means the Twilio API
}

// TwilioSender sends SMS through Twilio's Messages endpoint.
type TwilioSender struct {
	cfg    TwilioConfig
	client *http.Client
	logger *zap.SugaredLogger
}

// NewTwilioSender creates a Twilio-backed SMS sender.
func NewTwilioSender(cfg TwilioConfig, logger *zap.SugaredLogger) *TwilioSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	return &TwilioSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send posts one message. Failures come back in the result rather than as an
// error: delivery is always best-effort and callers only branch on Success.
func (t *TwilioSender) Send(ctx context.Context, body string) SMSResult {
	form := url.Values{}
	form.Set("To", t.cfg.To)
	form.Set("From", t.cfg.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.cfg.BaseURL, t.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SMSResult{ErrorMessage: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Errorw("sms request failed", "error", err)
		return SMSResult{ErrorMessage: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ok struct {
			Status string `json:"status"`
			SID    string `json:"sid"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
			return SMSResult{ErrorMessage: err.Error()}
		}
		return SMSResult{Success: true, Status: ok.Status, SID: ok.SID}
	}

	var apiErr struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return SMSResult{ErrorMessage: resp.Status}
	}
	t.logger.Warnw("sms rejected", "code", apiErr.Code, "message", apiErr.Message)
	return SMSResult{ErrorCode: apiErr.Code, ErrorMessage: apiErr.Message}
}
