// Package captcha verifies reCAPTCHA responses.
package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Verifier checks whether a captcha token is valid. Forms that guard
// outbound notifications (posting requests, contact mail) refuse to proceed
// without a passing token.
type Verifier interface {
	Verify(ctx context.Context, token string) bool
}

const defaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// GoogleVerifier verifies tokens against the reCAPTCHA siteverify endpoint.
type GoogleVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
	logger    *zap.SugaredLogger
}

// NewGoogleVerifier creates a verifier with the given secret key. verifyURL
// overrides the endpoint for tests; empty means Google's.
func NewGoogleVerifier(secret, verifyURL string, logger *zap.SugaredLogger) *GoogleVerifier {
	if verifyURL == "" {
		verifyURL = defaultVerifyURL
	}
	return &GoogleVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// Verify reports whether the token passes. Any transport or decode failure
// counts as not verified.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warnw("captcha verification request failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.logger.Warnw("captcha verification decode failed", "error", err)
		return false
	}

	return result.Success
}
