// Package otp delivers one-time password codes to users over email or
// SMS.  Delivery is best effort: handlers log failures but never leak
// them to the caller of the password-reset flow.
package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// Sender delivers a reset code to a contact.  contactType is "email"
// or "mobile"; purpose shows up in the message subject.
type Sender interface {
	Send(ctx context.Context, contact, contactType, code, purpose string) error
}

// NewSenderFromEnv picks the Resend-backed sender when RESEND_API_KEY
// is set, otherwise a console sender that just logs the code.
func NewSenderFromEnv(log *zap.Logger) Sender {
	if key := os.Getenv("RESEND_API_KEY"); key != "" {
		return &ResendSender{
			APIKey: key,
			From:   envOr("RESEND_FROM", "Voyago <noreply@voyago.example>"),
			Client: &http.Client{Timeout: 10 * time.Second},
			Log:    log,
		}
	}
	log.Warn("RESEND_API_KEY not set, OTP delivery falls back to console")
	return &ConsoleSender{Log: log}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ConsoleSender prints the code to the log.  Used in dev and tests.
type ConsoleSender struct{ Log *zap.Logger }

func (s *ConsoleSender) Send(_ context.Context, contact, contactType, code, purpose string) error {
	s.Log.Info("mock OTP delivery",
		zap.String("contact", contact),
		zap.String("contactType", contactType),
		zap.String("purpose", purpose),
		zap.String("code", code))
	return nil
}

const resendAPI = "https://api.resend.com/emails"

// ResendSender delivers codes through the Resend email API.  Mobile
// contacts have no SMS gateway wired yet, so they degrade to a log
// line the same way the console sender does.
type ResendSender struct {
	APIKey string
	From   string
	Client *http.Client
	Log    *zap.Logger
}

type resendEmail struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text,omitempty"`
}

func (s *ResendSender) Send(ctx context.Context, contact, contactType, code, purpose string) error {
	if contactType == "mobile" {
		s.Log.Info("no SMS gateway configured, logging OTP instead",
			zap.String("mobile", contact), zap.String("code", code))
		return nil
	}

	html := fmt.Sprintf(`
		<h2>Your Voyago verification code</h2>
		<p>Use this code to continue your %s:</p>
		<h3 style="letter-spacing:4px;">%s</h3>
		<p>This code is valid for 10 minutes. If you did not request it, ignore this email.</p>
	`, purpose, code)

	payload := resendEmail{
		From:    s.From,
		To:      contact,
		Subject: "Your Voyago verification code",
		HTML:    html,
		Text:    "Your verification code is " + code,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendAPI, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send OTP email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend API error: %s", resp.Status)
	}
	s.Log.Info("OTP email sent", zap.String("to", contact))
	return nil
}
