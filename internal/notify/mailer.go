package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Message is an outbound email. An empty Recipient routes to the site inbox.
type Message struct {
	Subject   string
	Body      string
	Recipient string
}

// Mailer sends email. Implementations return an error and never panic;
// callers decide whether a failure matters.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Inbox    string // default recipient for site-owner mail
}

// SMTPMailer sends mail over SMTP with STARTTLS.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *zap.SugaredLogger
}

// NewSMTPMailer creates a mailer for the given SMTP server.
func NewSMTPMailer(cfg SMTPConfig, logger *zap.SugaredLogger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers the message. smtp.SendMail has no context support; the
// dispatcher bounds and times out the call, so only the cancellation check
// happens here.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recipient := msg.Recipient
	if recipient == "" {
		recipient = m.cfg.Inbox
	}
	if recipient == "" {
		return fmt.Errorf("no recipient and no site inbox configured")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(b.String())); err != nil {
		m.logger.Errorw("failed to send email", "subject", msg.Subject, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
