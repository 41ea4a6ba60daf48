package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

const (
	FromName              = "Culture Compass"
	maxRetries            = 3
	ResetPasswordTemplate = "reset_password.tmpl"
	resetLinkLifetime     = "30 minutes"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// Sender is satisfied by *mail.Dialer.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// New returns an SMTP client, or a client that only logs when no host is set.
func New(host string, port int, user, password, from string, log *zap.SugaredLogger) Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if host == "" {
		return &LogMailer{log: log}
	}
	return NewSMTP(mail.NewDialer(host, port, user, password), from, log)
}

type SMTPMailer struct {
	sender     Sender
	from       string
	log        *zap.SugaredLogger
	retryDelay time.Duration
}

func NewSMTP(sender Sender, from string, log *zap.SugaredLogger) *SMTPMailer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SMTPMailer{sender: sender, from: from, log: log, retryDelay: time.Second}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	msg, err := m.compose(ResetPasswordTemplate, to, map[string]string{
		"Email":     to,
		"Link":      link,
		"ExpiresIn": resetLinkLifetime,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *SMTPMailer) compose(templateFile, to string, data any) (*mail.Message, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", templateFile, err)
	}
	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.from, FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())
	return msg, nil
}

// send retries with linear backoff until maxRetries or ctx is done.
func (m *SMTPMailer) send(ctx context.Context, msg *mail.Message) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = m.sender.DialAndSend(msg); err == nil {
			return nil
		}
		m.log.Warnw("mail send failed", "attempt", attempt, "error", err)
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryDelay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("send mail after %d attempts: %w", maxRetries, err)
}

// LogMailer writes reset links to the log. It is used when SMTP is not configured.
type LogMailer struct {
	log *zap.SugaredLogger
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.log.Infow("password reset requested", "to", to, "link", link)
	return nil
}
