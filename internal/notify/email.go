package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
)

// EmailConfig holds SMTP settings for summary mail.
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
}

// Enabled reports whether any email setting was provided.
func (c EmailConfig) Enabled() bool {
	return c.Host != "" || c.From != "" || len(c.To) > 0
}

// Email sends summaries over SMTP.
type Email struct {
	send func(e *email.Email, addr string, auth smtp.Auth) error
	cfg  EmailConfig
}

// NewEmail creates an email notifier.
func NewEmail(cfg EmailConfig) *Email {
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &Email{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Notify mails the summary as plain text.
func (n *Email) Notify(ctx context.Context, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := n.message(lines, time.Now())

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%s", n.cfg.Host, n.cfg.Port)
	if err := n.send(e, addr, auth); err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}
	return nil
}

func (n *Email) message(lines []string, now time.Time) *email.Email {
	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = append([]string(nil), n.cfg.To...)
	e.Subject = "Bank feed run " + now.Format("2006-01-02 15:04")
	e.Text = []byte(strings.Join(lines, "\n") + "\n")
	return e
}
