package auth

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type ResetMailer interface {
	SendResetCode(ctx context.Context, email, code string) error
}

type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NewSMTPMailer returns nil when SMTP is not configured; the caller treats
// a nil mailer as "log instead of send".
func NewSMTPMailer(cfg SMTPConfig) ResetMailer {
	if strings.TrimSpace(cfg.Host) == "" || cfg.Port <= 0 || strings.TrimSpace(cfg.From) == "" {
		return nil
	}
	return &SMTPMailer{
		host: strings.TrimSpace(cfg.Host),
		port: cfg.Port,
		user: strings.TrimSpace(cfg.User),
		pass: cfg.Pass,
		from: strings.TrimSpace(cfg.From),
	}
}

func (m *SMTPMailer) SendResetCode(ctx context.Context, email, code string) error {
	_ = ctx
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	subject := "Elder Line Portal Password Reset"
	body := fmt.Sprintf("Your password reset code: %s\nValid for 15 minutes. Do not share this code.", code)
	msg := "From: " + m.from + "\r\n" +
		"To: " + email + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
		body + "\r\n"

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send reset code: %w", err)
	}
	return nil
}
