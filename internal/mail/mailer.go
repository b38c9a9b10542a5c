package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/memoryhaze/memoryhaze/internal/config"
)

// Notifier delivers the product's transactional mail: signup / reset
// one-time codes and the "your gift is ready" link.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
	SendGiftReady(ctx context.Context, email, recipientName, giftURL string) error
}

type SMTPMailer struct {
	cfg config.MailConfig
	log zerolog.Logger
}

func NewSMTPMailer(cfg config.MailConfig, log zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	subject := "Your MemoryHaze verification code"
	body := fmt.Sprintf("Your verification code is %s. It expires in a few minutes.", code)
	return m.send(email, subject, body)
}

func (m *SMTPMailer) SendGiftReady(ctx context.Context, email, recipientName, giftURL string) error {
	subject := fmt.Sprintf("Your gift for %s is ready", recipientName)
	body := fmt.Sprintf("The gift you ordered for %s is ready to view:\r\n\r\n%s", recipientName, giftURL)
	return m.send(email, subject, body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer is used in development when no SMTP host is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendOTP(ctx context.Context, email, code string) error {
	m.log.Info().Str("email", email).Str("code", code).Msg("otp mail (log only)")
	return nil
}

func (m *LogMailer) SendGiftReady(ctx context.Context, email, recipientName, giftURL string) error {
	m.log.Info().Str("email", email).Str("url", giftURL).Msg("gift-ready mail (log only)")
	return nil
}
