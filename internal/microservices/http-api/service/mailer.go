package service

import (
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/suhashines/teamsync-backend/internal/config"
)

// Notifier delivers password-reset mail. The reset flow treats any error from
// it as a delivery failure and leaves no usable token behind.
type Notifier interface {
	SendPasswordResetEmail(to, rawToken, displayName string) error
}

// SMTPMailer sends plain-text mail over SMTP with a timeout-bounded dialer.
type SMTPMailer struct {
	addr    string
	auth    smtp.Auth
	from    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewSMTPMailer builds a mailer from config. Auth is only attached when
// credentials are configured.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) *SMTPMailer {
	var a smtp.Auth
	if cfg.SMTPUser != "" || cfg.SMTPPassword != "" {
		a = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, smtpHost(cfg.SMTPAddr))
	}
	return &SMTPMailer{
		addr:    cfg.SMTPAddr,
		auth:    a,
		from:    cfg.SMTPFrom,
		timeout: cfg.SMTPTimeout,
		logger:  logger,
	}
}

func (m *SMTPMailer) SendPasswordResetEmail(to, rawToken, displayName string) error {
	subject := "Reset your TeamSync password"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"We received a request to reset your password. Use the token below to choose a new one:\r\n\r\n"+
			"    %s\r\n\r\n"+
			"The token is valid for a short time and can be used once. "+
			"If you did not request a reset, you can ignore this email.\r\n",
		displayName, rawToken)

	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"\r\n" + body + "\r\n")

	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.Dial("tcp", m.addr)
	if err != nil {
		m.logger.Error("smtp dial failed", "addr", m.addr, "error", err)
		return fmt.Errorf("smtp dial: %w", err)
	}

	client, err := smtp.NewClient(conn, smtpHost(m.addr))
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if m.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(m.auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	m.logger.Info("password reset email sent", "to", to)
	return client.Quit()
}

func smtpHost(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
