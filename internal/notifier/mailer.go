package notifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"sysalarm/internal/config"
)

// Mailer delivers alert notifications over SMTP. Delivery is best-effort:
// callers log failures and carry on.
type Mailer struct {
	cfg config.SMTPConfig
}

// errNotConfigured is returned when host or recipient is missing.
var errNotConfigured = errors.New("smtp not configured")

// NewMailer creates a mailer from SMTP settings.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether enough settings are present to attempt delivery.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.Recipient != ""
}

// Send delivers one alert message. The context and the configured timeout
// bound the whole attempt.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if !m.Enabled() {
		return errNotConfigured
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if m.cfg.UseSSL {
		conn = tls.Client(conn, &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12})
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	// Plain sockets upgrade via STARTTLS when the server offers it.
	if !m.cfg.UseSSL {
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	from := m.from()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}

	if err := client.Rcpt(m.cfg.Recipient); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	if _, err := w.Write(buildMessage(from, m.cfg.Recipient, subject, body)); err != nil {
		_ = w.Close()

		return fmt.Errorf("write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}

	return client.Quit()
}

// from picks the sender address: the configured username when it looks
// like an address, a no-reply fallback otherwise.
func (m *Mailer) from() string {
	if strings.Contains(m.cfg.Username, "@") {
		return m.cfg.Username
	}

	return "noreply@" + m.cfg.Host
}

// buildMessage assembles a minimal RFC 5322 message.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	return []byte(b.String())
}
