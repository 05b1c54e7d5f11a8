package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/core"
)

// EmailChannel sends alerts over SMTP as small HTML messages.
type EmailChannel struct {
	cfg    config.EmailConfig
	logger *zap.SugaredLogger
}

// NewEmailChannel creates an email channel.
func NewEmailChannel(cfg config.EmailConfig, logger *zap.SugaredLogger) *EmailChannel {
	return &EmailChannel{cfg: cfg, logger: logger}
}

// Name implements Channel.
func (c *EmailChannel) Name() string { return "email" }

// Send implements Channel. The whole SMTP conversation runs over a
// connection carrying the context deadline, so a hung or silent server
// fails the send instead of blocking a dispatch worker.
func (c *EmailChannel) Send(ctx context.Context, alert *core.SecurityAlert) error {
	if c.cfg.SMTPHost == "" {
		return fmt.Errorf("email channel not configured: smtp_host is empty")
	}
	if len(c.cfg.ToAddresses) == 0 {
		return fmt.Errorf("email channel not configured: no recipients")
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Severity.String()), alert.Title)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", c.cfg.FromAddress)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(c.cfg.ToAddresses, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(formatEmailBody(alert))

	addr := fmt.Sprintf("%s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing smtp server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return fmt.Errorf("setting smtp deadline: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, c.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: c.cfg.SMTPHost, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if c.cfg.Username != "" {
		auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(c.cfg.FromAddress); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, to := range c.cfg.ToAddresses {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}

	c.logger.Infow("Sent email notification", "alert_id", alert.AlertID, "recipients", len(c.cfg.ToAddresses))
	return nil
}

// formatEmailBody renders the alert as escaped HTML.
func formatEmailBody(alert *core.SecurityAlert) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Security Alert: %s</h2>", html.EscapeString(alert.Title))
	fmt.Fprintf(&b, "<p><b>Alert ID:</b> %s</p>", html.EscapeString(alert.AlertID))
	fmt.Fprintf(&b, "<p><b>Kind:</b> %s</p>", html.EscapeString(alert.Kind.String()))
	fmt.Fprintf(&b, "<p><b>Severity:</b> %s</p>", html.EscapeString(alert.Severity.String()))
	fmt.Fprintf(&b, "<p><b>Timestamp:</b> %s</p>", html.EscapeString(alert.Timestamp.Format(time.RFC3339)))
	if alert.Message != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(alert.Message))
	}
	if len(alert.AffectedIPs) > 0 {
		fmt.Fprintf(&b, "<p><b>Affected IPs:</b> %s</p>", html.EscapeString(strings.Join(alert.AffectedIPs, ", ")))
	}
	b.WriteString("</body></html>")
	return b.String()
}
