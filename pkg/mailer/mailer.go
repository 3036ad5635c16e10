package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"go.uber.org/zap"
)

// Config holds SMTP configuration
type Config struct {
	Host        string
	Port        string
	Username    string
	APIKey      string // sent as the SMTP password
	From        string
	FromName    string
	ImplicitTLS bool // TLS from the first byte (port 465); otherwise STARTTLS when offered
}

// Mailer handles sending emails
type Mailer struct {
	config Config
	log    *zap.Logger
}

// New creates a new Mailer instance
func New(cfg Config, log *zap.Logger) *Mailer {
	if cfg.FromName == "" {
		cfg.FromName = "DeadlineMind"
	}
	return &Mailer{config: cfg, log: log.Named("mailer")}
}

// Available reports a configuration error when the API key or sender address is missing
func (m *Mailer) Available() error {
	var missing []string
	if m.config.APIKey == "" {
		missing = append(missing, "EMAIL_API_KEY")
	}
	if m.config.From == "" {
		missing = append(missing, "EMAIL_FROM_ADDRESS")
	}
	if m.config.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if len(missing) > 0 {
		return apperr.Configuration("mailer", "email service is not configured, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SendVehicleReport sends a rendered vehicle report and returns the Message-ID
func (m *Mailer) SendVehicleReport(ctx context.Context, to model.EmailRecipient, html, subject string) (string, error) {
	if err := m.Available(); err != nil {
		return "", err
	}
	if to.Email == "" {
		return "", apperr.Malformed("mailer.send", "recipient address is empty")
	}
	return m.send(ctx, to, subject, html)
}

// send delivers an email via SMTP
func (m *Mailer) send(ctx context.Context, to model.EmailRecipient, subject, htmlBody string) (string, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(m.config.From))
	msg := m.buildMessage(messageID, to, subject, htmlBody)

	if err := m.deliver(ctx, to.Email, msg); err != nil {
		m.log.Warn("❌ Failed to send email", zap.String("to", to.Email), zap.Error(err))
		return "", classify(err)
	}

	m.log.Info("📧 Email sent", zap.String("to", to.Email), zap.String("subject", subject), zap.String("message_id", messageID))
	return messageID, nil
}

func (m *Mailer) buildMessage(messageID string, to model.EmailRecipient, subject, htmlBody string) []byte {
	from := mail.Address{Name: m.config.FromName, Address: m.config.From}
	rcpt := mail.Address{Name: to.Name, Address: to.Email}

	headers := [][2]string{
		{"From", from.String()},
		{"To", rcpt.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Message-ID", messageID},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=\"utf-8\""},
	}

	var msg bytes.Buffer
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	return msg.Bytes()
}

func (m *Mailer) deliver(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.config.Host, m.config.Port)
	tlsConfig := &tls.Config{ServerName: m.config.Host}

	var (
		conn net.Conn
		err  error
	)
	dialer := &net.Dialer{}
	if m.config.ImplicitTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake failed: %w", err)
	}
	defer c.Close()

	if !m.config.ImplicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls failed: %w", err)
			}
		}
	}

	if ok, _ := c.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", m.config.Username, m.config.APIKey, m.config.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := c.Mail(m.config.From); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO rejected: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}

	return c.Quit()
}

// classify maps SMTP failures onto error kinds. Rejected credentials make the
// whole channel unusable, everything else is retried on the next run.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && (tpErr.Code == 535 || tpErr.Code == 530) {
		return apperr.New(apperr.KindConfiguration, "mailer.send", err)
	}
	return apperr.Transient("mailer.send", err)
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "deadlinemind.local"
}
