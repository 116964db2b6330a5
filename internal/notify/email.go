package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/DCAMailer/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ImplicitTLSPort is the submission port that expects TLS from the first byte
const ImplicitTLSPort = 465

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	// TLSConfig overrides the default verification settings, mostly for tests.
	TLSConfig *tls.Config
}

// EmailSender delivers one message per call over an authenticated TLS session
type EmailSender struct {
	config SMTPConfig
	logger zerolog.Logger
}

func NewEmailSender(config SMTPConfig) *EmailSender {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &EmailSender{
		config: config,
		logger: log.With().Str("component", "smtp_sender").Logger(),
	}
}

func (s *EmailSender) tlsConfig() *tls.Config {
	if s.config.TLSConfig != nil {
		cfg := s.config.TLSConfig.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = s.config.Host
		}
		return cfg
	}
	return &tls.Config{ServerName: s.config.Host, MinVersion: tls.VersionTLS12}
}

// Send opens a connection, upgrades it to TLS, authenticates and submits msg.
// The connection is closed on every return path.
func (s *EmailSender) Send(ctx context.Context, msg models.EmailMessage) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	body, err := buildMessage(msg, time.Now())
	if err != nil {
		return &models.DeliveryError{Stage: "compose", Err: err}
	}

	dialer := &net.Dialer{Timeout: s.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &models.DeliveryError{Stage: "dial", Err: err}
	}

	deadline := time.Now().Add(s.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	implicitTLS := s.config.Port == ImplicitTLSPort
	if implicitTLS {
		tlsConn := tls.Client(conn, s.tlsConfig())
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return &models.DeliveryError{Stage: "tls", Err: err}
		}
		conn = tlsConn
	}

	c, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return &models.DeliveryError{Stage: "greeting", Err: err}
	}
	defer func() { _ = c.Close() }()

	if !implicitTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return &models.DeliveryError{Stage: "tls", Err: errors.New("server does not offer STARTTLS")}
		}
		if err := c.StartTLS(s.tlsConfig()); err != nil {
			return &models.DeliveryError{Stage: "tls", Err: err}
		}
	}

	if err := c.Auth(smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)); err != nil {
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) {
			return &models.AuthError{Err: err}
		}
		return &models.DeliveryError{Stage: "auth", Err: err}
	}

	if err := c.Mail(msg.From); err != nil {
		return &models.DeliveryError{Stage: "mail", Err: err}
	}
	if err := c.Rcpt(msg.To); err != nil {
		return &models.DeliveryError{Stage: "rcpt", Err: err}
	}

	w, err := c.Data()
	if err != nil {
		return &models.DeliveryError{Stage: "data", Err: err}
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return &models.DeliveryError{Stage: "data", Err: err}
	}
	if err := w.Close(); err != nil {
		return &models.DeliveryError{Stage: "data", Err: err}
	}

	// the message is accepted once DATA completes
	if err := c.Quit(); err != nil {
		s.logger.Debug().Err(err).Msg("QUIT failed after delivery")
	}

	s.logger.Info().Str("to", msg.To).Msg("Email sent")
	return nil
}

// buildMessage renders a multipart/alternative message with text and HTML parts
func buildMessage(msg models.EmailMessage, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []string{
		"From: " + sanitizeHeader(msg.From),
		"To: " + sanitizeHeader(msg.To),
		"Subject: " + mime.QEncoding.Encode("utf-8", sanitizeHeader(msg.Subject)),
		"Date: " + now.Format(time.RFC1123Z),
		"Message-ID: " + messageID(msg.From),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q", mw.Boundary()),
		"",
		"",
	}
	buf.WriteString(strings.Join(headers, "\r\n"))

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = sanitizeHeader(from[at+1:])
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
