package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"

	"gopkg.in/gomail.v2"

	"github.com/blockedby/autorecruit/internal/logger"
)

// SMTPConfig describes how to reach and authenticate with a mail server.
type SMTPConfig struct {
	Host     string `validate:"required,hostname_rfc1123"`
	Port     int    `validate:"required,min=1,max=65535"`
	Username string `validate:"required"`
	Password string `validate:"required"`
	// UseTLS requires an encrypted connection: implicit TLS on port 465,
	// STARTTLS elsewhere. Credentials are never sent before TLS is up.
	UseTLS bool
}

// Validate checks the SMTP settings.
func (c SMTPConfig) Validate() error {
	return validate.Struct(c)
}

// Provider is a known mail service.
type Provider struct {
	Name   string
	Host   string
	Port   int
	UseTLS bool
}

var providers = map[string]Provider{
	"gmail":   {Name: "gmail", Host: "smtp.gmail.com", Port: 587, UseTLS: true},
	"outlook": {Name: "outlook", Host: "smtp.office365.com", Port: 587, UseTLS: true},
	"custom":  {Name: "custom", Port: 587, UseTLS: true},
}

// Preset returns the connection settings of a known provider
// ("gmail", "outlook" or "custom").
func Preset(name string) (Provider, error) {
	p, ok := providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Provider{}, fmt.Errorf("unknown smtp provider %q", name)
	}
	return p, nil
}

// SMTPTransport sends mail through an SMTP server using gomail.
type SMTPTransport struct {
	cfg  SMTPConfig
	dial func() (gomail.SendCloser, error)
	log  *logger.Logger
}

// NewSMTPTransport creates a transport for cfg.
func NewSMTPTransport(cfg SMTPConfig, log *logger.Logger) *SMTPTransport {
	if log == nil {
		log = logger.Nop()
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseTLS && cfg.Port == 465
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	if cfg.UseTLS {
		// gomail only upgrades when the server offers STARTTLS
		d.Auth = newTLSAuth(cfg.Host, cfg.Username, cfg.Password)
	}

	return &SMTPTransport{
		cfg:  cfg,
		dial: d.Dial,
		log:  log.Component("smtp"),
	}
}

// Open validates the settings and dials the server.
func (t *SMTPTransport) Open(ctx context.Context) (Session, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("smtp config: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sc, err := t.dial()
	if err != nil {
		return nil, wrapTransport("dial", err)
	}

	t.log.Info().Str("host", t.cfg.Host).Int("port", t.cfg.Port).Msg("smtp session opened")
	return &smtpSession{transport: t, conn: sc}, nil
}

type smtpSession struct {
	transport *SMTPTransport

	mu   sync.Mutex
	conn gomail.SendCloser
}

// Send delivers one message. A lost connection is closed and redialed on the
// next call; the failed message itself is not re-sent.
func (s *smtpSession) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		sc, err := s.transport.dial()
		if err != nil {
			return wrapTransport("dial", err)
		}
		s.transport.log.Debug().Msg("smtp session redialed")
		s.conn = sc
	}

	m := buildMessage(msg)
	if err := s.conn.Send(msg.From, []string{msg.To}, m); err != nil {
		if connectionLost(err) {
			_ = s.conn.Close()
			s.conn = nil
		}
		return wrapTransport("send", err)
	}
	return nil
}

// Close quits the SMTP session. It is safe to call more than once.
func (s *smtpSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil && !errors.Is(err, io.EOF) {
		return wrapTransport("quit", err)
	}
	return nil
}

// buildMessage converts msg into a MIME message with a plain text body.
func buildMessage(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	if msg.FromName != "" {
		m.SetAddressHeader("From", msg.From, msg.FromName)
	} else {
		m.SetHeader("From", msg.From)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.MessageID != "" {
		m.SetHeader("Message-ID", msg.MessageID)
	}
	m.SetBody("text/plain", msg.Body)

	if a := msg.Attachment; a != nil {
		content := a.Content
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		m.Attach(a.Filename,
			gomail.SetHeader(map[string][]string{
				"Content-Type": {mime.FormatMediaType(contentType, map[string]string{"name": a.Filename})},
			}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		)
	}
	return m
}
