package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	From     string
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers a single message. Verify checks connectivity and credentials
// without sending anything.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Verify(ctx context.Context) error
}

type Options struct {
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
}

type SMTPMailer struct {
	cfg  Config
	opts Options
}

func NewSMTP(cfg Config, opts Options) *SMTPMailer {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &SMTPMailer{cfg: cfg, opts: opts}
}

func (m *SMTPMailer) Config() Config {
	return m.cfg
}

// Send retries transient network failures; authentication and permanent
// SMTP rejections fail on the first attempt.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient address is required")
	}
	payload, err := buildMessage(m.cfg.From, msg, time.Now())
	if err != nil {
		return err
	}

	err = retry.Do(
		func() error {
			return m.deliver(ctx, msg.To, payload)
		},
		retry.Context(ctx),
		retry.Attempts(uint(m.opts.Attempts)),
		retry.Delay(m.opts.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			zap.L().Warn("smtp send retry",
				zap.Uint("attempt", n+1),
				zap.String("host", m.cfg.Host),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return Classify(err, m.cfg)
	}
	return nil
}

func (m *SMTPMailer) Verify(ctx context.Context) error {
	client, closeFn, err := m.open(ctx)
	if err != nil {
		return Classify(err, m.cfg)
	}
	defer closeFn()
	if err := client.Quit(); err != nil {
		return Classify(err, m.cfg)
	}
	return nil
}

func (m *SMTPMailer) deliver(ctx context.Context, to string, payload []byte) error {
	client, closeFn, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := client.Mail(addressOnly(m.cfg.From)); err != nil {
		return err
	}
	if err := client.Rcpt(addressOnly(to)); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// open dials, upgrades to TLS and authenticates.
func (m *SMTPMailer) open(ctx context.Context) (*smtp.Client, func(), error) {
	dialer := &net.Dialer{Timeout: m.opts.Timeout}
	tlsConfig := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}

	var (
		conn net.Conn
		err  error
	)
	if m.cfg.Secure {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		conn, err = tlsDialer.DialContext(ctx, "tcp", m.cfg.Addr())
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", m.cfg.Addr())
	}
	if err != nil {
		return nil, nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(m.opts.Timeout))

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	closeFn := func() {
		_ = client.Close()
	}

	if !m.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				closeFn()
				return nil, nil, err
			}
		}
	}

	if m.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
			if err := client.Auth(auth); err != nil {
				closeFn()
				return nil, nil, err
			}
		}
	}
	return client, closeFn, nil
}

// addressOnly strips a display name: "Payroll <hr@example.com>" -> hr@example.com.
func addressOnly(value string) string {
	value = strings.TrimSpace(value)
	if start := strings.LastIndex(value, "<"); start >= 0 {
		if end := strings.LastIndex(value, ">"); end > start {
			return value[start+1 : end]
		}
	}
	return value
}
