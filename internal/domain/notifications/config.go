package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"payflow/internal/domain/settings"
	"payflow/internal/platform/email"
)

var ErrInvalidConfig = errors.New("invalid email configuration")

type SMTPAuth struct {
	User string `json:"user"`
	Pass string `json:"pass,omitempty"`
}

// SMTPConfig is the stored and accepted shape of the mail settings.
type SMTPConfig struct {
	Host   string   `json:"host"`
	Port   int      `json:"port"`
	Secure bool     `json:"secure"`
	Auth   SMTPAuth `json:"auth"`
	From   string   `json:"from"`
}

// Public drops the password.
func (c SMTPConfig) Public() SMTPConfig {
	c.Auth.Pass = ""
	return c
}

func (c SMTPConfig) mailerConfig() email.Config {
	return email.Config{
		Host:     c.Host,
		Port:     c.Port,
		Secure:   c.Secure,
		Username: c.Auth.User,
		Password: c.Auth.Pass,
		From:     c.From,
	}
}

func (c SMTPConfig) validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.From) == "" {
		return fmt.Errorf("%w: from is required", ErrInvalidConfig)
	}
	if _, err := mail.ParseAddress(c.From); err != nil {
		return fmt.Errorf("%w: from must be a valid email address", ErrInvalidConfig)
	}
	return nil
}

func (s *Service) persist(ctx context.Context, cfg SMTPConfig) error {
	sealed, err := s.Crypto.EncryptToString(cfg.Auth.Pass)
	if err != nil {
		return fmt.Errorf("encrypt smtp password: %w", err)
	}
	cfg.Auth.Pass = sealed
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.Settings.Set(ctx, settings.KeySMTPConfig, string(raw))
	return err
}

func (s *Service) stored(ctx context.Context) (*SMTPConfig, error) {
	setting, err := s.Settings.Get(ctx, settings.KeySMTPConfig)
	if errors.Is(err, settings.ErrSettingNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg SMTPConfig
	if err := json.Unmarshal([]byte(setting.Value), &cfg); err != nil {
		return nil, fmt.Errorf("decode stored smtp config: %w", err)
	}
	if cfg.Auth.Pass, err = s.Crypto.DecryptFromString(cfg.Auth.Pass); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Configure activates cfg. Unless verify is false the server is contacted
// first; unless persist is false the config is saved with the password sealed.
func (s *Service) Configure(ctx context.Context, cfg SMTPConfig, verify, persist bool) error {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.Auth.User = strings.TrimSpace(cfg.Auth.User)
	if err := cfg.validate(); err != nil {
		return err
	}

	mailer := s.dial(cfg.mailerConfig(), s.opts)
	if verify {
		if err := mailer.Verify(ctx); err != nil {
			return email.Classify(err, cfg.mailerConfig())
		}
	}
	if persist {
		if err := s.persist(ctx, cfg); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.mailer = mailer
	s.cfg = &cfg
	s.mu.Unlock()
	zap.L().Info("email service configured", zap.String("host", cfg.Host), zap.Int("port", cfg.Port), zap.Bool("verified", verify))
	return nil
}

// Load activates the stored config without contacting the server. A missing
// config leaves the service unconfigured.
func (s *Service) Load(ctx context.Context) error {
	cfg, err := s.stored(ctx)
	if err != nil {
		return err
	}
	if cfg == nil {
		zap.L().Info("no stored smtp configuration")
		return nil
	}
	return s.Configure(ctx, *cfg, false, false)
}

func (s *Service) IsConfigured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mailer != nil
}

// Config returns the active configuration without the password.
func (s *Service) Config() (SMTPConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return SMTPConfig{}, false
	}
	return s.cfg.Public(), true
}

// Disconnect forgets the active and stored configuration.
func (s *Service) Disconnect(ctx context.Context) error {
	if err := s.Settings.Delete(ctx, settings.KeySMTPConfig); err != nil && !errors.Is(err, settings.ErrSettingNotFound) {
		return err
	}
	s.mu.Lock()
	s.mailer = nil
	s.cfg = nil
	s.mu.Unlock()
	return nil
}
