package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "payflow.db",
		JWTTTL:             time.Hour,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 60,
		SMTPSendAttempts:   2,
	}
}

func TestLoadDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("SMTP_SEND_ATTEMPTS", "4")
	t.Setenv("JWT_TTL", "30m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 4, cfg.SMTPSendAttempts)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "K", cfg.CurrencySymbol)
	assert.True(t, cfg.RunMigrations)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("currency_symbol: ZMW\nrate_limit_per_minute: 10\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ZMW", cfg.CurrencySymbol)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid development config", mutate: func(*Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = " " }, wantErr: true},
		{name: "production without jwt secret", mutate: func(c *Config) { c.Environment = "production" }, wantErr: true},
		{
			name: "production with secrets",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.JWTSecret = "secret"
				c.DataEncryptionKey = "0123456789abcdef0123456789abcdef"
				c.RunSeed = false
			},
		},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: true},
		{name: "zero send attempts", mutate: func(c *Config) { c.SMTPSendAttempts = 0 }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
