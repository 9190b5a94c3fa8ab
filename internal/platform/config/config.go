package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	JWTTTL             time.Duration
	DataEncryptionKey  string
	Environment        string
	SeedAdminUsername  string
	SeedAdminEmail     string
	SeedAdminPassword  string
	RunMigrations      bool
	RunSeed            bool
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	LogLevel           string
	LogFormat          string
	SMTPTimeout        time.Duration
	SMTPSendAttempts   int
	SMTPRetryDelay     time.Duration
	JobQueueSize       int
	CurrencySymbol     string
}

var defaults = map[string]any{
	"app_addr":              ":8080",
	"app_env":               "development",
	"database_url":          "payflow.db",
	"jwt_secret":            "",
	"jwt_ttl":               "12h",
	"data_encryption_key":   "",
	"seed_admin_username":   "admin",
	"seed_admin_email":      "",
	"seed_admin_password":   "",
	"run_migrations":        true,
	"run_seed":              true,
	"max_body_bytes":        10 * 1024 * 1024,
	"rate_limit_per_minute": 120,
	"metrics_enabled":       true,
	"log_level":             "info",
	"log_format":            "json",
	"smtp_timeout":          "10s",
	"smtp_send_attempts":    2,
	"smtp_retry_delay":      "1s",
	"job_queue_size":        64,
	"currency_symbol":       "K",
}

// Load reads .env (if present), the optional config file and the process
// environment, in increasing order of precedence.
func Load(configFile string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	return Config{
		Addr:               v.GetString("app_addr"),
		DatabaseURL:        v.GetString("database_url"),
		JWTSecret:          v.GetString("jwt_secret"),
		JWTTTL:             v.GetDuration("jwt_ttl"),
		DataEncryptionKey:  v.GetString("data_encryption_key"),
		Environment:        v.GetString("app_env"),
		SeedAdminUsername:  v.GetString("seed_admin_username"),
		SeedAdminEmail:     v.GetString("seed_admin_email"),
		SeedAdminPassword:  v.GetString("seed_admin_password"),
		RunMigrations:      v.GetBool("run_migrations"),
		RunSeed:            v.GetBool("run_seed"),
		MaxBodyBytes:       v.GetInt64("max_body_bytes"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		MetricsEnabled:     v.GetBool("metrics_enabled"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		SMTPTimeout:        v.GetDuration("smtp_timeout"),
		SMTPSendAttempts:   v.GetInt("smtp_send_attempts"),
		SMTPRetryDelay:     v.GetDuration("smtp_retry_delay"),
		JobQueueSize:       v.GetInt("job_queue_size"),
		CurrencySymbol:     v.GetString("currency_symbol"),
	}, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production to encrypt the SMTP password")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.SMTPSendAttempts < 1 {
		return fmt.Errorf("SMTP_SEND_ATTEMPTS must be at least 1")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	return nil
}
