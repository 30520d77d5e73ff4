// Package config loads the API settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"dungeonStreakAPI/internal/tracker"
)

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// --- HTTP ---
	Port            string        `envconfig:"PORT" default:"3333"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// --- Storage ---
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Auth ---
	ClerkSecretKey     string `envconfig:"CLERK_SECRET_KEY"`
	ClerkWebhookSecret string `envconfig:"CLERK_WEBHOOK_SECRET"`
	AdminKey           string `envconfig:"ADMIN_KEY"`
	MetricsUser        string `envconfig:"METRICS_USER"`
	MetricsPass        string `envconfig:"METRICS_PASS"`
	PprofSecret        string `envconfig:"PPROF_SECRET"`

	// --- Streaks ---
	StreakMode    string `envconfig:"STREAK_MODE" default:"recompute"`
	ReconcileCron string `envconfig:"RECONCILE_CRON" default:"0 3 * * *"`
	Timezone      string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Notifications ---
	NotifyWebhookURL     string        `envconfig:"NOTIFY_WEBHOOK_URL"`
	NotifyTimeout        time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
	NotifyWorkers        int           `envconfig:"NOTIFY_WORKERS" default:"2"`
	NotifyQueueSize      int           `envconfig:"NOTIFY_QUEUE_SIZE" default:"100"`
	FCMCredentialsJSON   string        `envconfig:"FCM_SERVICE_ACCOUNT_JSON"`
	FCMCredentialsFile   string        `envconfig:"FCM_CREDENTIALS_FILE"`
	FCMTopic             string        `envconfig:"FCM_TOPIC" default:"dungeon-progress"`
	NotifyOnUpdatedEntry bool          `envconfig:"NOTIFY_ON_UPDATED_ENTRY" default:"false"`
	TelegramBotToken     string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID       int64         `envconfig:"TELEGRAM_CHAT_ID"`
	MailgunDomain        string        `envconfig:"MAILGUN_DOMAIN"`
	MailgunAPIKey        string        `envconfig:"MAILGUN_API_KEY"`
	MailgunSender        string        `envconfig:"MAILGUN_SENDER"`
	MailgunRecipients    []string      `envconfig:"MAILGUN_RECIPIENTS"`

	// --- Rate limiting ---
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"30"`

	// --- Logging ---
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads .env (if any) and the process environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return invalid("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return invalid("DB_MIN_CONNS/DB_MAX_CONNS out of range")
		}
	case StoreDriverMemory:
	default:
		return invalid("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.ClerkSecretKey == "" && c.AdminKey == "" {
		return invalid("CLERK_SECRET_KEY or ADMIN_KEY must be set")
	}
	if _, err := tracker.ParseMode(c.StreakMode); err != nil {
		return invalid("STREAK_MODE: %v", err)
	}
	if c.ReconcileCron != "" {
		if _, err := cron.ParseStandard(c.ReconcileCron); err != nil {
			return invalid("RECONCILE_CRON: %v", err)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return invalid("APP_TIMEZONE: %v", err)
	}
	if c.NotifyWorkers <= 0 || c.NotifyQueueSize <= 0 {
		return invalid("NOTIFY_WORKERS and NOTIFY_QUEUE_SIZE must be > 0")
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		return invalid("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if c.MailgunDomain != "" && (c.MailgunAPIKey == "" || c.MailgunSender == "" || len(c.MailgunRecipients) == 0) {
		return invalid("MAILGUN_API_KEY, MAILGUN_SENDER and MAILGUN_RECIPIENTS are required when MAILGUN_DOMAIN is set")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return invalid("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return invalid("LOG_LEVEL: %v", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return invalid("LOG_FORMAT must be text or json")
	}
	return nil
}

// Mode returns the validated streak mode.
func (c *Config) Mode() tracker.Mode {
	m, _ := tracker.ParseMode(c.StreakMode)
	return m
}

// Location returns the zone used to decide what "today" is.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
