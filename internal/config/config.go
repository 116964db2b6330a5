package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Alias1177/DCAMailer/models"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	SourceLive        = "live"
	SourcePlaceholder = "placeholder"
)

// Config holds all application configuration
type Config struct {
	SenderEmail    string `env:"SENDER_EMAIL"`
	SenderPassword string `env:"SENDER_PASSWORD"`
	RecipientEmail string `env:"RECIPIENT_EMAIL"`
	SMTPServer     string `env:"SMTP_SERVER" envDefault:"smtp.gmail.com"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	EmailSubject   string `env:"EMAIL_SUBJECT" envDefault:"BTC DCA TIME"`

	ChartInspectAPIKey  string `env:"CHARTINSPECT_API_KEY"`
	ChartInspectBaseURL string `env:"CHARTINSPECT_BASE_URL" envDefault:"https://chartinspect.com/api/v1"`
	CoinGeckoBaseURL    string `env:"COINGECKO_BASE_URL" envDefault:"https://api.coingecko.com/api/v3"`
	DataSource          string `env:"DATA_SOURCE" envDefault:"live"`
	LookbackDays        int    `env:"LOOKBACK_DAYS" envDefault:"7"`

	RequestTimeout int `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RunTimeout     int `env:"RUN_TIMEOUT" envDefault:"300"`    // seconds
	MaxRetries     int `env:"HTTP_MAX_RETRIES" envDefault:"0"`
	RequestsPerSec int `env:"HTTP_REQUESTS_PER_SEC" envDefault:"5"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
	PushgatewayURL   string `env:"PUSHGATEWAY_URL"`
}

var (
	dotEnvOnce sync.Once
	dotEnvErr  error
)

// LoadDotEnv applies a .env file from the working directory at most once per process.
// Variables already present in the environment win.
func LoadDotEnv() error {
	dotEnvOnce.Do(func() {
		if dotEnvErr = godotenv.Load(); dotEnvErr != nil {
			log.Warn().Msg(".env file not found, relying on actual environment variables")
		}
	})
	return dotEnvErr
}

// Load initializes configuration from environment variables.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = LoadDotEnv()
	return FromEnv()
}

// FromEnv reads and validates configuration from the process environment only
func FromEnv() (*Config, error) {
	var cfg Config
	var err error

	cfg.SenderEmail = strings.TrimSpace(os.Getenv("SENDER_EMAIL"))
	cfg.SenderPassword = os.Getenv("SENDER_PASSWORD")
	cfg.RecipientEmail = strings.TrimSpace(os.Getenv("RECIPIENT_EMAIL"))
	cfg.SMTPServer = getEnvWithDefault("SMTP_SERVER", "smtp.gmail.com")
	cfg.EmailSubject = getEnvWithDefault("EMAIL_SUBJECT", "BTC DCA TIME")

	cfg.ChartInspectAPIKey = os.Getenv("CHARTINSPECT_API_KEY")
	cfg.ChartInspectBaseURL = getEnvWithDefault("CHARTINSPECT_BASE_URL", "https://chartinspect.com/api/v1")
	cfg.CoinGeckoBaseURL = getEnvWithDefault("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3")
	cfg.DataSource = strings.ToLower(getEnvWithDefault("DATA_SOURCE", SourceLive))

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.PushgatewayURL = os.Getenv("PUSHGATEWAY_URL")

	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.LookbackDays, err = getEnvInt("LOOKBACK_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvInt("REQUEST_TIMEOUT", 30); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = getEnvInt("RUN_TIMEOUT", 300); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getEnvInt("HTTP_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSec, err = getEnvInt("HTTP_REQUESTS_PER_SEC", 5); err != nil {
		return nil, err
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			return nil, &models.ConfigError{Field: "TELEGRAM_CHAT_ID", Reason: "not an integer"}
		}
		cfg.TelegramChatID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks mandatory values. It never touches the network.
func (c *Config) Validate() error {
	if c.SenderEmail == "" {
		return &models.ConfigError{Field: "SENDER_EMAIL", Reason: "not set"}
	}
	if c.SenderPassword == "" {
		return &models.ConfigError{Field: "SENDER_PASSWORD", Reason: "not set"}
	}
	if c.RecipientEmail == "" {
		return &models.ConfigError{Field: "RECIPIENT_EMAIL", Reason: "not set"}
	}
	switch c.DataSource {
	case SourceLive:
		if c.ChartInspectAPIKey == "" {
			return &models.ConfigError{Field: "CHARTINSPECT_API_KEY", Reason: "required when DATA_SOURCE=live"}
		}
	case SourcePlaceholder:
	default:
		return &models.ConfigError{Field: "DATA_SOURCE", Reason: "must be live or placeholder"}
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return &models.ConfigError{Field: "SMTP_PORT", Reason: "out of range"}
	}
	if c.LookbackDays < 1 {
		return &models.ConfigError{Field: "LOOKBACK_DAYS", Reason: "must be at least 1"}
	}
	if c.RequestTimeout <= 0 {
		return &models.ConfigError{Field: "REQUEST_TIMEOUT", Reason: "must be positive"}
	}
	if c.RunTimeout <= 0 {
		return &models.ConfigError{Field: "RUN_TIMEOUT", Reason: "must be positive"}
	}
	if c.MaxRetries < 0 {
		return &models.ConfigError{Field: "HTTP_MAX_RETRIES", Reason: "must not be negative"}
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		return &models.ConfigError{Field: "TELEGRAM_BOT_TOKEN", Reason: "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together"}
	}
	return nil
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func (c *Config) RunTimeoutDuration() time.Duration {
	return time.Duration(c.RunTimeout) * time.Second
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &models.ConfigError{Field: key, Reason: "not an integer"}
	}
	return intValue, nil
}
