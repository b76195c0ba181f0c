package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseName string `envconfig:"DATABASE_NAME" required:"true"`

	YouTubeAPIKey     string `envconfig:"YOUTUBE_API_KEY" required:"true"`
	DefaultPlaylistID string `envconfig:"DEFAULT_PLAYLIST_ID"`

	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SecureCookies bool          `envconfig:"SECURE_COOKIES" default:"false"`

	// Timezone decides where a calendar day starts for ledger and streak keys.
	Timezone string `envconfig:"TIMEZONE" default:"UTC"`

	RedisURL string        `envconfig:"REDIS_URL"`
	LockTTL  time.Duration `envconfig:"LOCK_TTL" default:"10s"`

	ImportRatePerMinute int `envconfig:"IMPORT_RATE_PER_MINUTE" default:"5"`
	ImportMaxPages      int `envconfig:"IMPORT_MAX_PAGES" default:"100"`
	ImportConcurrency   int `envconfig:"IMPORT_CONCURRENCY" default:"3"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

func NewConfig() (*Config, error) {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, err
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if len(cfg.SessionSecret) < 16 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 16 characters")
	}

	return cfg, nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) NotificationsEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}
