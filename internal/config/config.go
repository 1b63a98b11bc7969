package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	ArchiveBaseURL string `envconfig:"ARCHIVE_BASE_URL" required:"true"`
	ArchiveToken   string `envconfig:"ARCHIVE_TOKEN"`

	Quality           string `envconfig:"QUALITY" default:"Highest"`
	DownloadSubtitles bool   `envconfig:"DOWNLOAD_SUBTITLES"`
	DownloadAssets    bool   `envconfig:"DOWNLOAD_ASSETS"`

	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"1500ms"`
	WatchWindow    time.Duration `envconfig:"WATCH_WINDOW" default:"10s"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	EnqueueRate    float64       `envconfig:"ENQUEUE_RATE" default:"8"`
	EnqueueBurst   int           `envconfig:"ENQUEUE_BURST" default:"4"`

	LogLevel          string `envconfig:"LOG_LEVEL" default:"INFO"`
	DBPath            string `envconfig:"DB_PATH" default:"coursefetch.db"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`

	Telemetry struct {
		Enabled        bool   `split_words:"true" default:"true"`
		ServiceName    string `split_words:"true" default:"coursefetch"`
		ServiceVersion string `split_words:"true" default:"dev"`
	}

	Web struct {
		BindAddress     string        `split_words:"true" default:"127.0.0.1:8844"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"30s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
