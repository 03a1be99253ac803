package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken  string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath    string `envconfig:"DB_PATH" default:"./data/reminders.db"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json|console
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"` // healthz

	ImageAPIURL      string        `envconfig:"IMAGE_API_URL" default:"https://cataas.com/cat/cute/says/Drink%20Water"`
	FallbackImageURL string        `envconfig:"FALLBACK_IMAGE_URL" default:"https://cataas.com/cat/cute"`
	ImageAttempts    int           `envconfig:"IMAGE_ATTEMPTS" default:"3"`
	ImageRetryDelay  time.Duration `envconfig:"IMAGE_RETRY_DELAY" default:"2s"`
	ImageTimeout     time.Duration `envconfig:"IMAGE_TIMEOUT" default:"10s"`

	// SendRate caps outbound messages per second across all chats.
	SendRate int `envconfig:"SEND_RATE" default:"25"`

	// IntervalUnit is the length of one frequency hour; lower it for local testing.
	IntervalUnit time.Duration `envconfig:"INTERVAL_UNIT" default:"1h"`

	PollTimeout int `envconfig:"POLL_TIMEOUT" default:"30"` // long-poll seconds
}

// Load reads an optional .env file and then environment variables into Config.
func Load() (Config, error) {
	// A missing .env is fine; real environment variables still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot express as tags.
func (c Config) Validate() error {
	switch {
	case c.ImageAttempts < 1:
		return fmt.Errorf("IMAGE_ATTEMPTS must be >= 1, got %d", c.ImageAttempts)
	case c.ImageRetryDelay < 0:
		return fmt.Errorf("IMAGE_RETRY_DELAY must not be negative, got %s", c.ImageRetryDelay)
	case c.ImageTimeout <= 0:
		return fmt.Errorf("IMAGE_TIMEOUT must be positive, got %s", c.ImageTimeout)
	case c.SendRate < 1:
		return fmt.Errorf("SEND_RATE must be >= 1, got %d", c.SendRate)
	case c.IntervalUnit <= 0:
		return fmt.Errorf("INTERVAL_UNIT must be positive, got %s", c.IntervalUnit)
	case c.PollTimeout < 0:
		return fmt.Errorf("POLL_TIMEOUT must not be negative, got %d", c.PollTimeout)
	}
	return nil
}
