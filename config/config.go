package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port int `env:"PORT" envDefault:"5250"`

		// debug, release or test
		GinMode string `env:"GIN_MODE" envDefault:"release"`

		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Database struct {
		// sqlite or postgres
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
		DSN    string `env:"DB_DSN" envDefault:"estate.db"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`

		// json or text
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}

	Offers struct {
		// Validity in days given to offers created without one
		DefaultValidity int `env:"OFFER_DEFAULT_VALIDITY" envDefault:"7"`
	}

	Notifications struct {
		// Number of event batches buffered before publishing fails
		QueueSize int `env:"NOTIFY_QUEUE_SIZE" envDefault:"100"`

		// Maximum number of retries for a failed delivery
		MaxRetries int `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`

		RetryDelay time.Duration `env:"NOTIFY_RETRY_DELAY" envDefault:"5s"`

		// Optional JSON file with the event filters
		FiltersFile string `env:"NOTIFY_FILTERS_FILE"`

		TelegramEnabled bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		TelegramToken   string `env:"TELEGRAM_BOT_TOKEN"`
		TelegramChatID  int64  `env:"TELEGRAM_CHAT_ID"`
	}
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Offers.DefaultValidity < 0 {
		return fmt.Errorf("offer default validity must not be negative, got %d", c.Offers.DefaultValidity)
	}
	if c.Notifications.QueueSize <= 0 {
		return fmt.Errorf("notification queue size must be positive, got %d", c.Notifications.QueueSize)
	}
	if c.Notifications.TelegramEnabled {
		if c.Notifications.TelegramToken == "" {
			return errors.New("telegram bot token is not configured")
		}
		if c.Notifications.TelegramChatID == 0 {
			return errors.New("telegram chat ID is not configured")
		}
	}
	return nil
}
