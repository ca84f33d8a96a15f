package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireTelegram reports whether the bot transport can be started. Commands
// that never talk to the Bot API skip this check.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/hlsbot/config.toml"
		}
		return fmt.Errorf("telegram.token is required. Set BOT_TOKEN env var or edit %s (create with 'hlsbot config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateServer() error {
	parsed, err := url.Parse(c.Server.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("server.public_base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server.public_base_url must be an http(s) URL, got %q", c.Server.PublicBaseURL)
	}
	if parsed.Host == "" {
		return errors.New("server.public_base_url must include a host")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.ConnectAttempts <= 0 {
		return errors.New("telegram.connect_attempts must be positive")
	}
	if c.Telegram.ConnectIntervalSeconds < 0 {
		return errors.New("telegram.connect_interval_seconds must not be negative")
	}
	if c.Telegram.PollTimeoutSeconds <= 0 {
		return errors.New("telegram.poll_timeout_seconds must be positive")
	}
	if !strings.Contains(c.Telegram.APIRoot, "://") {
		return fmt.Errorf("telegram.api_root must be a URL, got %q", c.Telegram.APIRoot)
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if c.Transcode.CRF < 0 || c.Transcode.CRF > 51 {
		return errors.New("transcode.crf must be between 0 and 51")
	}
	if c.Transcode.TimeoutSeconds < 0 {
		return errors.New("transcode.timeout_seconds must not be negative")
	}
	switch c.Transcode.Preset {
	case "ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow":
	default:
		return fmt.Errorf("transcode.preset: unsupported value %q", c.Transcode.Preset)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.Concurrency != 1 {
		return fmt.Errorf("queue.concurrency must be 1, got %d", c.Queue.Concurrency)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreSQLite, StoreNone:
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn must be set when store.driver is postgres (or set DATABASE_URL)")
		}
	case StoreSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			return errors.New("store.supabase_url and store.supabase_key must be set when store.driver is supabase")
		}
	default:
		return fmt.Errorf("store.driver: unsupported value %q", c.Store.Driver)
	}
	for _, r := range c.Store.Table {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("store.table: invalid identifier %q", c.Store.Table)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
