package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTelegram()
	c.normalizeServer()
	c.normalizeTranscode()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeRedis()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	if c.Telegram.Token == "" {
		if value, ok := os.LookupEnv("BOT_TOKEN"); ok {
			c.Telegram.Token = strings.TrimSpace(value)
		}
	}
	c.Telegram.APIRoot = strings.TrimSpace(c.Telegram.APIRoot)
	if c.Telegram.APIRoot == "" {
		if value, ok := os.LookupEnv("TELEGRAM_API_ROOT"); ok {
			c.Telegram.APIRoot = strings.TrimSpace(value)
		}
	}
	if c.Telegram.APIRoot == "" {
		c.Telegram.APIRoot = defaultAPIRoot
	}
	c.Telegram.APIRoot = strings.TrimRight(c.Telegram.APIRoot, "/")
	c.Telegram.StorageRoot = strings.TrimSpace(c.Telegram.StorageRoot)
	if c.Telegram.StorageRoot == "" {
		if value, ok := os.LookupEnv("LOCAL_API_DIR"); ok {
			c.Telegram.StorageRoot = strings.TrimSpace(value)
		}
	}
	if c.Telegram.StorageRoot == "" {
		c.Telegram.StorageRoot = defaultStorageRoot
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.PublicBaseURL = strings.TrimSpace(c.Server.PublicBaseURL)
	if c.Server.PublicBaseURL == "" {
		if value, ok := os.LookupEnv("PUBLIC_URL"); ok && strings.TrimSpace(value) != "" {
			c.Server.PublicBaseURL = strings.TrimRight(strings.TrimSpace(value), "/") + "/stream"
		}
	}
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = defaultPublicBaseURL
	}
	c.Server.PublicBaseURL = strings.TrimRight(c.Server.PublicBaseURL, "/")
	c.Server.CORSOrigin = strings.TrimSpace(c.Server.CORSOrigin)
}

func (c *Config) normalizeTranscode() {
	c.Transcode.FFmpegBinary = strings.TrimSpace(c.Transcode.FFmpegBinary)
	if c.Transcode.FFmpegBinary == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Transcode.FFprobeBinary = strings.TrimSpace(c.Transcode.FFprobeBinary)
	if c.Transcode.FFprobeBinary == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
	c.Transcode.Preset = strings.ToLower(strings.TrimSpace(c.Transcode.Preset))
	if c.Transcode.Preset == "" {
		c.Transcode.Preset = defaultPreset
	}
	c.Transcode.AudioBitrate = strings.TrimSpace(c.Transcode.AudioBitrate)
	if c.Transcode.AudioBitrate == "" {
		c.Transcode.AudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeStore() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = defaultStoreDriver
	}
	if strings.TrimSpace(c.Store.SQLitePath) == "" {
		c.Store.SQLitePath = defaultSQLitePath
	}
	var err error
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}
	c.Store.PostgresDSN = strings.TrimSpace(c.Store.PostgresDSN)
	if c.Store.PostgresDSN == "" {
		if value, ok := os.LookupEnv("DATABASE_URL"); ok {
			c.Store.PostgresDSN = strings.TrimSpace(value)
		}
	}
	c.Store.SupabaseURL = strings.TrimSpace(c.Store.SupabaseURL)
	if c.Store.SupabaseURL == "" {
		if value, ok := os.LookupEnv("SUPABASE_URL"); ok {
			c.Store.SupabaseURL = strings.TrimSpace(value)
		}
	}
	c.Store.SupabaseURL = strings.TrimRight(c.Store.SupabaseURL, "/")
	c.Store.SupabaseKey = strings.TrimSpace(c.Store.SupabaseKey)
	if c.Store.SupabaseKey == "" {
		if value, ok := os.LookupEnv("SUPABASE_KEY"); ok {
			c.Store.SupabaseKey = strings.TrimSpace(value)
		}
	}
	c.Store.Table = strings.TrimSpace(c.Store.Table)
	if c.Store.Table == "" {
		c.Store.Table = defaultStoreTable
	}
	return nil
}

func (c *Config) normalizeRedis() {
	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)
	if c.Redis.Addr == "" {
		if value, ok := os.LookupEnv("REDIS_ADDR"); ok {
			c.Redis.Addr = strings.TrimSpace(value)
		}
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Redis.TTLSeconds <= 0 {
		c.Redis.TTLSeconds = defaultRedisTTLSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		if expanded, err := expandPath(c.Logging.File); err == nil {
			c.Logging.File = expanded
		}
	}
	c.Metrics.Path = strings.TrimSpace(c.Metrics.Path)
	if c.Metrics.Path == "" {
		c.Metrics.Path = defaultMetricsPath
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		c.Metrics.Path = "/" + c.Metrics.Path
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}
