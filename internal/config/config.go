package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
}

// Telegram contains configuration for the Bot API transport.
type Telegram struct {
	Token string `toml:"token"`
	// APIRoot points at the local Bot API server. Large uploads are only
	// reachable through a self-hosted server running in --local mode.
	APIRoot                string `toml:"api_root"`
	StorageRoot            string `toml:"storage_root"`
	ConnectAttempts        int    `toml:"connect_attempts"`
	ConnectIntervalSeconds int    `toml:"connect_interval_seconds"`
	PollTimeoutSeconds     int    `toml:"poll_timeout_seconds"`
}

// Server contains configuration for the stream file server.
type Server struct {
	Bind          string `toml:"bind"`
	PublicBaseURL string `toml:"public_base_url"`
	CORSOrigin    string `toml:"cors_origin"`
}

// Transcode contains configuration for the ffmpeg invocation.
type Transcode struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	Preset         string `toml:"preset"`
	CRF            int    `toml:"crf"`
	AudioBitrate   string `toml:"audio_bitrate"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Queue contains configuration for the job queue.
type Queue struct {
	Concurrency int `toml:"concurrency"`
}

// Store contains configuration for the completion record store.
type Store struct {
	Driver      string `toml:"driver"`
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
	SupabaseURL string `toml:"supabase_url"`
	SupabaseKey string `toml:"supabase_key"`
	Table       string `toml:"table"`
}

// Redis contains configuration for the optional job status tracker.
type Redis struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Notifications contains configuration for operator alerts over ntfy.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config encapsulates all configuration values for hlsbot.
//
// Configuration sections by subsystem:
//   - Paths: output package root and daemon state
//   - Telegram: bot token, local Bot API server, shared storage mount
//   - Server: stream server bind address and public base URL
//   - Transcode: ffmpeg binaries and encoder knobs
//   - Queue: dispatch concurrency (always 1)
//   - Store: completion record driver
//   - Redis: job status tracking
//   - Logging: log format and level
//   - Notifications: operator alerts
//   - Metrics: Prometheus exposition
type Config struct {
	Paths         Paths         `toml:"paths"`
	Telegram      Telegram      `toml:"telegram"`
	Server        Server        `toml:"server"`
	Transcode     Transcode     `toml:"transcode"`
	Queue         Queue         `toml:"queue"`
	Store         Store         `toml:"store"`
	Redis         Redis         `toml:"redis"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hlsbot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hlsbot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Store.Driver == StoreSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Store.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}
	return nil
}

// LockPath returns the daemon's single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "hlsbot.lock")
}

// ConnectInterval returns the pause between Bot API connection attempts.
func (c *Config) ConnectInterval() time.Duration {
	return time.Duration(c.Telegram.ConnectIntervalSeconds) * time.Second
}

// TranscodeTimeout returns the per-job bound on the ffmpeg invocation.
// Zero means the invocation may run indefinitely.
func (c *Config) TranscodeTimeout() time.Duration {
	if c.Transcode.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Transcode.TimeoutSeconds) * time.Second
}

// RedisTTL returns how long job status hashes are kept.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
