package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"hlsbot/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BOT_TOKEN", "TELEGRAM_API_ROOT", "LOCAL_API_DIR", "PUBLIC_URL", "DATABASE_URL", "SUPABASE_URL", "SUPABASE_KEY", "REDIS_ADDR", "NTFY_TOPIC"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "hlsbot", "media_output")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Server.PublicBaseURL != "http://localhost:3000/stream" {
		t.Fatalf("unexpected public base url: %q", cfg.Server.PublicBaseURL)
	}
	if cfg.Telegram.StorageRoot != "/var/lib/telegram-bot-api" {
		t.Fatalf("unexpected storage root: %q", cfg.Telegram.StorageRoot)
	}
	if cfg.Telegram.ConnectAttempts != 20 || cfg.ConnectInterval() != 2*time.Second {
		t.Fatalf("unexpected connect retry policy: %d x %s", cfg.Telegram.ConnectAttempts, cfg.ConnectInterval())
	}
	if cfg.Queue.Concurrency != 1 {
		t.Fatalf("expected concurrency 1, got %d", cfg.Queue.Concurrency)
	}
	if cfg.TranscodeTimeout() != 0 {
		t.Fatalf("expected unbounded transcode by default, got %s", cfg.TranscodeTimeout())
	}
	if cfg.Store.Driver != config.StoreSQLite {
		t.Fatalf("expected sqlite store by default, got %q", cfg.Store.Driver)
	}
	if !strings.HasPrefix(cfg.Store.SQLitePath, tempHome) {
		t.Fatalf("expected sqlite path under HOME, got %q", cfg.Store.SQLitePath)
	}
	if err := cfg.RequireTelegram(); err == nil {
		t.Fatal("expected missing token to be reported")
	}
}

func TestLoadAppliesEnvironmentFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("PUBLIC_URL", "https://media.example.com/")
	t.Setenv("TELEGRAM_API_ROOT", "http://bot-api:8081/")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("expected token from env, got %q", cfg.Telegram.Token)
	}
	if cfg.Server.PublicBaseURL != "https://media.example.com/stream" {
		t.Fatalf("unexpected public base url: %q", cfg.Server.PublicBaseURL)
	}
	if cfg.Telegram.APIRoot != "http://bot-api:8081" {
		t.Fatalf("unexpected api root: %q", cfg.Telegram.APIRoot)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("unexpected redis addr: %q", cfg.Redis.Addr)
	}
	if err := cfg.RequireTelegram(); err != nil {
		t.Fatalf("RequireTelegram: %v", err)
	}
}

func TestLoadFileOverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PUBLIC_URL", "https://ignored.example.com")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
output_dir = "` + filepath.Join(dir, "out") + `"

[server]
public_base_url = "https://cdn.example.com/hls/"

[store]
driver = "none"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config file to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Server.PublicBaseURL != "https://cdn.example.com/hls" {
		t.Fatalf("unexpected public base url: %q", cfg.Server.PublicBaseURL)
	}
	if cfg.Paths.OutputDir != filepath.Join(dir, "out") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Store.Driver != config.StoreNone {
		t.Fatalf("unexpected store driver: %q", cfg.Store.Driver)
	}
}

func TestValidateRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"concurrency above one", func(c *config.Config) { c.Queue.Concurrency = 2 }, "queue.concurrency"},
		{"unknown store driver", func(c *config.Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"postgres without dsn", func(c *config.Config) { c.Store.Driver = config.StorePostgres }, "store.postgres_dsn"},
		{"supabase without key", func(c *config.Config) {
			c.Store.Driver = config.StoreSupabase
			c.Store.SupabaseURL = "https://x.supabase.co"
		}, "store.supabase_url"},
		{"bad table name", func(c *config.Config) { c.Store.Table = "videos; drop" }, "store.table"},
		{"relative base url", func(c *config.Config) { c.Server.PublicBaseURL = "/stream" }, "server.public_base_url"},
		{"crf out of range", func(c *config.Config) { c.Transcode.CRF = 60 }, "transcode.crf"},
		{"unknown preset", func(c *config.Config) { c.Transcode.Preset = "warp" }, "transcode.preset"},
		{"negative timeout", func(c *config.Config) { c.Transcode.TimeoutSeconds = -1 }, "transcode.timeout_seconds"},
		{"zero connect attempts", func(c *config.Config) { c.Telegram.ConnectAttempts = 0 }, "telegram.connect_attempts"},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if loaded.Transcode.CRF != 23 || loaded.Transcode.Preset != "veryfast" {
		t.Fatalf("unexpected transcode settings: %+v", loaded.Transcode)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := validConfig()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Store.SQLitePath = filepath.Join(base, "db", "videos.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.StateDir, filepath.Join(base, "db")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if cfg.LockPath() != filepath.Join(cfg.Paths.StateDir, "hlsbot.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}

func validConfig() config.Config {
	cfg := config.Default()
	cfg.Telegram.APIRoot = "http://127.0.0.1:8081"
	cfg.Server.PublicBaseURL = "http://localhost:3000/stream"
	cfg.Redis.Addr = "127.0.0.1:6379"
	return cfg
}
