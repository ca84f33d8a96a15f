package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"hlsbot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The store is disabled unless WithStoreDriver says otherwise.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "media_output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Telegram.Token = "123456:test-token"
	cfgVal.Telegram.APIRoot = "http://127.0.0.1:8081"
	cfgVal.Telegram.StorageRoot = filepath.Join(base, "bot-api")
	cfgVal.Telegram.ConnectAttempts = 1
	cfgVal.Telegram.ConnectIntervalSeconds = 0
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.PublicBaseURL = "http://localhost:3000/stream"
	cfgVal.Store.Driver = config.StoreNone
	cfgVal.Store.SQLitePath = filepath.Join(base, "state", "videos.db")
	cfgVal.Redis.Addr = "127.0.0.1:6379"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStoreDriver selects the completion record driver.
func WithStoreDriver(driver string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Driver = driver
	}
}

// WithFakeFFmpeg installs working ffmpeg and ffprobe stand-ins. The probe
// reports a ten second clip with audio; the encoder writes renditions
// sub-manifests, their segments and a master playlist next to its output
// pattern while emitting progress blocks.
func WithFakeFFmpeg(renditions int) ConfigOption {
	return func(b *configBuilder) {
		binDir := b.binDir()
		ffmpeg := filepath.Join(binDir, "ffmpeg")
		ffprobe := filepath.Join(binDir, "ffprobe")
		writeScript(b.t, ffmpeg, fakeFFmpegScript(renditions))
		writeScript(b.t, ffprobe, fakeFFprobeScript)
		b.cfg.Transcode.FFmpegBinary = ffmpeg
		b.cfg.Transcode.FFprobeBinary = ffprobe
	}
}

func (b *configBuilder) binDir() string {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	if tt, ok := b.t.(*testing.T); ok {
		tt.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	return binDir
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
