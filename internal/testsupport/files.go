package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"hlsbot/internal/config"
)

// WriteFile fills the target path with size bytes of filler. A size <= 0
// writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteUpload places a file where a local Bot API server would keep it and
// returns the path relative to the bot's storage directory, as getFile
// reports it.
func WriteUpload(t testing.TB, cfg *config.Config, name string, size int64) string {
	t.Helper()
	rel := filepath.Join("videos", name)
	WriteFile(t, filepath.Join(cfg.Telegram.StorageRoot, cfg.Telegram.Token, rel), size)
	return rel
}

// ListDir returns the sorted entry names of dir.
func ListDir(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
