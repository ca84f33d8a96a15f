package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Resolver maps file IDs to paths on the Bot API server's storage volume.
type Resolver struct {
	api         API
	storageRoot string
	token       string
}

// NewResolver builds a resolver for files stored under storageRoot.
func NewResolver(api API, storageRoot, token string) *Resolver {
	return &Resolver{api: api, storageRoot: storageRoot, token: token}
}

// Resolve asks the server for the file's location. A local server reports an
// absolute path; anything else is taken relative to <storage_root>/<token>.
func (r *Resolver) Resolve(_ context.Context, fileID string) (string, error) {
	file, err := r.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("getFile %s: %w", fileID, err)
	}
	filePath := strings.TrimSpace(file.FilePath)
	if filePath == "" {
		return "", fmt.Errorf("getFile %s: empty file path", fileID)
	}
	if filepath.IsAbs(filePath) {
		return filepath.Clean(filePath), nil
	}
	return filepath.Join(r.storageRoot, r.token, filePath), nil
}
