package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sys/unix"

	"hlsbot/internal/config"
	"hlsbot/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be read.
// The Bot API storage mount only needs to be readable.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

// CheckSystemDeps evaluates the binaries needed to transcode. Both the daemon
// and the CLI check command use this list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Transcode.FFmpegBinary,
			Description: "Required for transcoding",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Transcode.FFprobeBinary,
			Description: "Used for progress and audio detection",
			Optional:    true,
		},
	})
	if len(statuses) > 0 && statuses[0].Available {
		statuses = append(statuses, deps.CheckFFmpegCapabilities(ctx, statuses[0].Command))
	}
	return statuses
}

// CheckBotAPI calls getMe on the Bot API server.
func CheckBotAPI(ctx context.Context, apiRoot, token string) Result {
	const name = "Bot API server"

	base := strings.TrimRight(strings.TrimSpace(apiRoot), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing api_root"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/bot"+token+"/getMe", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%v)", base, redact(err.Error(), token))}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: base}
	case http.StatusUnauthorized:
		return Result{Name: name, Detail: "token rejected (log the bot out of the cloud API first)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("getMe failed (%d)", resp.StatusCode)}
	}
}

// CheckRedis pings the status tracker's Redis server.
func CheckRedis(ctx context.Context, addr, password string, db int) Result {
	const name = "Redis"
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	defer client.Close()

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(checkCtx).Err(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", addr, err)}
	}
	return Result{Name: name, Passed: true, Detail: addr}
}

func redact(text, secret string) string {
	if secret == "" {
		return text
	}
	return strings.ReplaceAll(text, secret, "<token>")
}
