package preflight

import (
	"context"

	"hlsbot/internal/config"
	"hlsbot/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks for disabled features are skipped.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckReadableDirectory("Bot API storage", cfg.Telegram.StorageRoot),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   statusDetail(status),
		})
	}
	if cfg.Telegram.Token != "" {
		results = append(results, CheckBotAPI(ctx, cfg.Telegram.APIRoot, cfg.Telegram.Token))
	}
	if cfg.Redis.Enabled {
		results = append(results, CheckRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func statusDetail(status deps.Status) string {
	if status.Detail != "" {
		return status.Detail
	}
	return status.Command
}
