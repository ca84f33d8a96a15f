// Package publish computes the public address of a finished output package and
// records it in the completion store.
package publish

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"hlsbot/internal/logging"
	"hlsbot/internal/queue"
	"hlsbot/internal/rendition"
	"hlsbot/internal/services"
	"hlsbot/internal/store"
)

const stageName = "publish"

// Step publishes completed jobs.
type Step struct {
	baseURL  string
	recorder store.Recorder
	logger   *slog.Logger
}

// New builds a publication step. A nil recorder discards records.
func New(baseURL string, recorder store.Recorder, logger *slog.Logger) *Step {
	if recorder == nil {
		recorder = store.Nop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Step{
		baseURL:  baseURL,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, stageName),
	}
}

// URL returns {base}/{jobID}/master.m3u8.
func (s *Step) URL(jobID string) string {
	return JoinURL(s.baseURL, jobID, rendition.MasterManifest)
}

// Publish computes the job's URL and records it. The URL is always returned;
// a non-nil error reports a failed store write only and has already been
// logged.
func (s *Step) Publish(ctx context.Context, job *queue.Job, outputDir string) (string, error) {
	ctx = services.WithStage(services.WithJobID(ctx, job.ID), stageName)
	logger := logging.WithContext(ctx, s.logger)
	url := s.URL(job.ID)

	if _, err := os.Stat(filepath.Join(outputDir, rendition.MasterManifest)); err != nil && errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "master manifest missing from output", "manifest_missing",
			logging.String("output_dir", outputDir),
			logging.String(logging.FieldErrorHint, "check that output_dir is the directory served under /stream"),
		)
	}

	rec := store.Record{
		FileID: job.FileID,
		Name:   norm.NFC.String(job.FileName),
		URL:    url,
		Status: store.StatusCompleted,
	}
	if err := s.recorder.Insert(ctx, rec); err != nil {
		wrapped := services.Wrap(services.ErrPublicationStore, stageName, "insert record", "Failed to save the completion record", err)
		logging.WarnWithContext(logger, "completion record not saved", "store_write_failed",
			logging.Error(err),
			logging.String("hls_url", url),
			logging.String(logging.FieldImpact, "job still reported as completed"),
			logging.String(logging.FieldErrorHint, "check store settings and connectivity"),
		)
		return url, wrapped
	}
	logger.Debug("completion record saved", logging.String("hls_url", url))
	return url, nil
}

// JoinURL appends path segments to base with exactly one slash between each.
func JoinURL(base string, parts ...string) string {
	trimmed := strings.TrimRight(base, "/")
	addition := path.Join(parts...)
	if addition == "." {
		addition = ""
	}
	if addition == "" {
		return trimmed
	}
	if trimmed == "" {
		return "/" + strings.TrimLeft(addition, "/")
	}
	return trimmed + "/" + strings.TrimLeft(addition, "/")
}
