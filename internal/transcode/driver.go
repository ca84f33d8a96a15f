package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hlsbot/internal/config"
	"hlsbot/internal/logging"
	"hlsbot/internal/media/ffprobe"
	"hlsbot/internal/notifications"
	"hlsbot/internal/queue"
	"hlsbot/internal/rendition"
	"hlsbot/internal/services"
)

const stageName = "transcode"

// User-facing status texts sent while a job runs.
const (
	MessageLocating = "📥 Locating file on local server..."
	MessageStarted  = "⚙️ Transcoding started... (This may take a while)"
)

// SourceResolver maps an opaque file handle to a path on the local volume.
type SourceResolver interface {
	Resolve(ctx context.Context, fileID string) (string, error)
}

// ResolverFunc adapts a function to SourceResolver.
type ResolverFunc func(ctx context.Context, fileID string) (string, error)

// Resolve implements SourceResolver.
func (f ResolverFunc) Resolve(ctx context.Context, fileID string) (string, error) {
	return f(ctx, fileID)
}

// PathResolver treats the handle as a filesystem path.
type PathResolver struct{}

// Resolve implements SourceResolver.
func (PathResolver) Resolve(_ context.Context, fileID string) (string, error) {
	return config.ExpandPath(fileID)
}

// Prober inspects a source file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

type ffprobeProber struct {
	binary string
}

func (p ffprobeProber) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, p.binary, path)
}

// Options configures a Driver.
type Options struct {
	OutputRoot    string
	Ladder        []rendition.Rendition
	Encoding      rendition.Encoding
	Timeout       time.Duration
	FFmpegBinary  string
	FFprobeBinary string
}

// Option customises a Driver.
type Option func(*Driver)

// WithRunner overrides the ffmpeg runner.
func WithRunner(r Runner) Option {
	return func(d *Driver) {
		if r != nil {
			d.runner = r
		}
	}
}

// WithProber overrides source inspection.
func WithProber(p Prober) Option {
	return func(d *Driver) {
		if p != nil {
			d.prober = p
		}
	}
}

// Driver executes one job end to end, up to the finished output package.
type Driver struct {
	resolver SourceResolver
	runner   Runner
	prober   Prober
	opts     Options
	logger   *slog.Logger
}

// NewDriver constructs a driver writing packages under opts.OutputRoot.
func NewDriver(resolver SourceResolver, opts Options, logger *slog.Logger, extra ...Option) *Driver {
	if resolver == nil {
		resolver = PathResolver{}
	}
	if len(opts.Ladder) == 0 {
		opts.Ladder = rendition.DefaultLadder()
	}
	if opts.Encoding == (rendition.Encoding{}) {
		opts.Encoding = rendition.DefaultEncoding()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Driver{
		resolver: resolver,
		runner:   NewFFmpeg(opts.FFmpegBinary),
		prober:   ffprobeProber{binary: firstNonEmpty(opts.FFprobeBinary, "ffprobe")},
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, stageName),
	}
	for _, opt := range extra {
		opt(d)
	}
	return d
}

// NewDriverFromConfig builds a driver with the configured binaries and knobs.
func NewDriverFromConfig(cfg *config.Config, resolver SourceResolver, logger *slog.Logger, extra ...Option) *Driver {
	return NewDriver(resolver, Options{
		OutputRoot: cfg.Paths.OutputDir,
		Ladder:     rendition.DefaultLadder(),
		Encoding: rendition.Encoding{
			Preset:       cfg.Transcode.Preset,
			CRF:          cfg.Transcode.CRF,
			AudioBitrate: cfg.Transcode.AudioBitrate,
		},
		Timeout:       cfg.TranscodeTimeout(),
		FFmpegBinary:  cfg.Transcode.FFmpegBinary,
		FFprobeBinary: cfg.Transcode.FFprobeBinary,
	}, logger, extra...)
}

// OutputDir returns the package directory a job writes to.
func (d *Driver) OutputDir(job *queue.Job) string {
	return filepath.Join(d.opts.OutputRoot, job.ID)
}

// Run transcodes job into a new directory named after the job ID and returns
// that directory. Failures are classified with services markers. The
// directory is removed on every failure, including a panic in the runner.
func (d *Driver) Run(ctx context.Context, job *queue.Job) (string, error) {
	if job == nil {
		return "", services.Wrap(services.ErrTranscodeFailed, stageName, "run", "No job provided", nil)
	}
	ctx = services.WithStage(services.WithJobID(ctx, job.ID), stageName)
	logger := logging.WithContext(ctx, d.logger)

	notifications.Deliver(ctx, logger, job.Notifier, MessageLocating)

	sourcePath, err := d.resolveSource(ctx, job)
	if err != nil {
		return "", err
	}

	outputDir, err := d.prepareOutput(job)
	if err != nil {
		return "", err
	}
	succeeded := false
	defer func() {
		if !succeeded {
			d.cleanup(logger, outputDir)
		}
	}()

	probe, probeErr := d.prober.Probe(ctx, sourcePath)
	hasAudio := true
	var duration time.Duration
	if probeErr != nil {
		logging.WarnWithContext(logger, "source probe failed", "probe_failed",
			logging.Error(probeErr),
			logging.String(logging.FieldImpact, "progress unknown, audio assumed present"),
			logging.String(logging.FieldErrorHint, "check ffprobe_binary"),
		)
	} else {
		hasAudio = probe.HasAudio()
		duration = time.Duration(probe.DurationSeconds() * float64(time.Second))
		if w, h, ok := probe.Dimensions(); ok {
			logger.Debug("source inspected",
				logging.Int("width", w),
				logging.Int("height", h),
				logging.Duration("duration", duration),
				logging.Int("audio_streams", probe.AudioStreamCount()),
			)
		}
	}

	plan, err := rendition.BuildPlan(d.opts.Ladder, rendition.Options{HasAudio: hasAudio})
	if err != nil {
		return "", services.Wrap(services.ErrTranscodeFailed, stageName, "plan renditions", "Invalid rendition ladder", err)
	}
	args := plan.Args(sourcePath, outputDir, d.opts.Encoding)

	notifications.Deliver(ctx, logger, job.Notifier, MessageStarted)
	logger.Info("transcode started",
		logging.String("source", sourcePath),
		logging.String("output_dir", outputDir),
		logging.Int("variants", len(plan.Variants)),
		logging.Bool("audio", hasAudio),
	)

	runCtx := ctx
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	gate := &progressGate{}
	sampler := logging.NewProgressSampler(5)
	started := time.Now()
	onProgress := func(p Progress) {
		percent := p.Percent(duration)
		if sampler.ShouldLog(percent) {
			logger.Debug("transcode progress",
				logging.Float64("percent", percent),
				logging.Duration("out_time", p.OutTime),
				logging.String("speed", p.Speed),
			)
		}
		if boundary, ok := gate.cross(percent); ok {
			notifications.Deliver(ctx, logger, job.Notifier, ProgressMessage(boundary))
		}
	}

	if err := d.runner.Run(runCtx, args, onProgress); err != nil {
		return "", d.classifyRunError(ctx, runCtx, err)
	}
	succeeded = true

	logger.Info("transcode finished",
		logging.String("output_dir", outputDir),
		logging.Duration("elapsed", time.Since(started)),
	)
	return outputDir, nil
}

func (d *Driver) resolveSource(ctx context.Context, job *queue.Job) (string, error) {
	path, err := d.resolver.Resolve(ctx, job.FileID)
	if err != nil {
		return "", services.Wrap(services.ErrSourceUnavailable, stageName, "resolve source", "Unable to locate the uploaded file", err)
	}
	info, statErr := os.Stat(path)
	if statErr != nil || info.IsDir() {
		message := fmt.Sprintf("File not found on local volume at %s. Ensure volumes are mapped correctly.", path)
		if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
			return "", services.Wrap(services.ErrSourceUnavailable, stageName, "stat source", message, statErr)
		}
		return "", services.Wrap(services.ErrSourceUnavailable, stageName, "stat source", message, nil)
	}
	return path, nil
}

func (d *Driver) prepareOutput(job *queue.Job) (string, error) {
	if strings.TrimSpace(job.ID) == "" || strings.ContainsAny(job.ID, `/\`) || job.ID == "." || job.ID == ".." {
		return "", services.Wrap(services.ErrOutputDir, stageName, "create output", "Invalid job identifier", nil)
	}
	if err := os.MkdirAll(d.opts.OutputRoot, 0o755); err != nil {
		return "", services.Wrap(services.ErrOutputDir, stageName, "create output root", "Unable to create the output directory", err)
	}
	dir := d.OutputDir(job)
	// Mkdir, not MkdirAll: an existing directory means a second job collided.
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrOutputDir, stageName, "create output", "Unable to create the output directory", err)
	}
	return dir, nil
}

func (d *Driver) classifyRunError(parent, runCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return services.Wrap(services.ErrTranscodeFailed, stageName, "ffmpeg", "Transcoding interrupted", parent.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTranscodeFailed, stageName, "ffmpeg",
			fmt.Sprintf("Transcoding exceeded the %s limit", d.opts.Timeout), context.DeadlineExceeded)
	default:
		return services.Wrap(services.ErrTranscodeFailed, stageName, "ffmpeg", "FFmpeg failed", err)
	}
}

func (d *Driver) cleanup(logger *slog.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logging.WarnWithContext(logger, "failed to remove partial output", "output_cleanup_failed",
			logging.String("output_dir", dir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "partial files remain on disk"),
		)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
