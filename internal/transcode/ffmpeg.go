package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

var commandContext = exec.CommandContext

// Runner executes a transcoding invocation, reporting progress until it exits.
type Runner interface {
	Run(ctx context.Context, args []string, onProgress func(Progress)) error
}

// FFmpeg runs the ffmpeg binary and parses its -progress pipe:1 output.
type FFmpeg struct {
	binary    string
	tailLines int
}

// NewFFmpeg returns a runner for binary (default "ffmpeg").
func NewFFmpeg(binary string) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, tailLines: 20}
}

// Run starts ffmpeg and blocks until it exits. onProgress is called from the
// calling goroutine and never after Run returns.
func (f *FFmpeg) Run(ctx context.Context, args []string, onProgress func(Progress)) error {
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	tail := newTailWriter(f.tailLines)
	cmd.Stderr = tail
	cmd.WaitDelay = 5 * time.Second
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	readErr := parseProgress(stdout, onProgress)
	if readErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		return &ExitError{Err: err, Stderr: tail.Lines()}
	}
	if readErr != nil {
		return fmt.Errorf("read ffmpeg progress: %w", readErr)
	}
	return nil
}

// parseProgress consumes key=value blocks terminated by a progress= line.
func parseProgress(r io.Reader, onProgress func(Progress)) error {
	scanner := bufio.NewScanner(r)
	var current Progress
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// ffmpeg reports microseconds under both keys.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				current.OutTime = time.Duration(us) * time.Microsecond
			}
		case "out_time":
			if d, ok := parseClock(value); ok && current.OutTime == 0 {
				current.OutTime = d
			}
		case "speed":
			current.Speed = strings.TrimSpace(value)
		case "progress":
			current.Done = value == "end"
			if onProgress != nil {
				onProgress(current)
			}
			current = Progress{}
		}
	}
	return scanner.Err()
}

// parseClock parses "HH:MM:SS.micro".
func parseClock(value string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds*float64(time.Second))
	return total, total >= 0
}

// tailWriter keeps the last n lines written to it.
type tailWriter struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial bytes.Buffer
}

func newTailWriter(n int) *tailWriter {
	if n <= 0 {
		n = 20
	}
	return &tailWriter{max: n}
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.partial.Write(p)
	for {
		line, err := w.partial.ReadString('\n')
		if errors.Is(err, io.EOF) {
			w.partial.Reset()
			w.partial.WriteString(line)
			break
		}
		w.push(line)
	}
	return len(p), nil
}

func (w *tailWriter) push(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	w.lines = append(w.lines, line)
	if len(w.lines) > w.max {
		w.lines = w.lines[len(w.lines)-w.max:]
	}
}

// Lines returns at most max retained lines, most recent last. An unterminated
// final line counts as a line.
func (w *tailWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	lines := append([]string{}, w.lines...)
	if rest := strings.TrimSpace(w.partial.String()); rest != "" {
		lines = append(lines, rest)
	}
	if len(lines) > w.max {
		lines = lines[len(lines)-w.max:]
	}
	return lines
}

// maxSummaryRunes bounds the stderr excerpt shown to users.
const maxSummaryRunes = 300

// ExitError reports a failed ffmpeg invocation. Error includes the whole
// stderr tail for logs; UserMessage keeps only the last line.
type ExitError struct {
	Err    error
	Stderr []string
}

func (e *ExitError) Error() string {
	if len(e.Stderr) == 0 {
		return fmt.Sprintf("ffmpeg exited: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg exited: %v: %s", e.Err, strings.Join(e.Stderr, "; "))
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// UserMessage returns the last stderr line, which usually names the fault,
// truncated to maxSummaryRunes.
func (e *ExitError) UserMessage() string {
	if len(e.Stderr) == 0 {
		return e.Err.Error()
	}
	line := []rune(e.Stderr[len(e.Stderr)-1])
	if len(line) > maxSummaryRunes {
		return string(line[:maxSummaryRunes-1]) + "…"
	}
	return string(line)
}
