package queue

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hlsbot/internal/notifications"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one accepted video. Fields are set at creation and never change.
type Job struct {
	ID       string
	FileID   string
	FileName string
	FileSize int64
	// ChatID and MessageID route replies back through the chat transport.
	ChatID    int64
	MessageID int
	Notifier  notifications.Notifier
	CreatedAt time.Time
}

// NewJob builds a job with a fresh identifier. A nil notifier is replaced with
// a no-op sink.
func NewJob(fileID, fileName string, size int64, notifier notifications.Notifier) *Job {
	if notifier == nil {
		notifier = notifications.Nop{}
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = FallbackFileName(time.Now())
	}
	return &Job{
		ID:        uuid.NewString(),
		FileID:    fileID,
		FileName:  fileName,
		FileSize:  size,
		Notifier:  notifier,
		CreatedAt: time.Now().UTC(),
	}
}

// FallbackFileName names uploads that arrive without a file name.
func FallbackFileName(now time.Time) string {
	return "video_" + strconv.FormatInt(now.UnixMilli(), 10) + ".mp4"
}

// Stats is a point-in-time snapshot of the queue.
type Stats struct {
	Pending   int    `json:"pending"`
	Active    string `json:"active,omitempty"`
	Accepted  int64  `json:"accepted"`
	Completed int64  `json:"completed"`
	Failed    int64  `json:"failed"`
}
