package transcode

import (
	"fmt"
	"time"
)

// Progress is one report parsed from ffmpeg's -progress stream.
type Progress struct {
	OutTime time.Duration
	Speed   string
	Done    bool
}

// Percent converts the report into a completion percentage for a source of the
// given duration. It returns -1 when the duration is unknown.
func (p Progress) Percent(total time.Duration) float64 {
	if total <= 0 {
		return -1
	}
	percent := float64(p.OutTime) / float64(total) * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// progressGate admits at most one notification per 10% boundary, from 10 to
// 90. Completion itself is reported by the terminal message, so 100 never
// passes.
type progressGate struct {
	last int
}

func (g *progressGate) cross(percent float64) (int, bool) {
	if percent < 0 {
		return 0, false
	}
	boundary := int(percent) / 10 * 10
	if boundary > 90 {
		boundary = 90
	}
	if boundary < 10 || boundary <= g.last {
		return 0, false
	}
	g.last = boundary
	return boundary, true
}

// ProgressMessage renders the user-facing progress text for a boundary.
func ProgressMessage(boundary int) string {
	return fmt.Sprintf("⚙️ Transcoding: %d%% done", boundary)
}
