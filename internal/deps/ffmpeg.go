package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// RequiredEncoders are the ffmpeg components every ladder invocation uses.
var RequiredEncoders = []string{"libx264", "aac"}

// CheckFFmpegCapabilities runs the binary's encoder and muxer listings and
// reports whether libx264, aac and the hls muxer are available.
func CheckFFmpegCapabilities(ctx context.Context, binary string) Status {
	result := Status{
		Name:        "FFmpeg capabilities",
		Command:     binary,
		Description: "libx264, aac and the hls muxer",
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	encoders, err := commandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		result.Detail = fmt.Sprintf("list encoders: %v", err)
		return result
	}
	muxers, err := commandContext(ctx, binary, "-hide_banner", "-muxers").Output()
	if err != nil {
		result.Detail = fmt.Sprintf("list muxers: %v", err)
		return result
	}

	var missing []string
	for _, name := range RequiredEncoders {
		if !listsComponent(string(encoders), name) {
			missing = append(missing, name)
		}
	}
	if !listsComponent(string(muxers), "hls") {
		missing = append(missing, "hls muxer")
	}
	if len(missing) > 0 {
		result.Detail = "missing " + strings.Join(missing, ", ")
		return result
	}
	result.Available = true
	return result
}

// listsComponent reports whether an ffmpeg listing has a row naming component.
// Rows look like " V....D libx264   H.264 / AVC ...".
func listsComponent(listing, component string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == component {
			return true
		}
	}
	return false
}
