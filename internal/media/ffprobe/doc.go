// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The transcode driver uses it to learn a source's duration, which turns
// ffmpeg's elapsed output time into a completion percentage, and whether the
// source carries an audio track to broadcast into every variant.
package ffprobe
