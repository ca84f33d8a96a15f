package rendition

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// MasterManifest is the top-level playlist referencing every variant.
	MasterManifest = "master.m3u8"
	// SegmentSeconds is the HLS target segment duration.
	SegmentSeconds = 4
	// GOPSize is the fixed keyframe interval in frames.
	GOPSize = 48

	variantPlaylistPattern = "stream_%v.m3u8"
	segmentPattern         = "stream_%v_%03d.ts"
)

// Options tunes plan construction for a particular source.
type Options struct {
	// HasAudio maps the first source audio track into every variant.
	HasAudio bool
}

// Variant is one output stream of the plan.
type Variant struct {
	Index     int
	Rendition Rendition
	// Label is the filter graph pad carrying the scaled video ("v0").
	Label string
	Scale string
}

// Plan holds the per-variant directives for a single invocation.
type Plan struct {
	Variants []Variant
	HasAudio bool
}

// Encoding collects the encoder settings shared by every variant.
type Encoding struct {
	Preset       string
	CRF          int
	AudioBitrate string
}

// DefaultEncoding returns the encoder settings used when nothing is configured.
func DefaultEncoding() Encoding {
	return Encoding{Preset: "veryfast", CRF: 23, AudioBitrate: "128k"}
}

// VariantManifest returns the playlist filename of variant i.
func VariantManifest(i int) string {
	return "stream_" + strconv.Itoa(i) + ".m3u8"
}

// BuildPlan maps the ladder to directives. Output order always matches the
// ladder order.
func BuildPlan(ladder []Rendition, opts Options) (Plan, error) {
	if err := validateLadder(ladder); err != nil {
		return Plan{}, err
	}
	plan := Plan{Variants: make([]Variant, len(ladder)), HasAudio: opts.HasAudio}
	for i, r := range ladder {
		plan.Variants[i] = Variant{
			Index:     i,
			Rendition: r,
			Label:     fmt.Sprintf("v%d", i),
			Scale: fmt.Sprintf(
				"scale=w='min(%d,iw)':h='min(%d,ih)':force_original_aspect_ratio=decrease:force_divisible_by=2",
				r.Width, r.Height,
			),
		}
	}
	return plan, nil
}

// FilterComplex splits the first video stream once per variant and scales
// each branch.
func (p Plan) FilterComplex() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[0:v:0]split=%d", len(p.Variants))
	for _, v := range p.Variants {
		fmt.Fprintf(&b, "[s%d]", v.Index)
	}
	for _, v := range p.Variants {
		fmt.Fprintf(&b, ";[s%d]%s[%s]", v.Index, v.Scale, v.Label)
	}
	return b.String()
}

// MapArgs binds each scaled stream, and the shared audio track, to its variant.
func (p Plan) MapArgs() []string {
	args := make([]string, 0, len(p.Variants)*4)
	for _, v := range p.Variants {
		args = append(args, "-map", "["+v.Label+"]")
		if p.HasAudio {
			args = append(args, "-map", "0:a:0")
		}
	}
	return args
}

// RateArgs caps each variant at its rendition bitrate.
func (p Plan) RateArgs() []string {
	args := make([]string, 0, len(p.Variants)*6)
	for _, v := range p.Variants {
		rate := v.Rendition.Bitrate()
		idx := strconv.Itoa(v.Index)
		args = append(args,
			"-b:v:"+idx, rate,
			"-maxrate:v:"+idx, rate,
			"-bufsize:v:"+idx, rate,
		)
	}
	return args
}

// StreamMap renders the var_stream_map value ("v:0,a:0 v:1,a:1 ...").
func (p Plan) StreamMap() string {
	entries := make([]string, len(p.Variants))
	for i, v := range p.Variants {
		if p.HasAudio {
			entries[i] = fmt.Sprintf("v:%d,a:%d", v.Index, v.Index)
		} else {
			entries[i] = fmt.Sprintf("v:%d", v.Index)
		}
	}
	return strings.Join(entries, " ")
}

// Args assembles the full ffmpeg argument vector writing into outputDir.
func (p Plan) Args(input, outputDir string, enc Encoding) []string {
	if enc.Preset == "" {
		enc.Preset = DefaultEncoding().Preset
	}
	if enc.AudioBitrate == "" {
		enc.AudioBitrate = DefaultEncoding().AudioBitrate
	}
	gop := strconv.Itoa(GOPSize)

	args := []string{"-hide_banner", "-nostdin", "-y", "-i", input, "-filter_complex", p.FilterComplex()}
	args = append(args, p.MapArgs()...)
	args = append(args,
		"-c:v", "libx264",
		"-crf", strconv.Itoa(enc.CRF),
		"-preset", enc.Preset,
		"-g", gop,
		"-keyint_min", gop,
		"-sc_threshold", "0",
	)
	args = append(args, p.RateArgs()...)
	if p.HasAudio {
		args = append(args, "-c:a", "aac", "-b:a", enc.AudioBitrate, "-ac", "2")
	}
	args = append(args,
		"-f", "hls",
		"-hls_time", strconv.Itoa(SegmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_flags", "independent_segments",
		"-hls_segment_filename", filepath.Join(outputDir, segmentPattern),
		"-master_pl_name", MasterManifest,
		"-var_stream_map", p.StreamMap(),
		"-progress", "pipe:1",
		"-nostats",
		filepath.Join(outputDir, variantPlaylistPattern),
	)
	return args
}
