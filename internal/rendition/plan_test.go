package rendition_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"hlsbot/internal/rendition"
)

func TestDefaultLadderAscending(t *testing.T) {
	ladder := rendition.DefaultLadder()
	want := []struct {
		name   string
		height int
		kbps   int
	}{
		{"240p", 240, 400},
		{"360p", 360, 800},
		{"480p", 480, 1400},
		{"720p", 720, 2800},
		{"1080p", 1080, 5000},
	}
	if len(ladder) != len(want) {
		t.Fatalf("expected %d tiers, got %d", len(want), len(ladder))
	}
	for i, w := range want {
		if ladder[i].Name != w.name || ladder[i].Height != w.height || ladder[i].BitrateKbps != w.kbps {
			t.Fatalf("tier %d = %+v, want %+v", i, ladder[i], w)
		}
	}

	ladder[0].BitrateKbps = 1
	if rendition.DefaultLadder()[0].BitrateKbps != 400 {
		t.Fatal("DefaultLadder must return a copy")
	}
}

func TestPlanBindsIndexesConsistently(t *testing.T) {
	ladder := rendition.DefaultLadder()
	plan, err := rendition.BuildPlan(ladder, rendition.Options{HasAudio: true})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	filter := plan.FilterComplex()
	if !strings.HasPrefix(filter, "[0:v:0]split=5[s0][s1][s2][s3][s4];") {
		t.Fatalf("unexpected split prefix: %s", filter)
	}

	rates := plan.RateArgs()
	for i, r := range ladder {
		scale := fmt.Sprintf("[s%d]scale=w='min(%d,iw)':h='min(%d,ih)':force_original_aspect_ratio=decrease:force_divisible_by=2[v%d]", i, r.Width, r.Height, i)
		if !strings.Contains(filter, scale) {
			t.Fatalf("filter missing scale for variant %d: %s", i, filter)
		}
		want := []string{
			fmt.Sprintf("-b:v:%d", i), r.Bitrate(),
			fmt.Sprintf("-maxrate:v:%d", i), r.Bitrate(),
			fmt.Sprintf("-bufsize:v:%d", i), r.Bitrate(),
		}
		if got := rates[i*6 : i*6+6]; !reflect.DeepEqual(got, want) {
			t.Fatalf("rate args for variant %d = %v, want %v", i, got, want)
		}
	}

	wantMap := []string{
		"-map", "[v0]", "-map", "0:a:0",
		"-map", "[v1]", "-map", "0:a:0",
		"-map", "[v2]", "-map", "0:a:0",
		"-map", "[v3]", "-map", "0:a:0",
		"-map", "[v4]", "-map", "0:a:0",
	}
	if got := plan.MapArgs(); !reflect.DeepEqual(got, wantMap) {
		t.Fatalf("map args = %v", got)
	}
	if got := plan.StreamMap(); got != "v:0,a:0 v:1,a:1 v:2,a:2 v:3,a:3 v:4,a:4" {
		t.Fatalf("stream map = %q", got)
	}
}

func TestPlanWithoutAudio(t *testing.T) {
	plan, err := rendition.BuildPlan(rendition.DefaultLadder()[:2], rendition.Options{})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if got := plan.StreamMap(); got != "v:0 v:1" {
		t.Fatalf("stream map = %q", got)
	}
	if got := plan.MapArgs(); !reflect.DeepEqual(got, []string{"-map", "[v0]", "-map", "[v1]"}) {
		t.Fatalf("map args = %v", got)
	}
	for _, arg := range plan.Args("in.mp4", "/out", rendition.DefaultEncoding()) {
		if arg == "-c:a" {
			t.Fatal("expected no audio codec without audio")
		}
	}
}

func TestBuildPlanDeterministic(t *testing.T) {
	a, _ := rendition.BuildPlan(rendition.DefaultLadder(), rendition.Options{HasAudio: true})
	b, _ := rendition.BuildPlan(rendition.DefaultLadder(), rendition.Options{HasAudio: true})
	if !reflect.DeepEqual(a.Args("in", "/out", rendition.DefaultEncoding()), b.Args("in", "/out", rendition.DefaultEncoding())) {
		t.Fatal("expected identical invocations for identical ladders")
	}
}

func TestBuildPlanRejectsInvalidLadder(t *testing.T) {
	tests := []struct {
		name   string
		ladder []rendition.Rendition
	}{
		{"empty", nil},
		{"zero width", []rendition.Rendition{{Name: "bad", Height: 240, BitrateKbps: 400}}},
		{"zero bitrate", []rendition.Rendition{{Name: "bad", Width: 426, Height: 240}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := rendition.BuildPlan(tt.ladder, rendition.Options{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestArgsUseAlignedSegments(t *testing.T) {
	plan, _ := rendition.BuildPlan(rendition.DefaultLadder(), rendition.Options{HasAudio: true})
	args := plan.Args("/src/in.mp4", "/out/job", rendition.Encoding{Preset: "fast", CRF: 20, AudioBitrate: "96k"})

	values := map[string]string{}
	for i := 0; i+1 < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			if _, seen := values[args[i]]; !seen {
				values[args[i]] = args[i+1]
			}
		}
	}
	expect := map[string]string{
		"-i":                    "/src/in.mp4",
		"-c:v":                  "libx264",
		"-crf":                  "20",
		"-preset":               "fast",
		"-g":                    "48",
		"-keyint_min":           "48",
		"-sc_threshold":         "0",
		"-b:a":                  "96k",
		"-ac":                   "2",
		"-f":                    "hls",
		"-hls_time":             "4",
		"-hls_playlist_type":    "vod",
		"-hls_flags":            "independent_segments",
		"-hls_segment_filename": "/out/job/stream_%v_%03d.ts",
		"-master_pl_name":       "master.m3u8",
		"-progress":             "pipe:1",
	}
	for flag, want := range expect {
		if values[flag] != want {
			t.Errorf("%s = %q, want %q", flag, values[flag], want)
		}
	}
	if last := args[len(args)-1]; last != "/out/job/stream_%v.m3u8" {
		t.Fatalf("unexpected output target %q", last)
	}
	if rendition.VariantManifest(3) != "stream_3.m3u8" {
		t.Fatalf("unexpected variant manifest name %q", rendition.VariantManifest(3))
	}
}
