package testsupport

import (
	"fmt"
	"os"
	"testing"
)

// fakeFFprobeScript prints a probe result for a 1280x720 clip with one audio
// track and a ten second duration.
const fakeFFprobeScript = `#!/bin/sh
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":1280,"height":720},{"index":1,"codec_type":"audio","codec_name":"aac"}],"format":{"duration":"10.000000","format_name":"mov,mp4,m4a,3gp,3g2,mj2"}}
JSON
`

// fakeFFmpegScript returns a shell script that mimics an HLS ladder run. The
// last argument is taken as the variant playlist pattern; its directory
// receives one sub-manifest and segment per rendition plus master.m3u8.
func fakeFFmpegScript(renditions int) string {
	return fmt.Sprintf(`#!/bin/sh
for last; do :; done
case "$last" in
  -encoders)
    printf ' V....D libx264              libx264 H.264 / AVC\n A....D aac                  AAC (Advanced Audio Coding)\n'
    exit 0 ;;
  -muxers)
    printf '  E hls             Apple HTTP Live Streaming\n'
    exit 0 ;;
  *.m3u8) ;;
  *)
    echo "unexpected invocation: $*" >&2
    exit 1 ;;
esac
dir=$(dirname -- "$last")
printf 'frame=1\nout_time_us=2500000\nspeed=1.0x\nprogress=continue\n'
printf 'frame=2\nout_time_us=5500000\nspeed=1.0x\nprogress=continue\n'
i=0
while [ "$i" -lt %d ]; do
  printf '#EXTM3U\n#EXT-X-VERSION:3\n#EXTINF:6.0,\nstream_%%d_000.ts\n#EXT-X-ENDLIST\n' "$i" > "$dir/stream_$i.m3u8"
  printf 'segment' > "$dir/stream_${i}_000.ts"
  i=$((i+1))
done
printf '#EXTM3U\n' > "$dir/master.m3u8"
printf 'frame=3\nout_time_us=10000000\nspeed=1.0x\nprogress=end\n'
exit 0
`, renditions)
}

func writeScript(t testing.TB, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
}
