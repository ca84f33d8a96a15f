// Command hlsbot runs the Telegram HLS transcoding bot and its operator
// utilities.
//
// `hlsbot serve` starts the daemon: it long-polls the local Bot API server,
// transcodes each uploaded video into an adaptive HLS ladder and serves the
// packages under /stream. The remaining commands work without the daemon:
// `transcode` packages local files through the same pipeline, `ladder` prints
// the rendition ladder and ffmpeg arguments, `check` runs the preflight
// checks, `records` lists completed jobs from the sqlite store, `logs` tails
// the daemon log file, and `config` manages the configuration file.
package main
