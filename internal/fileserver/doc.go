// Package fileserver serves finished output packages read-only under /stream,
// next to health, job status and Prometheus endpoints.
//
// The URL layout mirrors the output directory: /stream/<job id>/master.m3u8
// maps to <output_dir>/<job id>/master.m3u8. Directory listings are refused.
package fileserver
