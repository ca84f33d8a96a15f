// Package transcode runs one ffmpeg invocation per job and turns it into an
// HLS output package on disk.
//
// Driver.Run resolves the job's file handle to a local path, creates a fresh
// output directory named after the job, probes the source, builds the ladder
// invocation via the rendition package and streams ffmpeg's progress back to
// the job's notifier at 10% boundaries. It never retries and holds no state
// between jobs.
package transcode
