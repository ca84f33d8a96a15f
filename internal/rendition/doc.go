// Package rendition turns the fixed quality ladder into ffmpeg directives.
//
// A Plan binds variant index i to scaling filter i, bitrate cap i and stream
// map entry i, always in ladder order. Args assembles the complete HLS
// invocation around a plan: closed-GOP libx264 with a fixed keyframe interval
// and four-second segments so every variant switches on the same boundaries.
package rendition
