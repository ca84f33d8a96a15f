// Package config loads, normalizes, and validates hlsbot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BOT_TOKEN and PUBLIC_URL. The Config type centralizes every knob the daemon
// and CLI need, so the output root, the Bot API storage mount and the public
// stream address are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
