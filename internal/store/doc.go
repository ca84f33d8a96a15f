// Package store persists completion records for published packages.
//
// Every backend exposes the same write-only Recorder: sqlite through
// modernc.org/sqlite for single-host installs, PostgreSQL through pgx, and a
// Supabase table through its PostgREST endpoint. The "none" driver discards
// records.
package store
