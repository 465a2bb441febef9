// Package db is the SQLite analytics store for counting sessions.
//
// One table, analytics, holds a row per counting session keyed by
// (stream_url, session_start); the engine upserts cumulative snapshots into
// it and the dashboard reads it back. Schema changes are embedded
// golang-migrate migration files applied on open.
package db
