package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kestrel-data/crossing.report/internal/session"
)

// DB wraps the SQLite connection for the analytics store.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the analytics database and applies pending
// migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	// SQLite allows one writer; the engine and dashboard share this
	// connection pool within the process.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// UpsertSession writes a session snapshot, inserting or overwriting the row
// keyed by (stream_url, session_start). Repeated writes for one session
// grow the totals and advance the end time; they never duplicate rows.
func (db *DB) UpsertSession(ctx context.Context, snap session.Snapshot) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO analytics (stream_url, object_type, direction1, direction2, total, session_start, session_end)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(stream_url, session_start) DO UPDATE SET
			object_type = excluded.object_type,
			direction1  = excluded.direction1,
			direction2  = excluded.direction2,
			total       = excluded.total,
			session_end = excluded.session_end`,
		snap.StreamURL, snap.ObjectType, snap.Direction1, snap.Direction2, snap.Total,
		snap.SessionStart.Unix(), snap.SessionEnd.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session %s@%d: %w", snap.StreamURL, snap.SessionStart.Unix(), err)
	}
	return nil
}

// SessionRecord is one stored analytics row.
type SessionRecord struct {
	StreamURL    string    `json:"stream_url"`
	ObjectType   string    `json:"object_type"`
	Direction1   int       `json:"direction1"`
	Direction2   int       `json:"direction2"`
	Total        int       `json:"total"`
	SessionStart time.Time `json:"session_start"`
	SessionEnd   time.Time `json:"session_end"`
}

const sessionColumns = `stream_url, object_type, direction1, direction2, total, session_start, session_end`

func scanSessions(rows *sql.Rows) ([]SessionRecord, error) {
	defer rows.Close()
	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var startUnix, endUnix int64
		if err := rows.Scan(&rec.StreamURL, &rec.ObjectType, &rec.Direction1, &rec.Direction2, &rec.Total, &startUnix, &endUnix); err != nil {
			return nil, err
		}
		rec.SessionStart = time.Unix(startUnix, 0).UTC()
		rec.SessionEnd = time.Unix(endUnix, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Sessions returns every stored session, newest first.
func (db *DB) Sessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM analytics ORDER BY session_start DESC`)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

// SessionsByStream returns the sessions for one stream, newest first.
func (db *DB) SessionsByStream(ctx context.Context, streamURL string) ([]SessionRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM analytics WHERE stream_url = ? ORDER BY session_start DESC`,
		streamURL)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

// SessionsForDay returns the sessions whose start falls on the given
// calendar day (in day's location), oldest first.
func (db *DB) SessionsForDay(ctx context.Context, day time.Time) ([]SessionRecord, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	rows, err := db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM analytics WHERE session_start >= ? AND session_start < ? ORDER BY session_start ASC`,
		dayStart.Unix(), dayEnd.Unix())
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

// DistinctStreamURLs returns the known stream URLs, ordered by most recent
// session.
func (db *DB) DistinctStreamURLs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT stream_url FROM analytics GROUP BY stream_url ORDER BY MAX(session_start) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// StreamSummary aggregates a stream's sessions for the dashboard index.
type StreamSummary struct {
	StreamURL    string    `json:"stream_url"`
	ObjectType   string    `json:"object_type"` // from the most recent session
	SessionCount int       `json:"session_count"`
	FirstSession time.Time `json:"first_session"`
}

// StreamSummaries groups sessions per stream. Grouping runs over the
// newest-first session list so ObjectType reflects the latest session.
func (db *DB) StreamSummaries(ctx context.Context) ([]StreamSummary, error) {
	sessions, err := db.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int)
	var out []StreamSummary
	for _, rec := range sessions {
		i, ok := index[rec.StreamURL]
		if !ok {
			index[rec.StreamURL] = len(out)
			out = append(out, StreamSummary{
				StreamURL:  rec.StreamURL,
				ObjectType: rec.ObjectType,
			})
			i = len(out) - 1
		}
		out[i].SessionCount++
		// Sessions arrive newest first, so the last one seen per stream
		// is the earliest.
		out[i].FirstSession = rec.SessionStart
	}
	return out, nil
}
