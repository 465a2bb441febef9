package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-data/crossing.report/internal/session"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSnapshot(stream string, start time.Time) session.Snapshot {
	return session.Snapshot{
		StreamURL:    stream,
		ObjectType:   "car",
		Direction1:   3,
		Direction2:   1,
		Total:        4,
		SessionStart: start,
		SessionEnd:   start.Add(30 * time.Second),
	}
}

func TestMigrationsApplyOnOpen(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestUpsertSessionIsIdempotentPerKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	first := testSnapshot("rtsp://cam1/live", start)
	require.NoError(t, db.UpsertSession(ctx, first))

	// A later flush for the same session carries larger cumulative totals.
	second := first
	second.Direction1 = 7
	second.Total = 8
	second.SessionEnd = start.Add(90 * time.Second)
	require.NoError(t, db.UpsertSession(ctx, second))

	records, err := db.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1, "same (stream, start) key must not duplicate rows")

	got := records[0]
	assert.Equal(t, "rtsp://cam1/live", got.StreamURL)
	assert.Equal(t, 7, got.Direction1)
	assert.Equal(t, 1, got.Direction2)
	assert.Equal(t, 8, got.Total)
	assert.Equal(t, second.SessionEnd.Unix(), got.SessionEnd.Unix())
}

func TestDistinctSessionsKeepSeparateRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam1/live", start)))
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam1/live", start.Add(time.Hour))))
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam2/live", start)))

	records, err := db.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	cam1, err := db.SessionsByStream(ctx, "rtsp://cam1/live")
	require.NoError(t, err)
	require.Len(t, cam1, 2)
	assert.True(t, cam1[0].SessionStart.After(cam1[1].SessionStart), "newest first")
}

func TestSessionsForDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam1/live", day.Add(9*time.Hour))))
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam1/live", day.Add(17*time.Hour))))
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam1/live", day.AddDate(0, 0, 1))))
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam1/live", day.Add(-time.Second))))

	records, err := db.SessionsForDay(ctx, day.Add(12*time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].SessionStart.Before(records[1].SessionStart), "oldest first within a day")
}

func TestDistinctStreamURLs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam1/live", start)))
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam2/live", start.Add(time.Hour))))
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam1/live", start.Add(2*time.Hour))))

	urls, err := db.DistinctStreamURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rtsp://cam1/live", "rtsp://cam2/live"}, urls)
}

func TestStreamSummaries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	older := testSnapshot("rtsp://cam1/live", start)
	older.ObjectType = "person"
	require.NoError(t, db.UpsertSession(ctx, older))

	newer := testSnapshot("rtsp://cam1/live", start.Add(time.Hour))
	require.NoError(t, db.UpsertSession(ctx, newer))
	require.NoError(t, db.UpsertSession(ctx, testSnapshot("rtsp://cam2/live", start)))

	summaries, err := db.StreamSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byURL := map[string]StreamSummary{}
	for _, s := range summaries {
		byURL[s.StreamURL] = s
	}
	cam1 := byURL["rtsp://cam1/live"]
	assert.Equal(t, 2, cam1.SessionCount)
	assert.Equal(t, "car", cam1.ObjectType, "object type follows the latest session")
	assert.Equal(t, start.Unix(), cam1.FirstSession.Unix())
}
