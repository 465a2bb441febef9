package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-data/crossing.report/internal/count"
)

// Mode selects what the session counts.
type Mode string

const (
	// ModeDirectional counts line crossings into two buckets.
	ModeDirectional Mode = "directional"
	// ModeUnique counts each identity once at registration time,
	// independent of any line.
	ModeUnique Mode = "unique"
)

// State is the session lifecycle state.
type State string

const (
	StateInit       State = "init"       // created, counters zero, start fixed
	StateRunning    State = "running"    // frames processed, periodic flushes
	StateTerminated State = "terminated" // final flush done, no further events
)

// DefaultRecordInterval is the flush cadence when none is configured.
const DefaultRecordInterval = 60 * time.Second

// Snapshot is an immutable view of the session counters, handed to the
// store as an upsert keyed by (StreamURL, SessionStart). In unique mode
// Direction1 and Direction2 are zero.
type Snapshot struct {
	StreamURL    string
	ObjectType   string
	Direction1   int
	Direction2   int
	Total        int
	SessionStart time.Time
	SessionEnd   time.Time
}

// Store is the persistence gateway: a durable idempotent upsert keyed by
// (StreamURL, SessionStart).
type Store interface {
	UpsertSession(ctx context.Context, snap Snapshot) error
}

// Aggregator accumulates per-bucket counters over a session window and
// flushes cumulative snapshots on the record interval and at termination.
type Aggregator struct {
	mode       Mode
	streamURL  string
	objectType string
	bucket1    count.Bucket
	bucket2    count.Bucket

	runID string // log-correlation ID, not part of the persistence key

	start     time.Time
	lastFlush time.Time
	interval  time.Duration

	dir1  int
	dir2  int
	total int

	state State
	store Store
}

// NewAggregator creates a session starting at now. For directional mode the
// orientation's two buckets map onto the dir1/dir2 counters; unique mode
// ignores them.
func NewAggregator(mode Mode, streamURL, objectType string, orientation count.Orientation, interval time.Duration, store Store, now time.Time) *Aggregator {
	if interval <= 0 {
		interval = DefaultRecordInterval
	}
	b1, b2 := orientation.Buckets()
	return &Aggregator{
		mode:       mode,
		streamURL:  streamURL,
		objectType: objectType,
		bucket1:    b1,
		bucket2:    b2,
		runID:      fmt.Sprintf("ses_%s", uuid.NewString()),
		start:      now,
		lastFlush:  now,
		interval:   interval,
		state:      StateInit,
		store:      store,
	}
}

// RunID returns the log-correlation ID for this session.
func (a *Aggregator) RunID() string { return a.runID }

// State returns the current lifecycle state.
func (a *Aggregator) State() State { return a.state }

// SessionStart returns the fixed session start time.
func (a *Aggregator) SessionStart() time.Time { return a.start }

// Totals returns the cumulative counters.
func (a *Aggregator) Totals() (dir1, dir2, total int) {
	return a.dir1, a.dir2, a.total
}

// RecordCrossing tallies one crossing event into its bucket. Only valid in
// directional mode and before termination.
func (a *Aggregator) RecordCrossing(ev count.Event) error {
	if a.state == StateTerminated {
		return fmt.Errorf("session %s is terminated", a.runID)
	}
	if a.mode != ModeDirectional {
		return fmt.Errorf("crossing events not accepted in %s mode", a.mode)
	}
	a.state = StateRunning
	switch ev.Bucket {
	case a.bucket1:
		a.dir1++
	case a.bucket2:
		a.dir2++
	default:
		return fmt.Errorf("bucket %q does not belong to this session", ev.Bucket)
	}
	a.total = a.dir1 + a.dir2
	return nil
}

// RecordUnique tallies one newly registered identity. Only valid in unique
// mode and before termination.
func (a *Aggregator) RecordUnique(trackID int) error {
	if a.state == StateTerminated {
		return fmt.Errorf("session %s is terminated", a.runID)
	}
	if a.mode != ModeUnique {
		return fmt.Errorf("unique registrations not accepted in %s mode", a.mode)
	}
	a.state = StateRunning
	a.total++
	return nil
}

// Snapshot returns the cumulative counters with the session window advanced
// to now.
func (a *Aggregator) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		StreamURL:    a.streamURL,
		ObjectType:   a.objectType,
		Total:        a.total,
		SessionStart: a.start,
		SessionEnd:   now,
	}
	if a.mode == ModeDirectional {
		snap.Direction1 = a.dir1
		snap.Direction2 = a.dir2
	}
	return snap
}

// MaybeFlush writes a cumulative snapshot if the record interval has
// elapsed. The boundary advances whether or not the write succeeds: a
// failed write is retried at the next boundary with updated cumulative
// values, never sooner. Returns whether a flush was attempted.
func (a *Aggregator) MaybeFlush(ctx context.Context, now time.Time) (bool, error) {
	if a.state == StateTerminated {
		return false, nil
	}
	if now.Sub(a.lastFlush) < a.interval {
		return false, nil
	}
	a.state = StateRunning
	a.lastFlush = now
	if err := a.store.UpsertSession(ctx, a.Snapshot(now)); err != nil {
		return true, fmt.Errorf("periodic flush for %s: %w", a.runID, err)
	}
	return true, nil
}

// Finalize writes the final snapshot with SessionEnd=now and terminates the
// session. Calling Finalize on a terminated session is a no-op.
func (a *Aggregator) Finalize(ctx context.Context, now time.Time) error {
	if a.state == StateTerminated {
		return nil
	}
	a.state = StateTerminated
	if err := a.store.UpsertSession(ctx, a.Snapshot(now)); err != nil {
		return fmt.Errorf("final flush for %s: %w", a.runID, err)
	}
	return nil
}
