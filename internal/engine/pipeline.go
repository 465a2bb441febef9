package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/kestrel-data/crossing.report/internal/count"
	"github.com/kestrel-data/crossing.report/internal/detect"
	"github.com/kestrel-data/crossing.report/internal/session"
	"github.com/kestrel-data/crossing.report/internal/timeutil"
	"github.com/kestrel-data/crossing.report/internal/track"
)

// Config is the engine's view of the launch configuration, values only.
type Config struct {
	StreamURL       string
	ObjectType      string
	Mode            session.Mode
	Line            count.LineSpec // directional mode only
	Algorithm       count.Algorithm
	MinDisplacement float64
	RecordInterval  time.Duration
}

// Validate checks the parts of the configuration the engine consumes.
func (c Config) Validate() error {
	if c.StreamURL == "" {
		return errors.New("stream URL is required")
	}
	if c.ObjectType == "" {
		return errors.New("object type is required")
	}
	switch c.Mode {
	case session.ModeDirectional:
		if err := c.Line.Validate(); err != nil {
			return err
		}
	case session.ModeUnique:
	default:
		return fmt.Errorf("unknown analysis mode %q", c.Mode)
	}
	if c.Algorithm != count.AlgorithmStandard && c.Algorithm != count.AlgorithmThreshold {
		return fmt.Errorf("unknown counting algorithm %q", c.Algorithm)
	}
	if c.Algorithm == count.AlgorithmThreshold && c.MinDisplacement <= 0 {
		return errors.New("threshold algorithm requires a positive min displacement")
	}
	return nil
}

// Result summarizes a finished session.
type Result struct {
	Direction1   int
	Direction2   int
	Total        int
	Frames       int
	SessionStart time.Time
	SessionEnd   time.Time
}

// Pipeline wires one source, one tracker, one evaluator, and one session
// aggregator into the sequential control loop.
type Pipeline struct {
	cfg    Config
	source detect.Source
	store  session.Store

	// clock is swappable for tests.
	clock timeutil.Clock
}

// New creates a pipeline. The source is owned by the pipeline from here on:
// Run releases it on every exit path.
func New(cfg Config, source detect.Source, store session.Store) *Pipeline {
	return &Pipeline{cfg: cfg, source: source, store: store, clock: timeutil.RealClock{}}
}

// Run processes frames until the stream ends, decoding fails, or ctx is
// cancelled. On a normal end or cancellation the final cumulative snapshot
// is flushed and Run returns a nil error. On decode failure the accumulated
// counts are still flushed as the final snapshot, then the decode error is
// returned. Persistence failures never stop the loop.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	defer func() {
		if err := p.source.Close(); err != nil {
			log.Printf("close source: %v", err)
		}
	}()

	start := p.clock.Now()
	agg := session.NewAggregator(p.cfg.Mode, p.cfg.StreamURL, p.cfg.ObjectType,
		p.cfg.Line.Orientation, p.cfg.RecordInterval, p.store, start)
	tracker := track.NewTracker()
	eval := count.NewEvaluator(p.cfg.Algorithm, p.cfg.MinDisplacement)

	log.Printf("[%s] session started: stream=%s object=%s mode=%s", agg.RunID(), p.cfg.StreamURL, p.cfg.ObjectType, p.cfg.Mode)

	frames := 0
	finish := func(err error) (Result, error) {
		end := p.clock.Now()
		// The final flush must run even when ctx is already cancelled.
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ferr := agg.Finalize(flushCtx, end); ferr != nil {
			log.Printf("[%s] final flush failed: %v", agg.RunID(), ferr)
		}
		dir1, dir2, total := agg.Totals()
		log.Printf("[%s] session ended: frames=%d total=%d", agg.RunID(), frames, total)
		return Result{
			Direction1:   dir1,
			Direction2:   dir2,
			Total:        total,
			Frames:       frames,
			SessionStart: start,
			SessionEnd:   end,
		}, err
	}

	for {
		// Stop signal, checked once per frame iteration.
		select {
		case <-ctx.Done():
			return finish(nil)
		default:
		}

		frame, err := p.source.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return finish(nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return finish(nil)
		case errors.Is(err, detect.ErrStreamUnavailable):
			// Fatal before any frame: the session ends with zero counts
			// and nothing is persisted.
			return Result{SessionStart: start, SessionEnd: p.clock.Now(), Frames: frames}, err
		default:
			// Mid-stream decode failure: stop decoding but keep what was
			// counted so far as the final snapshot.
			return finish(err)
		}
		frames++

		ts := frame.Timestamp
		if ts.IsZero() {
			ts = p.clock.Now()
		}

		live := tracker.Update(frame.Centroids(p.cfg.ObjectType))
		p.applyCounting(agg, eval, live, frame, ts)

		// Periodic flush; a failed write is recorded and retried at the
		// next boundary with updated cumulative values.
		if _, err := agg.MaybeFlush(ctx, p.clock.Now()); err != nil {
			log.Printf("[%s] %v (will retry next interval)", agg.RunID(), err)
		}
	}
}

// applyCounting runs the per-frame counting pass over the live tracks.
// Identities are only examined while uncounted; recording a crossing or a
// unique registration flips the flag permanently.
func (p *Pipeline) applyCounting(agg *session.Aggregator, eval *count.Evaluator, live []*track.Track, frame detect.Frame, ts time.Time) {
	switch p.cfg.Mode {
	case session.ModeUnique:
		for _, tr := range live {
			if tr.Counted {
				continue
			}
			if err := agg.RecordUnique(tr.ID); err != nil {
				log.Printf("[%s] %v", agg.RunID(), err)
				continue
			}
			tr.Counted = true
		}
	case session.ModeDirectional:
		line := p.cfg.Line.Resolve(frame.Width, frame.Height)
		for _, tr := range live {
			if tr.Counted {
				continue
			}
			ev, ok := eval.Evaluate(line, tr.ID, tr.Previous, tr.Current, ts)
			if !ok {
				continue
			}
			if err := agg.RecordCrossing(ev); err != nil {
				log.Printf("[%s] %v", agg.RunID(), err)
				continue
			}
			tr.Counted = true
			log.Printf("[%s] track %d counted as %s (displacement %.1f)", agg.RunID(), ev.TrackID, ev.Bucket, ev.Displacement)
		}
	}
}
