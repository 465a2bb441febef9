package count

import (
	"math"
	"time"

	"github.com/kestrel-data/crossing.report/internal/track"
)

// Algorithm selects how detected crossings are filtered before counting.
type Algorithm string

const (
	// AlgorithmStandard records every detected sign change immediately.
	AlgorithmStandard Algorithm = "standard"
	// AlgorithmThreshold drops crossings whose displacement along the
	// relevant axis is below the configured minimum, suppressing
	// jitter-induced counts.
	AlgorithmThreshold Algorithm = "threshold"
)

// Event is one recorded line crossing.
type Event struct {
	TrackID      int
	Bucket       Bucket
	Displacement float64
	Timestamp    time.Time
}

// Evaluator decides whether a previous→current centroid move crossed the
// line and into which bucket. The line itself is passed per frame because
// it is resolved against that frame's dimensions.
type Evaluator struct {
	algorithm       Algorithm
	minDisplacement float64
}

// NewEvaluator returns an evaluator. minDisplacement is only consulted when
// the algorithm is AlgorithmThreshold.
func NewEvaluator(algorithm Algorithm, minDisplacement float64) *Evaluator {
	return &Evaluator{algorithm: algorithm, minDisplacement: minDisplacement}
}

// Evaluate reports whether the move from prev to curr crossed the line. A
// suppressed (below-threshold) crossing returns ok=false so a later frame
// can still produce a qualifying crossing for the same identity.
func (e *Evaluator) Evaluate(line Line, trackID int, prev, curr track.Point, now time.Time) (Event, bool) {
	bucket, crossed := line.crossing(prev, curr)
	if !crossed {
		return Event{}, false
	}

	disp := line.displacement(prev, curr)
	if e.algorithm == AlgorithmThreshold && disp < e.minDisplacement {
		return Event{}, false
	}

	return Event{
		TrackID:      trackID,
		Bucket:       bucket,
		Displacement: disp,
		Timestamp:    now,
	}, true
}

// crossing detects a line crossing between two positions and resolves the
// bucket.
//
// Horizontal: up when prevY > L and currY ≤ L, down when prevY < L and
// currY ≥ L. Vertical is symmetric on X with left/right. Diagonal crosses
// when the signed perpendicular distances have strictly opposite signs;
// the bucket follows the sign of the previous position's distance.
func (l Line) crossing(prev, curr track.Point) (Bucket, bool) {
	switch l.Orientation {
	case OrientationHorizontal:
		switch {
		case prev.Y > l.P1.Y && curr.Y <= l.P1.Y:
			return BucketUp, true
		case prev.Y < l.P1.Y && curr.Y >= l.P1.Y:
			return BucketDown, true
		}
	case OrientationVertical:
		switch {
		case prev.X > l.P1.X && curr.X <= l.P1.X:
			return BucketLeft, true
		case prev.X < l.P1.X && curr.X >= l.P1.X:
			return BucketRight, true
		}
	case OrientationDiagonal:
		dPrev := l.signedDistance(prev)
		dCurr := l.signedDistance(curr)
		if dPrev*dCurr < 0 {
			if dPrev > 0 {
				return BucketDiag1, true
			}
			return BucketDiag2, true
		}
	}
	return "", false
}

// displacement is the movement magnitude along the axis relevant to the
// orientation: |Δy| for horizontal lines, |Δx| for vertical, |Δ(x+y)| for
// diagonal.
func (l Line) displacement(prev, curr track.Point) float64 {
	switch l.Orientation {
	case OrientationHorizontal:
		return math.Abs(curr.Y - prev.Y)
	case OrientationVertical:
		return math.Abs(curr.X - prev.X)
	default:
		return math.Abs((curr.X + curr.Y) - (prev.X + prev.Y))
	}
}

// Buckets returns the two bucket labels for an orientation, in counter
// order (dir1, dir2).
func (o Orientation) Buckets() (Bucket, Bucket) {
	switch o {
	case OrientationHorizontal:
		return BucketUp, BucketDown
	case OrientationVertical:
		return BucketLeft, BucketRight
	default:
		return BucketDiag1, BucketDiag2
	}
}
