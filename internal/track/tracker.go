package track

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxDisappeared is the number of consecutive unmatched frames an identity
// survives before it is dropped. An identity unmatched for exactly this many
// frames is retained; one more unmatched frame removes it.
const MaxDisappeared = 40

// Point is a 2D centroid position in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to another point.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Track is one tracked identity. Identities are never reused: an object that
// disappears past the tolerance and later reappears gets a fresh ID.
type Track struct {
	ID          int
	Current     Point
	Previous    Point
	Disappeared int

	// Counted flips false→true at most once over the track's lifetime,
	// set by the counting layer when the identity has been tallied.
	Counted bool
}

// Tracker assigns and maintains identities for centroids observed once per
// frame. Tracks are held in an ordered slice (ascending ID) so that every
// iteration order is deterministic and independent of map ordering.
type Tracker struct {
	nextID         int
	tracks         []*Track
	maxDisappeared int
}

// NewTracker returns a tracker with the fixed disappearance tolerance.
func NewTracker() *Tracker {
	return &Tracker{maxDisappeared: MaxDisappeared}
}

// Register creates a new identity for a centroid. Previous and current start
// equal so a freshly registered object can never produce a crossing.
func (t *Tracker) Register(c Point) *Track {
	tr := &Track{
		ID:       t.nextID,
		Current:  c,
		Previous: c,
	}
	t.nextID++
	t.tracks = append(t.tracks, tr)
	return tr
}

// Deregister removes all state for an identity. Unknown IDs are a no-op.
func (t *Tracker) Deregister(id int) {
	for i, tr := range t.tracks {
		if tr.ID == id {
			t.tracks = append(t.tracks[:i], t.tracks[i+1:]...)
			return
		}
	}
}

// Tracks returns the live tracks in ascending ID order. The returned slice
// is a copy; the pointed-to tracks are the tracker's own state.
func (t *Tracker) Tracks() []*Track {
	out := make([]*Track, len(t.tracks))
	copy(out, t.tracks)
	return out
}

// Len returns the number of live identities.
func (t *Tracker) Len() int { return len(t.tracks) }

// Update consumes the full set of class-filtered centroids for one frame and
// returns the live tracks after matching. Must be called exactly once per
// frame.
//
// Empty input ages every identity. With no live identities every detection
// registers. Otherwise matching is greedy over the full pairwise distance
// matrix: identity rows ordered by their minimum distance to any detection,
// each row paired with its nearest detection column, skipping rows and
// columns already consumed by an earlier, closer pairing.
func (t *Tracker) Update(detections []Point) []*Track {
	if len(detections) == 0 {
		t.ageAll()
		return t.Tracks()
	}

	if len(t.tracks) == 0 {
		for _, d := range detections {
			t.Register(d)
		}
		return t.Tracks()
	}

	rows := len(t.tracks)
	cols := len(detections)
	dist := mat.NewDense(rows, cols, nil)
	for i, tr := range t.tracks {
		for j, d := range detections {
			dist.Set(i, j, tr.Current.DistanceTo(d))
		}
	}

	// Row order: ascending by each identity's closest detection.
	order := make([]int, rows)
	rowMin := make([]float64, rows)
	for i := range order {
		order[i] = i
		rowMin[i] = floats.Min(dist.RawRowView(i))
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rowMin[order[a]] < rowMin[order[b]]
	})

	usedRow := make([]bool, rows)
	usedCol := make([]bool, cols)
	for _, i := range order {
		j := floats.MinIdx(dist.RawRowView(i))
		if usedRow[i] || usedCol[j] {
			continue
		}
		tr := t.tracks[i]
		tr.Previous = tr.Current
		tr.Current = detections[j]
		tr.Disappeared = 0
		usedRow[i] = true
		usedCol[j] = true
	}

	// Unmatched identities age; collect IDs first because aging past the
	// tolerance mutates the track slice.
	var aged []int
	for i, tr := range t.tracks {
		if !usedRow[i] {
			aged = append(aged, tr.ID)
		}
	}
	for _, id := range aged {
		t.age(id)
	}

	// Unmatched detections become new identities, in detection order.
	for j, d := range detections {
		if !usedCol[j] {
			t.Register(d)
		}
	}

	return t.Tracks()
}

// ageAll increments the disappearance count for every identity and drops any
// past the tolerance.
func (t *Tracker) ageAll() {
	ids := make([]int, len(t.tracks))
	for i, tr := range t.tracks {
		ids[i] = tr.ID
	}
	for _, id := range ids {
		t.age(id)
	}
}

func (t *Tracker) age(id int) {
	for _, tr := range t.tracks {
		if tr.ID == id {
			tr.Disappeared++
			if tr.Disappeared > t.maxDisappeared {
				t.Deregister(id)
			}
			return
		}
	}
}
