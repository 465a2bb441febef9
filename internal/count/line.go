package count

import (
	"fmt"
	"math"

	"github.com/kestrel-data/crossing.report/internal/track"
)

// Orientation selects the counting line geometry.
type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
	OrientationDiagonal   Orientation = "diagonal"
)

// DirectionMode refines the orientation. Horizontal lines check movement on
// the vertical axis and vice versa; diagonal lines tilt one of two ways.
type DirectionMode string

const (
	DirectionVertical   DirectionMode = "vertical"
	DirectionHorizontal DirectionMode = "horizontal"
	DirectionDiag1      DirectionMode = "diag1" // top-left → bottom-right
	DirectionDiag2      DirectionMode = "diag2" // top-right → bottom-left
)

// Bucket is one of the two directional counters for an orientation.
type Bucket string

const (
	BucketUp    Bucket = "up"
	BucketDown  Bucket = "down"
	BucketLeft  Bucket = "left"
	BucketRight Bucket = "right"
	BucketDiag1 Bucket = "diag1"
	BucketDiag2 Bucket = "diag2"
)

// LineSpec is the configured counting line, relative to frame dimensions.
type LineSpec struct {
	Orientation   Orientation
	Position      float64 // fraction of the relevant extent, in [0,1]
	DirectionMode DirectionMode
}

// Validate checks orientation, position range, and the direction mode
// resolution rules.
func (s LineSpec) Validate() error {
	if s.Position < 0 || s.Position > 1 {
		return fmt.Errorf("line position must be between 0 and 1, got %g", s.Position)
	}
	switch s.Orientation {
	case OrientationHorizontal:
		if s.DirectionMode != DirectionVertical {
			return fmt.Errorf("horizontal line requires direction mode %q, got %q", DirectionVertical, s.DirectionMode)
		}
	case OrientationVertical:
		if s.DirectionMode != DirectionHorizontal {
			return fmt.Errorf("vertical line requires direction mode %q, got %q", DirectionHorizontal, s.DirectionMode)
		}
	case OrientationDiagonal:
		if s.DirectionMode != DirectionDiag1 && s.DirectionMode != DirectionDiag2 {
			return fmt.Errorf("diagonal line requires direction mode %q or %q, got %q", DirectionDiag1, DirectionDiag2, s.DirectionMode)
		}
	default:
		return fmt.Errorf("unknown line orientation %q", s.Orientation)
	}
	return nil
}

// ResolveDirectionMode returns the direction mode implied by an orientation.
// Diagonal orientations keep whichever diag mode is already configured,
// defaulting to diag1.
func (s LineSpec) ResolveDirectionMode() DirectionMode {
	switch s.Orientation {
	case OrientationHorizontal:
		return DirectionVertical
	case OrientationVertical:
		return DirectionHorizontal
	default:
		if s.DirectionMode == DirectionDiag2 {
			return DirectionDiag2
		}
		return DirectionDiag1
	}
}

// Line is a counting line resolved against concrete frame dimensions.
type Line struct {
	Orientation Orientation
	P1, P2      track.Point
}

// Resolve places the line within a width×height frame.
//
// Horizontal: y = round(H·position). Vertical: x = round(W·position).
// Diagonal: endpoints on the top and bottom edges offset by
// round(min(W,H)·position), tilted per the direction mode.
func (s LineSpec) Resolve(width, height int) Line {
	w := float64(width)
	h := float64(height)
	switch s.Orientation {
	case OrientationHorizontal:
		y := math.Round(h * s.Position)
		return Line{Orientation: s.Orientation, P1: track.Point{X: 0, Y: y}, P2: track.Point{X: w, Y: y}}
	case OrientationVertical:
		x := math.Round(w * s.Position)
		return Line{Orientation: s.Orientation, P1: track.Point{X: x, Y: 0}, P2: track.Point{X: x, Y: h}}
	default:
		off := math.Round(math.Min(w, h) * s.Position)
		if s.ResolveDirectionMode() == DirectionDiag2 {
			return Line{Orientation: s.Orientation, P1: track.Point{X: w, Y: off}, P2: track.Point{X: 0, Y: h - off}}
		}
		return Line{Orientation: s.Orientation, P1: track.Point{X: 0, Y: off}, P2: track.Point{X: w, Y: h - off}}
	}
}

// signedDistance returns the signed perpendicular distance from p to the
// line. A zero-length line is treated as unit length to avoid division by
// zero.
func (l Line) signedDistance(p track.Point) float64 {
	vx := l.P2.X - l.P1.X
	vy := l.P2.Y - l.P1.Y
	norm := math.Hypot(vx, vy)
	if norm == 0 {
		norm = 1
	}
	return ((p.X-l.P1.X)*vy - (p.Y-l.P1.Y)*vx) / norm
}
