package detect

import (
	"context"
	"strings"
	"time"

	"github.com/kestrel-data/crossing.report/internal/track"
)

// BoundingBox is a detection box in pixel coordinates, (X1,Y1) top-left and
// (X2,Y2) bottom-right.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Centroid returns the midpoint of the box, the position used for tracking.
func (b BoundingBox) Centroid() track.Point {
	return track.Point{
		X: float64(b.X1+b.X2) / 2,
		Y: float64(b.Y1+b.Y2) / 2,
	}
}

// Detection is one labeled box from the detection model.
type Detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// Frame is one decoded frame's worth of detections.
type Frame struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Timestamp  time.Time   `json:"timestamp"`
	Detections []Detection `json:"detections"`
}

// Centroids returns the centroids of detections matching objectType,
// case-insensitively. Detections with other labels, including labels the
// catalog does not know, are simply excluded; a foreign label is not an
// error condition.
func (f Frame) Centroids(objectType string) []track.Point {
	var out []track.Point
	for _, d := range f.Detections {
		if strings.EqualFold(d.Label, objectType) {
			out = append(out, d.Box.Centroid())
		}
	}
	return out
}

// Source supplies frames to the engine, one per call. Next returns io.EOF
// when the stream ends normally and a *DecodeError when a mid-stream read
// fails.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}
