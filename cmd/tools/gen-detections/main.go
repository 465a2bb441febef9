// Command gen-detections generates sample detection frame files (JSONL) for
// testing replay.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/kestrel-data/crossing.report/internal/detect"
)

func main() {
	output := flag.String("o", "sample_frames.jsonl", "output path")
	frames := flag.Int("n", 200, "number of frames")
	objects := flag.Int("objects", 3, "number of moving objects")
	label := flag.String("label", "car", "detection label")
	width := flag.Int("width", 640, "frame width")
	height := flag.Int("height", 360, "frame height")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))

	// Each object drifts vertically at its own speed so some cross the
	// mid-frame line and some do not.
	type mover struct {
		x, y, dy float64
	}
	movers := make([]mover, *objects)
	for i := range movers {
		movers[i] = mover{
			x:  rng.Float64() * float64(*width),
			y:  rng.Float64() * float64(*height),
			dy: (rng.Float64() - 0.5) * 12,
		}
	}

	enc := json.NewEncoder(f)
	start := time.Now().UTC()
	for i := 0; i < *frames; i++ {
		frame := detect.Frame{
			Width:     *width,
			Height:    *height,
			Timestamp: start.Add(time.Duration(i) * 100 * time.Millisecond),
		}
		for j := range movers {
			m := &movers[j]
			m.y += m.dy
			if m.y < -40 || m.y > float64(*height)+40 {
				// Re-enter from the opposite edge as a fresh object.
				m.y = float64(*height) - m.y
				m.x = rng.Float64() * float64(*width)
			}
			cx, cy := int(m.x), int(m.y)
			frame.Detections = append(frame.Detections, detect.Detection{
				Label:      *label,
				Confidence: 0.6 + rng.Float64()*0.4,
				Box:        detect.BoundingBox{X1: cx - 12, Y1: cy - 12, X2: cx + 12, Y2: cy + 12},
			})
		}
		if err := enc.Encode(frame); err != nil {
			log.Fatalf("write frame %d: %v", i, err)
		}
		if (i+1)%50 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}
	log.Printf("✓ Created: %s", *output)
}
