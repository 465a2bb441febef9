package detect

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrStreamUnavailable marks a stream that could not be opened at all.
// It is fatal for the session: no retry, no counts.
var ErrStreamUnavailable = errors.New("stream unavailable")

// DecodeError marks a mid-stream read failure. The engine stops decoding
// but flushes whatever was counted before the failure.
type DecodeError struct {
	Frame int // zero-based index of the frame that failed to decode
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failure at frame %d: %v", e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ReplaySource replays recorded detection frames from a line-delimited JSON
// fixture, one frame per line. It stands in for the live detection model in
// dev mode, the same way a recorded fixture stands in for the live sensor.
type ReplaySource struct {
	f       *os.File
	scanner *bufio.Scanner
	frame   int
}

// OpenReplay opens a fixture file. A missing or unreadable file is
// ErrStreamUnavailable.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay fixture %q: %v: %w", path, err, ErrStreamUnavailable)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &ReplaySource{f: f, scanner: scanner}, nil
}

// Next returns the next recorded frame. Blank lines are skipped; a line
// that fails to parse is a DecodeError carrying the frame index.
func (r *ReplaySource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return Frame{}, &DecodeError{Frame: r.frame, Err: err}
		}
		r.frame++
		return f, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Frame{}, &DecodeError{Frame: r.frame, Err: err}
	}
	return Frame{}, io.EOF
}

// Close releases the fixture file.
func (r *ReplaySource) Close() error {
	return r.f.Close()
}
