// Package engine runs the per-frame control loop: pull a frame, update the
// tracker, evaluate crossings (or unique registrations), feed the session
// aggregator, and flush on the record interval.
//
// The loop is single-threaded and cooperative. The only blocking points are
// frame acquisition and the persistence write; cancellation is checked once
// per frame. Persistence failures are logged and retried at the next
// boundary; decode failures end the session but flush what was counted.
package engine
