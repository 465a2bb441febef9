// Package session owns the cumulative counters for one counting run and the
// snapshot/flush protocol against the persistence store.
//
// A session has a fixed start time and an advancing end time. Every flush
// writes the cumulative totals since session start under the same
// (stream URL, session start) key, so repeated flushes overwrite one stored
// record with growing totals. Lifecycle: init → running → terminated, with
// no way back to running.
package session
