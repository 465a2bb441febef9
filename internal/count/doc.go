// Package count owns the crossing decision for a single configured counting
// line.
//
// Responsibilities: resolving a relative line specification against frame
// dimensions, detecting per-track line crossings from previous/current
// centroid pairs, bucketing them into the two directional counters, and
// displacement-threshold gating.
// Key types: LineSpec, Line, Evaluator, Event.
//
// The evaluator is stateless per frame: the one-count-per-identity rule is
// enforced by the caller via the track's counted flag.
package count
