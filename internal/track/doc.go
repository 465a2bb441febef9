// Package track owns per-frame identity assignment for detected objects.
//
// Responsibilities: stable integer identities via greedy nearest-centroid
// matching, previous/current centroid bookkeeping, disappearance aging,
// and the one-way counted flag consumed by the counting layer.
// Key types: Tracker, Track, Point.
//
// No counting or persistence logic is allowed in this package: the tracker
// only answers "which detection is which object" once per frame.
package track
