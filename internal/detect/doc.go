// Package detect defines the frame/detection contract between the counting
// engine and the external detection model, plus a replay source for running
// the engine against recorded detection fixtures.
//
// The engine never sees pixels: a frame is its dimensions and a list of
// labeled bounding boxes. Centroid computation and class filtering live
// here; everything upstream (video transport, decode, inference) is an
// external collaborator.
package detect
