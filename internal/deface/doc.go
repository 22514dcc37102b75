// Package deface computes a binary face/ear/teeth-obscuring mask for a
// single MRI volume.
//
// The stage is a fixed sequence of toolkit invocations: reorient to
// standard orientation, pick a reference volume, extract the brain,
// optionally subsample, register the head template, project the
// template's obscuring mask onto the image, and binarize. It writes
// only into its workspace and never mutates the source image; any
// missing intermediate aborts the stage.
package deface
