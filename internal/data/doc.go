// Package data locates the fixed images the defacing pipeline aligns
// against: a head template, the face/ear/teeth obscuring mask defined
// in the template's space, and a weighting image that focuses the
// registration cost on the head.
package data
