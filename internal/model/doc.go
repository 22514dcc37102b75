// Package model defines the value types describing a defacing run: the
// per-image result and the batch-level report assembled from them.
package model
