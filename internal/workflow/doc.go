// Package workflow drives a defacing batch: it sequences the per-image
// mask stage over the inputs, threads the optional carry transform
// between them, places outputs according to the suffix policy, and
// hands artifacts to the archival stage.
//
// Processing is strictly sequential and fail-fast: one image completes
// before the next begins, and the first per-image failure aborts the
// whole batch. The only deliberate degradation is archival: an input
// directory outside the archive downgrades to a warning for that item.
package workflow
