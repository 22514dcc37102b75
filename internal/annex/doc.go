// Package annex integrates with git-annex, the content-tracking system
// used to archive defacing inputs and outputs.
//
// The integration is deliberately best-effort at the directory level: a
// directory that is not under annex control downgrades to a warning and
// the batch continues without archival for that item. Within an annexed
// directory, however, an expected artifact that cannot be found is an
// internal invariant violation and fatal: it means an earlier pipeline
// step lied about what it produced.
package annex
