// Package history persists a ledger of processed images in a local
// SQLite database, so that "when was this scan defaced, and where did
// the outputs go" can be answered long after the terminal scrollback is
// gone. The ledger is provenance only; the pipeline never reads it.
package history
