// Package log provides a slog handler that renders human-readable,
// level-colored diagnostics on a terminal.
//
// The pipeline's warnings and failures are read by people watching a
// batch run, not by log aggregators, so the handler favors a compact
// colorized line format over machine-parsable output. Color can be
// disabled for dumb terminals and logs piped to files.
package log
