package report

import (
	"io"

	"github.com/reproneuro/deface/internal/model"
)

// Writer outputs a batch report to a configured destination.
type Writer interface {
	// Write outputs the report, returning the number of bytes written.
	Write(report *model.BatchReport) (int, error)
}

// baseWriter provides the shared output destination for writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
