package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/reproneuro/deface/internal/model"
)

// JSONWriter emits the batch report as indented JSON.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter writing to output.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as JSON.
func (w *JSONWriter) Write(report *model.BatchReport) (int, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return 0, err
	}
	n, err := w.output.Write(buf.Bytes())
	return n, err
}
