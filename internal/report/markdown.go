package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/reproneuro/deface/internal/model"
)

// MarkdownWriter renders the batch summary as GitHub-flavored
// Markdown, suitable for dropping into a dataset's provenance notes.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.BatchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Defacing Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Finished", report.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			{"Images", strconv.Itoa(len(report.Items))},
			{"Defaced", strconv.Itoa(report.Defaced())},
		},
	})
	md.PlainText("")

	md.H2("Images")
	md.PlainText("")
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		rows = append(rows, []string{
			"`" + item.Input + "`",
			statusText(item),
			markText(item.Mask),
			markText(item.Defaced),
			boolText(item.Annexed),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Input", "Status", "Mask", "Defaced", "Annexed"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Failed() {
		md.Warningf("The batch aborted on its first failure; inputs after the failed image were not processed.")
	}

	return len(md.String()), md.Build()
}

// statusText renders an item's status with its error when failed.
func statusText(item model.ItemResult) string {
	if item.Status == model.StatusFailed {
		return "failed: " + item.Error
	}
	return item.Status
}

// markText renders an optional path cell.
func markText(path string) string {
	if path == "" {
		return "-"
	}
	return "`" + path + "`"
}

// boolText renders a yes/no cell.
func boolText(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
