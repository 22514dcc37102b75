// Package report renders batch summaries in Markdown or JSON.
// Reports are presentation only; nothing in the pipeline depends on
// them.
package report
