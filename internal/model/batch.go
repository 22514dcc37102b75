package model

import "time"

// Item statuses recorded in results and the run ledger.
const (
	// StatusDefaced marks an item whose mask (and, in apply mode,
	// defaced image) was produced and placed.
	StatusDefaced = "defaced"

	// StatusFailed marks the item whose failure aborted the batch.
	StatusFailed = "failed"
)

// ItemResult is the outcome of processing one batch item.
type ItemResult struct {
	// Input is the source image path as given on the command line.
	Input string `json:"input"`

	// Mask is the placed deface-mask path.
	Mask string `json:"mask,omitempty"`

	// Defaced is the defaced image path: the overwritten original in
	// apply mode, the "_defaced" sibling in apply-only mode, empty
	// when no apply mode was requested.
	Defaced string `json:"defaced,omitempty"`

	// Original is the "_orig"-suffixed preserved original, when kept.
	Original string `json:"original,omitempty"`

	// Chained records whether this item's registration was seeded by
	// the previous item's transform.
	Chained bool `json:"chained"`

	// Annexed records whether the item's artifacts were registered
	// with the archive.
	Annexed bool `json:"annexed"`

	// Status is StatusDefaced or StatusFailed.
	Status string `json:"status"`

	// Error holds the failure message for a failed item.
	Error string `json:"error,omitempty"`

	// StartedAt and FinishedAt bound the item's processing time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// BatchReport summarizes one invocation over an ordered batch.
type BatchReport struct {
	// StartedAt and FinishedAt bound the whole run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Items holds per-image results in submission order. A failed run
	// ends with its failing item; later inputs never ran.
	Items []ItemResult `json:"items"`
}

// NewBatchReport creates an empty report stamped with the start time.
func NewBatchReport() *BatchReport {
	return &BatchReport{StartedAt: time.Now()}
}

// Add appends an item result.
func (b *BatchReport) Add(item ItemResult) {
	b.Items = append(b.Items, item)
}

// Defaced counts successfully processed items.
func (b *BatchReport) Defaced() int {
	n := 0
	for _, item := range b.Items {
		if item.Status == StatusDefaced {
			n++
		}
	}
	return n
}

// Failed reports whether the batch ended in a failure.
func (b *BatchReport) Failed() bool {
	for _, item := range b.Items {
		if item.Status == StatusFailed {
			return true
		}
	}
	return false
}
