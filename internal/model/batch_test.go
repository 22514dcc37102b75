package model

import (
	"testing"
	"time"
)

func TestBatchReport(t *testing.T) {
	t.Parallel()

	t.Run("new report is stamped and empty", func(t *testing.T) {
		t.Parallel()
		report := NewBatchReport()
		if report.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
		if len(report.Items) != 0 {
			t.Error("expected no items")
		}
	})

	t.Run("counts and failure flag", func(t *testing.T) {
		t.Parallel()
		report := NewBatchReport()
		report.Add(ItemResult{Input: "a.nii.gz", Status: StatusDefaced})
		report.Add(ItemResult{Input: "b.nii.gz", Status: StatusDefaced})
		report.Add(ItemResult{Input: "c.nii.gz", Status: StatusFailed, Error: "step register-template: boom"})

		if got := report.Defaced(); got != 2 {
			t.Errorf("Defaced() = %d, want 2", got)
		}
		if !report.Failed() {
			t.Error("expected Failed() to be true")
		}
	})

	t.Run("clean batch is not failed", func(t *testing.T) {
		t.Parallel()
		report := NewBatchReport()
		report.Add(ItemResult{
			Input:      "a.nii.gz",
			Status:     StatusDefaced,
			StartedAt:  time.Now(),
			FinishedAt: time.Now(),
		})
		if report.Failed() {
			t.Error("expected Failed() to be false")
		}
	})
}
