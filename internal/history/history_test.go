package history

import (
	"context"
	"testing"
	"time"

	"github.com/reproneuro/deface/internal/model"
)

func TestOpenClose(t *testing.T) {
	t.Parallel()

	t.Run("creates database and directory", func(t *testing.T) {
		t.Parallel()
		store, err := Open(t.TempDir()+"/nested/ledger", DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer store.Close()
		if store.Path() == "" {
			t.Error("expected a database path")
		}
	})

	t.Run("missing database without create is an error", func(t *testing.T) {
		t.Parallel()
		opts := Options{CreateIfNotExists: false, EnableWAL: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected an error for a missing ledger")
		}
	})
}

func TestSaveAndRecentItems(t *testing.T) {
	t.Parallel()

	store, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	items := []model.ItemResult{
		{
			Input: "/data/sub-01_T1w.nii.gz", Mask: "/data/sub-01_T1w_defacemask.nii.gz",
			Status: model.StatusDefaced, StartedAt: base, FinishedAt: base.Add(time.Minute),
		},
		{
			Input: "/data/sub-02_T1w.nii.gz", Mask: "/data/sub-02_T1w_defacemask.nii.gz",
			Defaced: "/data/sub-02_T1w.nii.gz", Original: "/data/sub-02_T1w_orig.nii.gz",
			Chained: true, Annexed: true,
			Status: model.StatusDefaced, StartedAt: base.Add(2 * time.Minute), FinishedAt: base.Add(3 * time.Minute),
		},
		{
			Input: "/data/sub-03_T1w.nii.gz", Status: model.StatusFailed,
			Error: "step brain-extract: no valid image", StartedAt: base.Add(4 * time.Minute), FinishedAt: base.Add(5 * time.Minute),
		},
	}
	for i := range items {
		if err := store.SaveItem(ctx, &items[i]); err != nil {
			t.Fatalf("failed to save item %d: %v", i, err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := store.RecentItems(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 items, got %d", len(got))
		}
		if got[0].Input != "/data/sub-03_T1w.nii.gz" {
			t.Errorf("expected newest item first, got %q", got[0].Input)
		}
	})

	t.Run("fields round-trip", func(t *testing.T) {
		got, err := store.RecentItems(ctx, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		chained := got[1]
		if !chained.Chained || !chained.Annexed {
			t.Errorf("expected chained+annexed flags to survive, got %+v", chained)
		}
		if chained.Original != "/data/sub-02_T1w_orig.nii.gz" {
			t.Errorf("unexpected original path %q", chained.Original)
		}
		failed := got[0]
		if failed.Status != model.StatusFailed || failed.Error == "" {
			t.Errorf("expected failure record, got %+v", failed)
		}
	})

	t.Run("limit is honored", func(t *testing.T) {
		got, err := store.RecentItems(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 item, got %d", len(got))
		}
	})
}
