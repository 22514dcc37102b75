package fsl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitImageExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		wantBase string
		wantExt  string
	}{
		{"compressed nifti", "/data/sub-01_T1w.nii.gz", "/data/sub-01_T1w", ".nii.gz"},
		{"plain nifti", "sub-01_T1w.nii", "sub-01_T1w", ".nii"},
		{"analyze header", "scan.hdr", "scan", ".hdr"},
		{"analyze image", "scan.img", "scan", ".img"},
		{"compressed analyze", "scan.hdr.gz", "scan", ".hdr.gz"},
		{"no extension", "/data/sub-01_T1w", "/data/sub-01_T1w", ""},
		{"unrelated extension", "notes.txt", "notes.txt", ""},
		{"dots in basename", "sub-01.ses-02_T1w.nii.gz", "sub-01.ses-02_T1w", ".nii.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			base, ext := SplitImageExt(tt.path)
			if base != tt.wantBase || ext != tt.wantExt {
				t.Errorf("SplitImageExt(%q) = (%q, %q), want (%q, %q)",
					tt.path, base, ext, tt.wantBase, tt.wantExt)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	writeImage := func(t *testing.T, dir, name string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("not a real image"), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("exact path with extension", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeImage(t, dir, "a.nii")
		got, err := Resolve(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("bare base finds variant", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := writeImage(t, dir, "a.nii.gz")
		got, err := Resolve(filepath.Join(dir, "a"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("compressed variant wins over plain", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		gz := writeImage(t, dir, "a.nii.gz")
		writeImage(t, dir, "a.nii")
		got, err := Resolve(filepath.Join(dir, "a"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != gz {
			t.Errorf("expected compressed variant %q, got %q", gz, got)
		}
	})

	t.Run("path with missing extension falls back to variants", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		gz := writeImage(t, dir, "a.nii.gz")
		got, err := Resolve(filepath.Join(dir, "a.nii"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != gz {
			t.Errorf("expected %q, got %q", gz, got)
		}
	})

	t.Run("missing image", func(t *testing.T) {
		t.Parallel()
		_, err := Resolve(filepath.Join(t.TempDir(), "ghost"))
		if !errors.Is(err, ErrImageNotFound) {
			t.Errorf("expected ErrImageNotFound, got %v", err)
		}
	})
}

func TestRemoveImageVariants(t *testing.T) {
	t.Parallel()

	t.Run("removes every variant", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		for _, ext := range []string{".nii.gz", ".nii", ".hdr", ".img"} {
			if err := os.WriteFile(filepath.Join(dir, "mask"+ext), []byte("x"), 0600); err != nil {
				t.Fatal(err)
			}
		}

		if err := RemoveImageVariants(filepath.Join(dir, "mask.nii.gz")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty directory, found %d entries", len(entries))
		}
	})

	t.Run("nothing to remove is not an error", func(t *testing.T) {
		t.Parallel()
		if err := RemoveImageVariants(filepath.Join(t.TempDir(), "absent")); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unrelated files survive", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		keep := filepath.Join(dir, "mask.json")
		if err := os.WriteFile(keep, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "mask.nii"), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}

		if err := RemoveImageVariants(filepath.Join(dir, "mask")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(keep); err != nil {
			t.Errorf("sidecar json should survive: %v", err)
		}
	})
}

func TestImageExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.nii"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if !ImageExists(filepath.Join(dir, "a")) {
		t.Error("expected existing image to be found")
	}
	if ImageExists(filepath.Join(dir, "b")) {
		t.Error("expected missing image to be reported absent")
	}
}
