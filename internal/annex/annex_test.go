package annex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner scripts git responses keyed by the joined argument list
// and records every call.
type fakeRunner struct {
	calls []string
	// fail lists argument-prefixes whose invocation should error.
	fail []string
	// stdout maps argument-prefixes to replies.
	stdout map[string]string
}

func (f *fakeRunner) Run(_ context.Context, _, name string, args ...string) (string, error) {
	call := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, call)
	for _, prefix := range f.fail {
		if strings.HasPrefix(call, prefix) {
			return "", fmt.Errorf("exit status 1")
		}
	}
	for prefix, out := range f.stdout {
		if strings.HasPrefix(call, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func (f *fakeRunner) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func TestDirIsAnnexed(t *testing.T) {
	t.Parallel()

	t.Run("probe success", func(t *testing.T) {
		t.Parallel()
		a := New(&fakeRunner{}, nil)
		if !a.DirIsAnnexed(context.Background(), "/data") {
			t.Error("expected annexed directory")
		}
	})

	t.Run("probe failure degrades to false", func(t *testing.T) {
		t.Parallel()
		a := New(&fakeRunner{fail: []string{"git annex info"}}, nil)
		if a.DirIsAnnexed(context.Background(), "/data") {
			t.Error("expected non-annexed directory")
		}
	})
}

func TestRestrict(t *testing.T) {
	t.Parallel()

	t.Run("sets marker on tracked, not yet annexed file", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{fail: []string{"git annex lookupkey"}}
		a := New(runner, nil)

		if err := a.Restrict(context.Background(), "/data/sub-01_T1w.nii.gz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "git annex metadata --set distribution-restrictions=sensitive sub-01_T1w.nii.gz"
		if !runner.called(want) {
			t.Errorf("expected %q among calls %v", want, runner.calls)
		}
	})

	t.Run("untracked file is skipped", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{fail: []string{"git ls-files"}}
		a := New(runner, nil)

		if err := a.Restrict(context.Background(), "/data/stray.nii.gz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.called("git annex metadata --set") {
			t.Error("untracked file must not be tagged")
		}
	})

	t.Run("already annexed file is skipped", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{stdout: map[string]string{"git annex lookupkey": "SHA256E-s123--abc"}}
		a := New(runner, nil)

		if err := a.Restrict(context.Background(), "/data/sub-01_T1w.nii.gz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.called("git annex metadata --set") {
			t.Error("annexed file must not be re-tagged")
		}
	})

	t.Run("existing value is never overwritten", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{
			fail:   []string{"git annex lookupkey"},
			stdout: map[string]string{"git annex metadata --get": "embargoed"},
		}
		a := New(runner, nil)

		if err := a.Restrict(context.Background(), "/data/sub-01_T1w.nii.gz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.called("git annex metadata --set") {
			t.Error("an existing restriction value must be preserved")
		}
	})

	t.Run("same value is idempotent", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{
			fail:   []string{"git annex lookupkey"},
			stdout: map[string]string{"git annex metadata --get": RestrictionValue},
		}
		a := New(runner, nil)

		if err := a.Restrict(context.Background(), "/data/sub-01_T1w.nii.gz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.called("git annex metadata --set") {
			t.Error("setting the same value twice is pointless churn")
		}
	})
}

func TestAddMatching(t *testing.T) {
	t.Parallel()

	t.Run("adds image and sidecars", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		base := filepath.Join(dir, "sub-01_T1w_defacemask")
		for _, ext := range []string{".nii.gz", ".json"} {
			if err := os.WriteFile(base+ext, []byte("x"), 0600); err != nil {
				t.Fatal(err)
			}
		}

		runner := &fakeRunner{}
		a := New(runner, nil)
		if err := a.AddMatching(context.Background(), base); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(runner.calls) != 1 {
			t.Fatalf("expected one git call, got %v", runner.calls)
		}
		call := runner.calls[0]
		if !strings.HasPrefix(call, "git annex add ") {
			t.Errorf("expected annex add, got %q", call)
		}
		for _, name := range []string{"sub-01_T1w_defacemask.nii.gz", "sub-01_T1w_defacemask.json"} {
			if !strings.Contains(call, name) {
				t.Errorf("expected %q in %q", name, call)
			}
		}
	})

	t.Run("missing artifact is an internal error", func(t *testing.T) {
		t.Parallel()
		a := New(&fakeRunner{}, nil)
		err := a.AddMatching(context.Background(), filepath.Join(t.TempDir(), "never_produced"))
		if !errors.Is(err, ErrNoArtifacts) {
			t.Errorf("expected ErrNoArtifacts, got %v", err)
		}
	})
}
