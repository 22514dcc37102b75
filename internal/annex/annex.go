package annex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Metadata key and value marking an image as carrying identifiable
// anatomy that must not be redistributed.
const (
	// RestrictionKey is the git-annex metadata key for distribution
	// restrictions.
	RestrictionKey = "distribution-restrictions"

	// RestrictionValue marks a file as containing sensitive,
	// re-identifiable data.
	RestrictionValue = "sensitive"
)

// ErrNoArtifacts is returned when an expected output artifact has no
// files to register. Upstream steps report the files they produce, so
// an empty match is a broken invariant, not an environment problem.
var ErrNoArtifacts = errors.New("no files found for expected artifact")

// Runner executes an external command and returns its stdout.
// Satisfied by fsl.ExecRunner; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// Archiver registers files with git-annex and manages the
// non-redistribution marker on originals.
type Archiver struct {
	runner Runner
	logger *slog.Logger
}

// New creates an Archiver using runner for git invocations.
func New(runner Runner, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{runner: runner, logger: logger}
}

// git runs a git subcommand inside dir.
func (a *Archiver) git(ctx context.Context, dir string, args ...string) (string, error) {
	return a.runner.Run(ctx, dir, "git", args...)
}

// DirIsAnnexed reports whether dir participates in a git-annex
// repository. Probing failures mean "not annexed"; the caller decides
// whether that warrants a warning.
func (a *Archiver) DirIsAnnexed(ctx context.Context, dir string) bool {
	_, err := a.git(ctx, dir, "annex", "info", "--fast")
	return err == nil
}

// Restrict sets the non-redistribution marker on path if it carries no
// restriction value yet. The marker is only placed on files git tracks
// but has not yet content-addressed; once annexed, the metadata
// travels with the content and re-tagging would be redundant. An
// existing different value is preserved with a warning: overwriting a
// curator's restriction decision is never this tool's call.
func (a *Archiver) Restrict(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	name := filepath.Base(path)

	if _, err := a.git(ctx, dir, "ls-files", "--error-unmatch", name); err != nil {
		a.logger.Debug("file not tracked, skipping restriction marker", "path", path)
		return nil
	}
	if _, err := a.git(ctx, dir, "annex", "lookupkey", name); err == nil {
		a.logger.Debug("file already content-addressed, skipping restriction marker", "path", path)
		return nil
	}

	current, err := a.git(ctx, dir, "annex", "metadata", "--get", RestrictionKey, name)
	if err != nil {
		return fmt.Errorf("failed to read %s metadata of %s: %w", RestrictionKey, path, err)
	}
	if current = strings.TrimSpace(current); current != "" {
		if current != RestrictionValue {
			a.logger.Warn("existing restriction value left untouched",
				"path", path, "key", RestrictionKey, "value", current)
		}
		return nil
	}

	if _, err := a.git(ctx, dir, "annex", "metadata",
		"--set", RestrictionKey+"="+RestrictionValue, name); err != nil {
		return fmt.Errorf("failed to mark %s as %s: %w", path, RestrictionValue, err)
	}
	a.logger.Info("restriction marker set", "path", path, "value", RestrictionValue)
	return nil
}

// AddMatching registers the artifact at base (a path without image
// extension) and every sidecar sharing its basename with the annex.
// Zero matching files returns ErrNoArtifacts.
func (a *Archiver) AddMatching(ctx context.Context, base string) error {
	matches, err := filepath.Glob(base + ".*")
	if err != nil {
		return fmt.Errorf("bad artifact pattern for %s: %w", base, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: %s", ErrNoArtifacts, base)
	}

	dir := filepath.Dir(base)
	args := []string{"annex", "add"}
	for _, m := range matches {
		args = append(args, filepath.Base(m))
	}
	if _, err := a.git(ctx, dir, args...); err != nil {
		return fmt.Errorf("failed to annex %s: %w", base, err)
	}
	a.logger.Debug("artifacts annexed", "base", base, "count", len(matches))
	return nil
}
