package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/reproneuro/deface/internal/config"
	"github.com/reproneuro/deface/internal/deface"
	"github.com/reproneuro/deface/internal/fsl"
	"github.com/reproneuro/deface/internal/model"
)

// Stage computes the obscuring mask for one image.
// Satisfied by *deface.Stage.
type Stage interface {
	Run(ctx context.Context, job *deface.Job) error
}

// Toolkit is the slice of the external toolkit the driver itself needs
// for placing outputs. Satisfied by *fsl.Toolkit.
type Toolkit interface {
	CopyImage(ctx context.Context, src, dst string) (string, error)
	ApplyMask(ctx context.Context, src, mask, dst string) error
	ImageValid(ctx context.Context, path string) (bool, error)
}

// Archiver registers artifacts with the content-tracking system.
// Satisfied by *annex.Archiver.
type Archiver interface {
	DirIsAnnexed(ctx context.Context, dir string) bool
	Restrict(ctx context.Context, path string) error
	AddMatching(ctx context.Context, base string) error
}

// Ledger records processed items. Satisfied by *history.Store.
type Ledger interface {
	SaveItem(ctx context.Context, item *model.ItemResult) error
}

// Driver runs the batch. All collaborators are injected; the driver
// holds no ambient state beyond the workspace path it was given.
type Driver struct {
	cfg       *config.Config
	stage     Stage
	tk        Toolkit
	archiver  Archiver
	ledger    Ledger // nil disables the run ledger
	workspace string
	logger    *slog.Logger
}

// New creates a Driver. workspace must be an existing directory owned
// exclusively by this process; the caller removes it afterwards.
func New(cfg *config.Config, stage Stage, tk Toolkit, archiver Archiver, ledger Ledger, workspace string, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		cfg:       cfg,
		stage:     stage,
		tk:        tk,
		archiver:  archiver,
		ledger:    ledger,
		workspace: workspace,
		logger:    logger,
	}
}

// Run processes every input in order. The returned report covers the
// items that ran, including the failing one; the error, when non-nil,
// is the failure that aborted the batch.
func (d *Driver) Run(ctx context.Context) (*model.BatchReport, error) {
	report := model.NewBatchReport()

	carry := ""
	for i, src := range d.cfg.Inputs {
		item, err := d.processItem(ctx, i, src, &carry)
		report.Add(item)
		d.saveItem(ctx, &item)
		if err != nil {
			report.FinishedAt = time.Now()
			return report, fmt.Errorf("image %s: %w", src, err)
		}
	}

	report.FinishedAt = time.Now()
	return report, nil
}

// saveItem records item in the run ledger; ledger failures are logged,
// never fatal; provenance bookkeeping must not abort a defacing run.
func (d *Driver) saveItem(ctx context.Context, item *model.ItemResult) {
	if d.ledger == nil {
		return
	}
	if err := d.ledger.SaveItem(ctx, item); err != nil {
		d.logger.Warn("failed to record item in run ledger", "input", item.Input, "error", err)
	}
}

// processItem runs one image to completion. carry is the transform
// threaded between items; it is cleared here when chaining is off so
// every item sees exactly the state the configuration promises.
func (d *Driver) processItem(ctx context.Context, index int, src string, carry *string) (model.ItemResult, error) {
	item := model.ItemResult{
		Input:     src,
		Status:    model.StatusFailed,
		StartedAt: time.Now(),
	}
	fail := func(err error) (model.ItemResult, error) {
		item.Error = err.Error()
		item.FinishedAt = time.Now()
		return item, err
	}

	if !d.cfg.ChainTransforms {
		*carry = ""
	}
	item.Chained = *carry != ""

	// Archival is probed per item: a batch may span annexed and plain
	// directories, and only the plain ones lose archival.
	annexed := false
	if d.cfg.Annex {
		dir := filepath.Dir(src)
		if d.archiver.DirIsAnnexed(ctx, dir) {
			annexed = true
		} else {
			d.logger.Warn("directory not under annex control, skipping archival for this image",
				"path", dir)
		}
	}

	job := deface.NewJob(src, filepath.Join(d.workspace, fmt.Sprintf("item%03d", index)))
	job.SeedTransform = *carry
	job.SearchRadius = d.cfg.SearchRadius
	job.Fraction = d.cfg.Fraction

	d.logger.Info("defacing", "input", src, "chained", item.Chained)
	if err := d.stage.Run(ctx, job); err != nil {
		return fail(err)
	}
	*carry = job.Transform

	maskPath, err := d.placeMask(ctx, src, job.Mask)
	if err != nil {
		return fail(err)
	}
	item.Mask = maskPath

	if d.cfg.Apply || d.cfg.ApplyOnly {
		if err := d.applyMask(ctx, src, maskPath, job, &item); err != nil {
			return fail(err)
		}
	}

	if annexed {
		if err := d.archive(ctx, src, &item); err != nil {
			return fail(err)
		}
		item.Annexed = true
	}

	item.Status = model.StatusDefaced
	item.FinishedAt = time.Now()
	return item, nil
}

// placeMask copies the produced mask to its destination, removing any
// stale variant first so a prior run (or an archive checkout) can never
// masquerade as this run's output.
func (d *Driver) placeMask(ctx context.Context, src, mask string) (string, error) {
	maskBase := OutputBase(src, d.cfg.OutDir) + MaskSuffix
	if err := fsl.RemoveImageVariants(maskBase); err != nil {
		return "", err
	}
	return d.tk.CopyImage(ctx, mask, maskBase)
}

// applyMask produces the defaced image and places it per the suffix
// policy: in-place overwrite for apply (optionally preserving the
// original under "_orig"), a "_defaced" sibling for apply-only.
func (d *Driver) applyMask(ctx context.Context, src, maskPath string, job *deface.Job, item *model.ItemResult) error {
	applySrc := src
	if d.cfg.Apply && d.cfg.KeepOrig {
		origPath := OrigPath(src)
		if err := os.Rename(src, origPath); err != nil {
			return fmt.Errorf("failed to preserve original: %w", err)
		}
		item.Original = origPath
		applySrc = origPath
	}

	// The defaced image lands in the workspace first and is verified
	// there, so the original is only ever removed in favor of a known
	// good replacement.
	defacedTmp := job.Base + DefacedSuffix
	if err := d.tk.ApplyMask(ctx, applySrc, maskPath, defacedTmp); err != nil {
		return err
	}
	resolvedTmp, err := fsl.Resolve(defacedTmp)
	if err != nil {
		return fmt.Errorf("masking produced no image: %w", err)
	}
	valid, err := d.tk.ImageValid(ctx, resolvedTmp)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("masking produced an invalid image at %s", resolvedTmp)
	}

	destBase := OutputBase(src, d.cfg.OutDir) + DefacedSuffix
	if d.cfg.Apply {
		destBase = fsl.StripImageExt(src)
	}
	if err := fsl.RemoveImageVariants(destBase); err != nil {
		return err
	}
	placed, err := d.tk.CopyImage(ctx, resolvedTmp, destBase)
	if err != nil {
		return err
	}
	item.Defaced = placed
	return nil
}

// archive tags the face-bearing original and registers every produced
// or renamed artifact with the annex.
func (d *Driver) archive(ctx context.Context, src string, item *model.ItemResult) error {
	// The restriction marker belongs on the file still carrying
	// identifiable anatomy: the preserved original when one exists,
	// otherwise the input path itself.
	origFile := src
	if item.Original != "" {
		origFile = item.Original
	}
	if err := d.archiver.Restrict(ctx, origFile); err != nil {
		return err
	}

	seen := map[string]bool{}
	bases := []string{}
	for _, path := range []string{origFile, item.Defaced, item.Mask} {
		if path == "" {
			continue
		}
		base := fsl.StripImageExt(path)
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}
	for _, base := range bases {
		if err := d.archiver.AddMatching(ctx, base); err != nil {
			return err
		}
	}
	return nil
}
