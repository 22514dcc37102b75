package deface

import (
	"context"
	"fmt"
	"os"

	"github.com/reproneuro/deface/internal/data"
	"github.com/reproneuro/deface/internal/fsl"
)

// ResolutionThresholdMM is the voxel size above which the alignment
// runs on the brain-extracted volume directly. Below it the volume is
// subsampled by half first: registering a high-resolution image costs
// far more than the alignment accuracy it buys.
const ResolutionThresholdMM = 2.1

// Toolkit is the slice of the external toolkit the stage needs.
// *fsl.Toolkit satisfies it; tests substitute fakes.
type Toolkit interface {
	Reorient(ctx context.Context, src, dst string) error
	ReorientMatrix(ctx context.Context, src, matOut string) error
	InvertTransform(ctx context.Context, mat, out string) error
	ExtractFirstVolume(ctx context.Context, src, dst string) error
	BrainExtract(ctx context.Context, src, dst string, fraction float64) error
	SubsampleHalf(ctx context.Context, src, dst string) error
	Register(ctx context.Context, params fsl.RegisterParams) error
	Project(ctx context.Context, src, ref, mat, dst string) error
	ThresholdBinarize(ctx context.Context, src, dst string) error
	ImageValid(ctx context.Context, path string) (bool, error)
	CopyImage(ctx context.Context, src, dst string) (string, error)
	MaxVoxelSize(path string) (float64, error)
	VolumeCount(path string) (int, error)
}

// requireValid fails when the toolkit left no usable image at path.
func requireValid(ctx context.Context, tk Toolkit, path, what string) error {
	valid, err := tk.ImageValid(ctx, path)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("%s produced no valid image at %s", what, path)
	}
	return nil
}

// reorientStep rewrites the source into standard anatomical orientation
// and captures the reorientation matrix and its inverse.
type reorientStep struct {
	tk Toolkit
}

func (s *reorientStep) Name() string { return "reorient" }

func (s *reorientStep) Do(ctx context.Context, job *Job) error {
	if err := s.tk.ReorientMatrix(ctx, job.Source, job.StdMat); err != nil {
		return err
	}
	if err := s.tk.InvertTransform(ctx, job.StdMat, job.StdInvMat); err != nil {
		return err
	}
	if err := s.tk.Reorient(ctx, job.Source, job.Std); err != nil {
		return err
	}
	return requireValid(ctx, s.tk, job.Std, "reorientation")
}

// referenceStep selects the reference volume: the first time-point of a
// multi-volume image, or the image itself.
//
// Averaging across volumes was considered and rejected; motion between
// time-points blurs the average and the first volume registers just as
// well.
type referenceStep struct {
	tk Toolkit
}

func (s *referenceStep) Name() string { return "reference-volume" }

func (s *referenceStep) Do(ctx context.Context, job *Job) error {
	volumes, err := s.tk.VolumeCount(job.Std)
	if err != nil {
		return err
	}
	if volumes > 1 {
		return s.tk.ExtractFirstVolume(ctx, job.Std, job.Ref)
	}
	_, err = s.tk.CopyImage(ctx, job.Std, job.Ref)
	return err
}

// extractStep runs brain extraction on the reference volume.
type extractStep struct {
	tk Toolkit
}

func (s *extractStep) Name() string { return "brain-extract" }

func (s *extractStep) Do(ctx context.Context, job *Job) error {
	if err := s.tk.BrainExtract(ctx, job.Ref, job.Brain, job.Fraction); err != nil {
		return err
	}
	// bet can exit zero with no output; existence is the real signal.
	return requireValid(ctx, s.tk, job.Brain, "brain extraction")
}

// subsampleStep halves the resolution of the brain-extracted volume
// when the input is finer than ResolutionThresholdMM.
type subsampleStep struct {
	tk Toolkit
}

func (s *subsampleStep) Name() string { return "subsample" }

func (s *subsampleStep) Do(ctx context.Context, job *Job) error {
	voxel, err := s.tk.MaxVoxelSize(job.Brain)
	if err != nil {
		return err
	}
	if voxel > ResolutionThresholdMM {
		job.AlignTarget = job.Brain
		job.Subsampled = false
		return nil
	}
	if err := s.tk.SubsampleHalf(ctx, job.Brain, job.Small); err != nil {
		return err
	}
	job.AlignTarget = job.Small
	job.Subsampled = true
	return nil
}

// registerStep estimates the transform mapping the head template onto
// the align target, seeded by the carry transform when present.
type registerStep struct {
	tk        Toolkit
	templates data.Set
}

func (s *registerStep) Name() string { return "register-template" }

func (s *registerStep) Do(ctx context.Context, job *Job) error {
	if job.ReuseTransform {
		if job.SeedTransform == "" {
			return fmt.Errorf("transform reuse requested but no transform supplied")
		}
		// Adopt the supplied transform verbatim; the link makes the
		// provenance visible in the workspace.
		if err := os.Symlink(job.SeedTransform, job.Transform); err != nil {
			return fmt.Errorf("failed to link supplied transform: %w", err)
		}
		return nil
	}

	return s.tk.Register(ctx, fsl.RegisterParams{
		Src:          s.templates.HeadTemplate,
		Ref:          job.AlignTarget,
		OutMat:       job.Transform,
		SeedMat:      job.SeedTransform,
		Weights:      s.templates.AlignWeights,
		SearchRadius: job.SearchRadius,
	})
}

// projectStep resamples the template's obscuring mask onto the
// standard-orientation image through the estimated transform.
type projectStep struct {
	tk        Toolkit
	templates data.Set
}

func (s *projectStep) Name() string { return "project-mask" }

func (s *projectStep) Do(ctx context.Context, job *Job) error {
	if err := s.tk.Project(ctx, s.templates.FaceMask, job.Std, job.Transform, job.ProjectedStd); err != nil {
		return err
	}
	return requireValid(ctx, s.tk, job.ProjectedStd, "mask projection")
}

// nativeStep carries the projected mask back into the source image's
// original orientation via the inverse reorientation matrix.
type nativeStep struct {
	tk Toolkit
}

func (s *nativeStep) Name() string { return "project-native" }

func (s *nativeStep) Do(ctx context.Context, job *Job) error {
	if err := s.tk.Project(ctx, job.ProjectedStd, job.Source, job.StdInvMat, job.ProjectedNative); err != nil {
		return err
	}
	return requireValid(ctx, s.tk, job.ProjectedNative, "native projection")
}

// binarizeStep thresholds the projected mask at 0.5 into a single
// byte-per-voxel binary mask, the stage's primary product.
type binarizeStep struct {
	tk Toolkit
}

func (s *binarizeStep) Name() string { return "binarize" }

func (s *binarizeStep) Do(ctx context.Context, job *Job) error {
	maskBase := job.Base + "_defacemask"
	if err := s.tk.ThresholdBinarize(ctx, job.ProjectedNative, maskBase); err != nil {
		return err
	}
	resolved, err := fsl.Resolve(maskBase)
	if err != nil {
		return fmt.Errorf("binarization produced no mask: %w", err)
	}
	if err := requireValid(ctx, s.tk, resolved, "binarization"); err != nil {
		return err
	}
	job.Mask = resolved
	return nil
}
