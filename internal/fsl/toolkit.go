package fsl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// OutputType is the image format the toolkit is told to produce for
// every derived image. Compressed NIfTI keeps the workspace small and
// is what downstream archives expect.
const OutputType = "NIFTI_GZ"

// Toolkit invokes FSL binaries from a single installation root.
// Construct it once at startup with the resolved root and pass it down;
// nothing else in the program consults the toolkit environment.
type Toolkit struct {
	dir    string
	runner Runner
	logger *slog.Logger
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithRunner replaces the command runner. Tests use this to substitute
// a fake that records invocations instead of executing binaries.
func WithRunner(r Runner) Option {
	return func(t *Toolkit) {
		t.runner = r
	}
}

// WithLogger sets the logger used for per-invocation debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Toolkit) {
		t.logger = logger
	}
}

// New creates a Toolkit rooted at dir (the FSL installation root).
func New(dir string, opts ...Option) *Toolkit {
	t := &Toolkit{dir: dir}
	for _, opt := range opts {
		opt(t)
	}
	if t.runner == nil {
		t.runner = &ExecRunner{Env: map[string]string{
			"FSLDIR":        dir,
			"FSLOUTPUTTYPE": OutputType,
		}}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Dir returns the toolkit installation root.
func (t *Toolkit) Dir() string {
	return t.dir
}

// bin returns the absolute path of a toolkit binary.
func (t *Toolkit) bin(tool string) string {
	return filepath.Join(t.dir, "bin", tool)
}

// run executes a toolkit binary with debug logging.
func (t *Toolkit) run(ctx context.Context, tool string, args ...string) (string, error) {
	t.logger.Debug("invoking toolkit", "tool", tool, "args", args)
	return t.runner.Run(ctx, "", t.bin(tool), args...)
}

// Reorient rewrites src into standard anatomical orientation at dst.
func (t *Toolkit) Reorient(ctx context.Context, src, dst string) error {
	_, err := t.run(ctx, "fslreorient2std", src, dst)
	return err
}

// ReorientMatrix computes the transform that Reorient would apply to
// src and writes it to matOut. The tool prints the matrix on stdout
// when invoked without an output image.
func (t *Toolkit) ReorientMatrix(ctx context.Context, src, matOut string) error {
	out, err := t.run(ctx, "fslreorient2std", src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(matOut, []byte(out+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write reorientation matrix: %w", err)
	}
	return nil
}

// InvertTransform writes the inverse of the transform in mat to out.
func (t *Toolkit) InvertTransform(ctx context.Context, mat, out string) error {
	_, err := t.run(ctx, "convert_xfm", "-omat", out, "-inverse", mat)
	return err
}

// ExtractFirstVolume writes the first time-point of a 4D image to dst.
func (t *Toolkit) ExtractFirstVolume(ctx context.Context, src, dst string) error {
	_, err := t.run(ctx, "fslroi", src, dst, "0", "1")
	return err
}

// BrainExtract isolates brain tissue from src into dst using the given
// fractional intensity threshold. Callers must verify the output: bet
// is known to exit zero while producing nothing on images it cannot
// handle.
func (t *Toolkit) BrainExtract(ctx context.Context, src, dst string, fraction float64) error {
	_, err := t.run(ctx, "bet", src, dst, "-f", strconv.FormatFloat(fraction, 'g', -1, 64))
	return err
}

// SubsampleHalf halves the resolution of src into dst.
func (t *Toolkit) SubsampleHalf(ctx context.Context, src, dst string) error {
	_, err := t.run(ctx, "fslmaths", src, "-subsamp2", dst)
	return err
}

// RegisterParams describes a template-to-image registration.
type RegisterParams struct {
	// Src is the moving image (the head template).
	Src string
	// Ref is the fixed image the template is registered onto.
	Ref string
	// OutMat receives the estimated transform.
	OutMat string
	// SeedMat optionally initializes the search. Empty means an
	// unseeded search.
	SeedMat string
	// Weights optionally weights the cost function over Src.
	Weights string
	// SearchRadius bounds the rotational search on all three axes, in
	// degrees (±SearchRadius).
	SearchRadius float64
}

// Register estimates the transform mapping params.Src onto params.Ref
// with a 12 degree-of-freedom correlation-ratio search over 256-bin
// histograms.
func (t *Toolkit) Register(ctx context.Context, params RegisterParams) error {
	radius := strconv.FormatFloat(params.SearchRadius, 'g', -1, 64)
	args := []string{
		"-in", params.Src,
		"-ref", params.Ref,
		"-omat", params.OutMat,
		"-bins", "256",
		"-cost", "corratio",
		"-searchrx", "-" + radius, radius,
		"-searchry", "-" + radius, radius,
		"-searchrz", "-" + radius, radius,
		"-dof", "12",
	}
	if params.SeedMat != "" {
		args = append(args, "-init", params.SeedMat)
	}
	if params.Weights != "" {
		args = append(args, "-inweight", params.Weights)
	}
	if _, err := t.run(ctx, "flirt", args...); err != nil {
		return err
	}
	if _, err := os.Stat(params.OutMat); err != nil {
		return fmt.Errorf("registration produced no transform at %s: %w", params.OutMat, err)
	}
	return nil
}

// Project resamples src onto the grid of ref through the transform in
// mat using trilinear interpolation.
func (t *Toolkit) Project(ctx context.Context, src, ref, mat, dst string) error {
	_, err := t.run(ctx, "flirt",
		"-in", src,
		"-ref", ref,
		"-applyxfm",
		"-init", mat,
		"-interp", "trilinear",
		"-out", dst,
	)
	return err
}

// ThresholdBinarize thresholds src at 0.5, binarizes it, and stores the
// result at dst with one byte per voxel.
func (t *Toolkit) ThresholdBinarize(ctx context.Context, src, dst string) error {
	_, err := t.run(ctx, "fslmaths", src, "-thr", "0.5", "-bin", dst, "-odt", "char")
	return err
}

// ApplyMask multiplies src by mask into dst, zeroing every voxel the
// mask excludes.
func (t *Toolkit) ApplyMask(ctx context.Context, src, mask, dst string) error {
	_, err := t.run(ctx, "fslmaths", src, "-mul", mask, dst)
	return err
}

// ImageValid reports whether path names a readable image in any of the
// toolkit's formats. Exit status alone is not trustworthy for several
// toolkit programs, so this is the check callers use after producing
// or copying an image.
func (t *Toolkit) ImageValid(ctx context.Context, path string) (bool, error) {
	out, err := t.run(ctx, "imtest", path)
	if err != nil {
		return false, err
	}
	return out == "1", nil
}

// CopyImage copies the image at src to dst (a path or bare basename),
// verifies the result, and returns the resolved destination path.
// The copy tool preserves the source format but reports success
// unconditionally, hence the explicit validity check.
func (t *Toolkit) CopyImage(ctx context.Context, src, dst string) (string, error) {
	if _, err := t.run(ctx, "imcp", src, dst); err != nil {
		return "", err
	}
	resolved, err := Resolve(dst)
	if err != nil {
		return "", fmt.Errorf("copy of %s produced no image at %s: %w", src, dst, err)
	}
	valid, err := t.ImageValid(ctx, resolved)
	if err != nil {
		return "", err
	}
	if !valid {
		return "", fmt.Errorf("copy of %s produced an invalid image at %s", src, resolved)
	}
	return resolved, nil
}
