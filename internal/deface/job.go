package deface

// Job carries the state of one image through the mask pipeline: the
// immutable inputs, the workspace paths each step writes, and the two
// products (mask and transform) the caller consumes.
type Job struct {
	// Source is the input image. Never written.
	Source string

	// Base is the unique per-item basename inside the workspace; every
	// intermediate derives from it.
	Base string

	// SeedTransform optionally initializes the template registration
	// (the carry transform from the previous batch item). Empty means
	// an unseeded search.
	SeedTransform string

	// SearchRadius bounds the rotational registration search, degrees.
	SearchRadius float64

	// Fraction is the brain extraction intensity threshold.
	Fraction float64

	// ReuseTransform skips re-registration and adopts SeedTransform as
	// the produced transform verbatim. The batch driver never sets
	// this; it exists as an explicit, separately exercised mode.
	ReuseTransform bool

	// Workspace intermediates, derived from Base.
	Std             string // source in standard orientation
	StdMat          string // source -> standard transform
	StdInvMat       string // standard -> source transform
	Ref             string // reference volume (first time-point)
	Brain           string // brain-extracted reference
	Small           string // subsampled brain, when produced
	ProjectedStd    string // obscuring mask in standard orientation
	ProjectedNative string // obscuring mask in source orientation

	// AlignTarget is the image the template is registered onto: Small
	// when subsampling ran, Brain otherwise.
	AlignTarget string

	// Subsampled records whether the resolution branch subsampled.
	Subsampled bool

	// Transform is the produced template-to-image matrix, the carry
	// value for the next batch item when chaining.
	Transform string

	// Mask is the resolved path of the produced binary mask.
	Mask string
}

// NewJob creates a Job for source with all workspace paths derived
// from base.
func NewJob(source, base string) *Job {
	return &Job{
		Source:          source,
		Base:            base,
		Std:             base + "_std",
		StdMat:          base + "_std.mat",
		StdInvMat:       base + "_std_inv.mat",
		Ref:             base + "_ref",
		Brain:           base + "_brain",
		Small:           base + "_brain_small",
		ProjectedStd:    base + "_mask_std",
		ProjectedNative: base + "_mask_native",
		Transform:       base + "_tmpl.mat",
	}
}
