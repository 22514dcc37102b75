// Package fsl wraps the external FSL toolkit binaries that perform the
// actual image processing: reorientation, brain extraction, linear
// registration, resampling, and image arithmetic.
//
// Nothing in this package implements an imaging algorithm. It builds
// command lines, runs them through an injected Runner, and verifies
// that the expected outputs exist. Several FSL tools can fail without
// a non-zero exit status, so output validity is always checked
// explicitly rather than trusted.
//
// The package also owns the image path policy: FSL images live under a
// handful of interchangeable extensions (.nii.gz, .nii, ANALYZE pairs),
// and most tools accept or produce a bare basename. SplitImageExt,
// Resolve, and RemoveImageVariants keep that policy in one tested
// place.
package fsl
