package workflow

import (
	"path/filepath"

	"github.com/reproneuro/deface/internal/fsl"
)

// Output suffixes appended to an input's extension-stripped basename.
const (
	// MaskSuffix names the binary deface mask.
	MaskSuffix = "_defacemask"

	// DefacedSuffix names the defaced sibling produced by apply-only
	// mode. In-place overwrites carry no suffix.
	DefacedSuffix = "_defaced"

	// OrigSuffix names the preserved original when keep-orig is set.
	OrigSuffix = "_orig"
)

// OutputBase computes the destination basename (without image
// extension) for outputs derived from src: the source's own basename,
// placed beside it or under outDir when one is configured.
func OutputBase(src, outDir string) string {
	base := fsl.StripImageExt(src)
	if outDir == "" {
		return base
	}
	return filepath.Join(outDir, filepath.Base(base))
}

// OrigPath computes the "_orig" destination for preserving src before
// an in-place overwrite. The rename stays beside the source regardless
// of any output directory: it is the same file, not a new output.
func OrigPath(src string) string {
	base, ext := fsl.SplitImageExt(src)
	return base + OrigSuffix + ext
}
