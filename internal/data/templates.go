package data

import (
	"fmt"
	"path/filepath"

	"github.com/reproneuro/deface/internal/fsl"
)

// Fixed data file basenames. All three must live in the same directory.
const (
	// HeadTemplateName is the whole-head template registered onto each
	// input image.
	HeadTemplateName = "head_tmpl"

	// FaceMaskName is the obscuring mask covering face, ears, and
	// teeth, defined in the template's coordinate space.
	FaceMaskName = "facemask_tmpl"

	// AlignWeightsName weights the registration cost function so the
	// search is driven by head anatomy rather than background.
	AlignWeightsName = "head_tmpl_inweight"
)

// Set holds the resolved paths of the three fixed data files.
type Set struct {
	// HeadTemplate is the path of the whole-head template image.
	HeadTemplate string

	// FaceMask is the path of the obscuring mask image.
	FaceMask string

	// AlignWeights is the path of the registration weighting image.
	AlignWeights string
}

// Locate finds the fixed data files. The search order is:
//  1. dataDir, when non-empty (explicit override)
//  2. <toolkitDir>/data/deface
//  3. <toolkitDir>/data/standard
//
// All three files must be present in the same directory; a partial set
// would silently deface with mismatched geometry, so it is rejected.
func Locate(dataDir, toolkitDir string) (Set, error) {
	candidates := []string{}
	if dataDir != "" {
		candidates = append(candidates, dataDir)
	}
	candidates = append(candidates,
		filepath.Join(toolkitDir, "data", "deface"),
		filepath.Join(toolkitDir, "data", "standard"),
	)

	for _, dir := range candidates {
		set, ok := fromDir(dir)
		if ok {
			return set, nil
		}
	}
	return Set{}, fmt.Errorf("template data files (%s, %s, %s) not found in any of %v",
		HeadTemplateName, FaceMaskName, AlignWeightsName, candidates)
}

// fromDir resolves the full set under dir, reporting whether all three
// files exist there.
func fromDir(dir string) (Set, bool) {
	head, err := fsl.Resolve(filepath.Join(dir, HeadTemplateName))
	if err != nil {
		return Set{}, false
	}
	mask, err := fsl.Resolve(filepath.Join(dir, FaceMaskName))
	if err != nil {
		return Set{}, false
	}
	weights, err := fsl.Resolve(filepath.Join(dir, AlignWeightsName))
	if err != nil {
		return Set{}, false
	}
	return Set{HeadTemplate: head, FaceMask: mask, AlignWeights: weights}, true
}
