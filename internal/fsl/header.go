package fsl

import (
	"fmt"
	"strings"

	"github.com/henghuang/nifti"
)

// Header reads are served natively from the NIfTI header rather than by
// shelling out to fslval/fslnvols: the values are plain header fields
// and the files have already passed a validity check by the time these
// run.

// loadHeader resolves path to an existing NIfTI file and loads its
// header. ANALYZE pairs are not supported for native reads.
func loadHeader(path string) (*nifti.Nifti1Header, error) {
	resolved, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(resolved, ".nii") && !strings.HasSuffix(resolved, ".nii.gz") {
		return nil, fmt.Errorf("cannot read header of non-NIfTI image %s", resolved)
	}

	var header nifti.Nifti1Header
	header.LoadHeader(resolved)
	return &header, nil
}

// MaxVoxelSize returns the largest of the first three pixel dimensions
// of the image at path, in millimeters. This is the value the pipeline
// compares against the subsampling threshold.
func MaxVoxelSize(path string) (float64, error) {
	header, err := loadHeader(path)
	if err != nil {
		return 0, err
	}

	max := 0.0
	for _, dim := range header.Pixdim[1:4] {
		if float64(dim) > max {
			max = float64(dim)
		}
	}
	if max <= 0 {
		return 0, fmt.Errorf("image %s has no positive voxel dimensions", path)
	}
	return max, nil
}

// MaxVoxelSize is the method form of the package function, so that
// consumers holding a Toolkit see one surface for all image queries.
func (t *Toolkit) MaxVoxelSize(path string) (float64, error) {
	return MaxVoxelSize(path)
}

// VolumeCount returns the number of time-points/volumes in the image at
// path. 3D images report 1.
func VolumeCount(path string) (int, error) {
	header, err := loadHeader(path)
	if err != nil {
		return 0, err
	}

	if header.Dim[0] >= 4 && header.Dim[4] > 1 {
		return int(header.Dim[4]), nil
	}
	return 1, nil
}

// VolumeCount is the method form of the package function.
func (t *Toolkit) VolumeCount(path string) (int, error) {
	return VolumeCount(path)
}
