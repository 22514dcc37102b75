package fsl

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// imageExts lists the image extensions the toolkit reads and writes,
// ordered so that compound extensions are matched before their
// suffixes (".nii.gz" before ".nii", ".hdr.gz" before ".gz").
var imageExts = []string{
	".nii.gz",
	".hdr.gz",
	".img.gz",
	".nii",
	".hdr",
	".img",
}

// ErrImageNotFound is returned by Resolve when no extension variant of
// the requested image exists on disk.
var ErrImageNotFound = errors.New("image not found")

// SplitImageExt splits an image path into its base and its image
// extension. Paths without a recognized image extension return the
// whole path as base and an empty extension.
func SplitImageExt(path string) (base, ext string) {
	for _, e := range imageExts {
		if strings.HasSuffix(path, e) {
			return strings.TrimSuffix(path, e), e
		}
	}
	return path, ""
}

// StripImageExt returns the path without its image extension.
func StripImageExt(path string) string {
	base, _ := SplitImageExt(path)
	return base
}

// Resolve locates the on-disk file for an image referred to by path,
// which may or may not carry an extension. When path has an extension
// and exists, it is returned as is; otherwise each extension variant of
// the base is probed in precedence order. Returns ErrImageNotFound
// when nothing matches.
func Resolve(path string) (string, error) {
	base, ext := SplitImageExt(path)
	if ext != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	for _, e := range imageExts {
		candidate := base + e
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrImageNotFound, path)
}

// ImageExists reports whether any extension variant of path exists.
func ImageExists(path string) bool {
	_, err := Resolve(path)
	return err == nil
}

// RemoveImageVariants deletes every extension variant of the image
// named by path (with or without extension). Missing variants are not
// an error: the point is the postcondition that nothing is left, so a
// later write cannot be confused with a stale file from an earlier run.
func RemoveImageVariants(path string) error {
	base := StripImageExt(path)
	for _, e := range imageExts {
		if err := os.Remove(base + e); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", base+e, err)
		}
	}
	return nil
}
