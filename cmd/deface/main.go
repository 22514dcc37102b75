// Package main provides the entry point for the deface CLI.
//
// deface removes facial features from MRI brain volumes by aligning a
// whole-head template to each image and projecting a face-covering
// mask into the image's native space. It drives the external FSL
// toolkit for all image processing.
//
// Usage:
//
//	deface scan1.nii.gz scan2.nii.gz
//	deface --apply --keep-orig scan.nii.gz
//
// See --help for all available options.
package main

// main is the entry point for deface.
func main() {
	Execute()
}
