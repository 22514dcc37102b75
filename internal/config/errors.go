package config

import "errors"

// Configuration validation errors.
//
// Design decision: package-level sentinel errors rather than error
// values created inside Validate. Callers can use errors.Is for
// programmatic handling while the messages stay human-readable.
var (
	// ErrNoInput is returned when no input image paths are given.
	ErrNoInput = errors.New("no input images: provide one or more image paths as arguments")

	// ErrConflictingApplyModes is returned when both --apply and
	// --apply-only are specified. Only one apply mode can be active.
	ErrConflictingApplyModes = errors.New("conflicting apply modes: --apply and --apply-only cannot be used together")

	// ErrKeepOrigWithoutApply is returned when --keep-orig is given
	// without --apply. There is no overwrite to preserve against.
	ErrKeepOrigWithoutApply = errors.New("--keep-orig requires --apply")

	// ErrInvalidSearchRadius is returned when the rotational search
	// radius is outside (0, 180] degrees.
	ErrInvalidSearchRadius = errors.New("invalid search radius: must be in (0, 180] degrees")

	// ErrInvalidFraction is returned when the brain extraction
	// fraction is outside (0, 1).
	ErrInvalidFraction = errors.New("invalid extraction fraction: must be between 0 and 1 exclusive")

	// ErrConflictingReportFormats is returned when both --json and
	// --report are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --report cannot be used together")

	// ErrOutDirNotFound is returned when --outdir names a directory
	// that does not exist. The tool never creates the output directory
	// implicitly; a typo here would silently scatter outputs.
	ErrOutDirNotFound = errors.New("output directory does not exist")

	// ErrToolkitNotFound is returned when the toolkit installation
	// root cannot be resolved from the environment or a configuration
	// file.
	ErrToolkitNotFound = errors.New("toolkit not found: set " + ToolkitEnv + " or configure fsldir in the configuration file")
)
