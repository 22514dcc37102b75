package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These defaults mirror the parameters the defacing pipeline was tuned
// with; changing them changes which voxels end up under the mask.
const (
	// DefaultSearchRadius is the rotational search range (in degrees)
	// used when registering the head template to an image. The search
	// covers ±DefaultSearchRadius on all three rotational axes. 90
	// degrees tolerates badly oriented acquisitions without letting
	// the optimizer wander into upside-down solutions.
	DefaultSearchRadius = 90.0

	// DefaultFraction is the fractional intensity threshold passed to
	// brain extraction. 0.5 is the extraction tool's own default and
	// works for the large majority of T1-weighted images.
	DefaultFraction = 0.5

	// AppName is the application name used for XDG directory paths.
	AppName = "deface"

	// ToolkitEnv is the environment variable that points at the
	// external toolkit's installation root. It is required unless a
	// configuration file supplies the location instead.
	ToolkitEnv = "FSLDIR"

	// DataDirEnv optionally overrides the directory holding the fixed
	// template, face mask, and alignment weighting images.
	DataDirEnv = "DEFACE_DATA"
)

// Config holds all options for a single deface run.
// This struct is designed to be populated once from CLI flags and the
// environment, then treated as read-only by everything downstream.
//
// Design decision: a single flat struct instead of nested sub-structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// Inputs is the ordered batch of image paths to deface.
	// Must contain at least one path; order matters when transform
	// chaining is enabled.
	Inputs []string

	// Apply overwrites each original image with its defaced version.
	// Mutually exclusive with ApplyOnly.
	Apply bool

	// ApplyOnly produces a separate "_defaced" sibling for each input
	// and never touches the original. Mutually exclusive with Apply.
	ApplyOnly bool

	// KeepOrig preserves the original under an "_orig" suffix before
	// Apply overwrites it. Only meaningful together with Apply.
	KeepOrig bool

	// Annex enables git-annex integration: produced files are
	// registered with the annex and the original is tagged with a
	// non-redistribution marker.
	Annex bool

	// ChainTransforms seeds each image's template registration with
	// the transform estimated for the previous image in the batch.
	// Disabled by default so that every image is processed
	// independently of batch order and composition.
	ChainTransforms bool

	// OutDir, when set, receives all outputs instead of placing them
	// beside each input. The directory must already exist.
	OutDir string

	// SearchRadius is the rotational search range in degrees for
	// template registration, applied to all three axes as ±radius.
	SearchRadius float64

	// Fraction is the fractional intensity threshold for brain
	// extraction. Must be strictly between 0 and 1.
	Fraction float64

	// Verbose enables debug-level log output.
	Verbose bool

	// NoColor disables colorized diagnostics. Presentation only.
	NoColor bool

	// ReportFile, when set, receives a Markdown summary of the batch.
	ReportFile string

	// JSONReport emits the batch summary as JSON on stdout instead of
	// the human-readable form.
	JSONReport bool

	// ConfigFilePath is an explicit configuration file path. When
	// empty, the standard search order is used (see FindConfigFile).
	ConfigFilePath string

	// FSLDir is the resolved toolkit installation root. Populated by
	// ResolveToolkitDir; everything downstream treats it as given.
	FSLDir string

	// DataDir optionally overrides the directory holding the template
	// data files. When empty, the toolkit's standard data directory
	// is searched.
	DataDir string

	// HistoryDir is the directory for the run-ledger database.
	// Defaults to the XDG data directory for the application.
	HistoryDir string

	// SaveHistory records each processed item in the run ledger.
	SaveHistory bool
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor instead of relying on zero values,
// because several defaults are non-zero (search radius, fraction) and
// the constructor doubles as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		SearchRadius: DefaultSearchRadius,
		Fraction:     DefaultFraction,
		HistoryDir:   XDGDataDir(),
		SaveHistory:  true,
	}
}

// XDGDataDir returns the XDG data directory for deface.
// On Linux: ~/.local/share/deface.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for deface.
// On Linux: ~/.config/deface.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks that the configuration is internally consistent.
// It returns the first problem found as a sentinel error so callers
// can match with errors.Is while users still get a readable message.
// Called once after CLI parsing, before any processing begins.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	// Overwriting in place and writing a sibling copy are two answers
	// to the same question.
	if c.Apply && c.ApplyOnly {
		return ErrConflictingApplyModes
	}

	// KeepOrig describes what to do with the file Apply overwrites;
	// without Apply there is nothing to preserve.
	if c.KeepOrig && !c.Apply {
		return ErrKeepOrigWithoutApply
	}

	if c.SearchRadius <= 0 || c.SearchRadius > 180 {
		return ErrInvalidSearchRadius
	}

	if c.Fraction <= 0 || c.Fraction >= 1 {
		return ErrInvalidFraction
	}

	if c.JSONReport && c.ReportFile != "" {
		return ErrConflictingReportFormats
	}

	if c.OutDir != "" {
		info, err := os.Stat(c.OutDir)
		if err != nil || !info.IsDir() {
			return ErrOutDirNotFound
		}
	}

	return nil
}
