package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the per-user configuration file name.
const DefaultConfigFile = ".deface"

// SystemConfigFile is the system-wide configuration file consulted
// last. It lets an administrator point every user at a shared toolkit
// installation without per-user setup.
const SystemConfigFile = "/etc/deface.yaml"

// ErrConfigNotFound is returned when the configuration file does not
// exist. Callers decide whether that is fatal based on whether the
// path was explicitly specified by the user.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk configuration file format.
type File struct {
	// FSLDir is the toolkit installation root. Used only when the
	// environment variable is unset.
	FSLDir string `yaml:"fsldir"`

	// DataDir overrides the directory holding the template data files.
	DataDir string `yaml:"datadir"`
}

// LoadConfigFile loads a configuration file from path.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in order:
//  1. configPath, when explicitly specified
//  2. .deface in the current directory
//  3. the XDG config directory (config.yaml)
//  4. /etc/deface.yaml
//
// Returns the path of the first file found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}

	if _, err := os.Stat(SystemConfigFile); err == nil {
		return SystemConfigFile
	}

	return ""
}

// ResolveToolkitDir fills in c.FSLDir using the documented fallback
// order: an already-set value (explicit flag), the FSLDIR environment
// variable, then the fsldir key of the configuration file. The
// resolved directory must exist.
//
// This runs exactly once at startup so that the rest of the program
// never consults the ambient environment.
func ResolveToolkitDir(c *Config, file *File) error {
	if c.FSLDir == "" {
		c.FSLDir = os.Getenv(ToolkitEnv)
	}
	if c.FSLDir == "" && file != nil {
		c.FSLDir = file.FSLDir
	}
	if c.FSLDir == "" {
		return ErrToolkitNotFound
	}

	info, err := os.Stat(c.FSLDir)
	if err != nil || !info.IsDir() {
		return ErrToolkitNotFound
	}
	return nil
}
