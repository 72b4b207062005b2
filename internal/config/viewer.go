package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/surface.report/internal/surface/mesh"
)

// DefaultConfigPath is the path to the canonical viewer defaults file.
const DefaultConfigPath = "config/viewer.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ViewerConfig holds the settings of the surface viewer's border overlay.
// Every field is optional; the Get* methods supply defaults for fields the
// file leaves out.
type ViewerConfig struct {
	// Storage
	DBPath *string `json:"db_path,omitempty" yaml:"db_path,omitempty"`

	// Canonical (unfolded) surface shared by every subject
	CanonicalSubject *string `json:"canonical_subject,omitempty" yaml:"canonical_subject,omitempty"`
	CanonicalLayer   *string `json:"canonical_layer,omitempty" yaml:"canonical_layer,omitempty"`

	// Extraction
	ExtractWorkers *int  `json:"extract_workers,omitempty" yaml:"extract_workers,omitempty"`
	PersistBorders *bool `json:"persist_borders,omitempty" yaml:"persist_borders,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }

// EmptyViewerConfig returns a ViewerConfig with all fields set to nil.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// DefaultViewerConfig returns a ViewerConfig with every field populated
// from the Get* defaults.
func DefaultViewerConfig() *ViewerConfig {
	c := EmptyViewerConfig()
	return &ViewerConfig{
		DBPath:           ptrString(c.GetDBPath()),
		CanonicalSubject: ptrString(c.GetCanonicalSubject()),
		CanonicalLayer:   ptrString(c.GetCanonicalLayer()),
		ExtractWorkers:   ptrInt(c.GetExtractWorkers()),
		PersistBorders:   ptrBool(c.GetPersistBorders()),
	}
}

// Load reads a ViewerConfig from a .json, .yaml or .yml file.
// The file must be under 1MB. Unknown keys are rejected.
func Load(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewerConfig()
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ViewerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/surface/<pkg>/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the configuration for invalid values.
func (c *ViewerConfig) Validate() error {
	if c.DBPath != nil && strings.TrimSpace(*c.DBPath) == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.CanonicalSubject != nil && *c.CanonicalSubject == "" {
		return fmt.Errorf("canonical_subject must not be empty")
	}
	if c.CanonicalLayer != nil && *c.CanonicalLayer == "" {
		return fmt.Errorf("canonical_layer must not be empty")
	}
	if c.ExtractWorkers != nil && *c.ExtractWorkers < 1 {
		return fmt.Errorf("extract_workers must be at least 1, got %d", *c.ExtractWorkers)
	}
	return nil
}

// GetDBPath returns the db_path value or the default.
func (c *ViewerConfig) GetDBPath() string {
	if c.DBPath == nil {
		return "surfaces.db"
	}
	return *c.DBPath
}

// GetCanonicalSubject returns the canonical_subject value or the default.
func (c *ViewerConfig) GetCanonicalSubject() string {
	if c.CanonicalSubject == nil {
		return "avg"
	}
	return *c.CanonicalSubject
}

// GetCanonicalLayer returns the canonical_layer value or the default.
func (c *ViewerConfig) GetCanonicalLayer() string {
	if c.CanonicalLayer == nil {
		return "canonical"
	}
	return *c.CanonicalLayer
}

// GetExtractWorkers returns the extract_workers value or the default.
func (c *ViewerConfig) GetExtractWorkers() int {
	if c.ExtractWorkers == nil {
		return 1
	}
	return *c.ExtractWorkers
}

// GetPersistBorders returns the persist_borders value or the default.
func (c *ViewerConfig) GetPersistBorders() bool {
	if c.PersistBorders == nil {
		return true
	}
	return *c.PersistBorders
}

// CanonicalKey is the key the unfolded view resolves to.
func (c *ViewerConfig) CanonicalKey() mesh.Key {
	return mesh.Key{Subject: c.GetCanonicalSubject(), Layer: c.GetCanonicalLayer()}
}
