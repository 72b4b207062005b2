// Package bundle decodes pre-parsed surface files for import into the
// surface store.
//
// A bundle is a single JSON or YAML document holding one surface:
//
//	subject: sub-01
//	layer: inner
//	vertices: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
//	faces: [[0, 1, 2]]
//	labels: [1, 1, 2]
//
// Converting imaging formats (GIFTI and friends) into bundles happens
// upstream; this package only decodes and validates.
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/surface.report/internal/surface/mesh"
)

// MaxFileSize caps how large a bundle file may be.
const MaxFileSize = 512 * 1024 * 1024

// Format names a bundle encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("bundle file must have .json, .yaml or .yml extension, got %q", ext)
	}
}

// Bundle is the on-disk shape of one surface.
type Bundle struct {
	Subject  string       `json:"subject" yaml:"subject"`
	Layer    string       `json:"layer" yaml:"layer"`
	Vertices [][3]float64 `json:"vertices" yaml:"vertices"`
	Faces    [][3]int     `json:"faces" yaml:"faces"`
	Labels   []int        `json:"labels" yaml:"labels"`
}

// Surface converts the bundle into a validated surface.
func (b *Bundle) Surface() (*mesh.Surface, error) {
	if b.Subject == "" || b.Layer == "" {
		return nil, fmt.Errorf("bundle must name both subject and layer")
	}

	m := &mesh.Mesh{
		Vertices: make([]r3.Vec, len(b.Vertices)),
		Faces:    make([]mesh.Face, len(b.Faces)),
	}
	for i, v := range b.Vertices {
		m.Vertices[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	for i, f := range b.Faces {
		m.Faces[i] = mesh.Face(f)
	}
	labels := mesh.LabelField(b.Labels)

	if err := mesh.Validate(m, labels); err != nil {
		return nil, err
	}
	return &mesh.Surface{
		Key:    mesh.Key{Subject: b.Subject, Layer: b.Layer},
		Mesh:   m,
		Labels: labels,
	}, nil
}

// FromSurface converts a surface into its bundle form.
func FromSurface(sf *mesh.Surface) *Bundle {
	b := &Bundle{
		Subject: sf.Key.Subject,
		Layer:   sf.Key.Layer,
		Labels:  []int(sf.Labels),
	}
	if sf.Mesh != nil {
		b.Vertices = make([][3]float64, len(sf.Mesh.Vertices))
		for i, v := range sf.Mesh.Vertices {
			b.Vertices[i] = [3]float64{v.X, v.Y, v.Z}
		}
		b.Faces = make([][3]int, len(sf.Mesh.Faces))
		for i, f := range sf.Mesh.Faces {
			b.Faces[i] = [3]int(f)
		}
	}
	return b
}

// Decode reads one bundle from r and converts it into a surface.
func Decode(r io.Reader, format Format) (*mesh.Surface, error) {
	var b Bundle
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to parse bundle JSON: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to parse bundle YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown bundle format %q", format)
	}

	sf, err := b.Surface()
	if err != nil {
		return nil, fmt.Errorf("invalid bundle: %w", err)
	}
	return sf, nil
}

// Encode writes sf to w in the given format.
func Encode(w io.Writer, sf *mesh.Surface, format Format) error {
	b := FromSurface(sf)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		return enc.Encode(b)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown bundle format %q", format)
	}
}

// Load reads and validates the bundle file at path.
func Load(path string) (*mesh.Surface, error) {
	cleanPath := filepath.Clean(path)
	format, err := FormatFromPath(cleanPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat bundle file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("bundle file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle file: %w", err)
	}
	return Decode(bytes.NewReader(data), format)
}
