package mesh

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrFaceIndexOutOfRange is returned when a face references a vertex
	// index outside [0, V).
	ErrFaceIndexOutOfRange = errors.New("face references out-of-range vertex")

	// ErrLabelCountMismatch is returned when the label field length differs
	// from the vertex count.
	ErrLabelCountMismatch = errors.New("label count does not match vertex count")
)

// ValidationError describes a structural defect in a mesh or label field.
// It unwraps to one of the Err* sentinels above.
type ValidationError struct {
	Err    error
	Face   int // offending face index, -1 if not applicable
	Vertex int // offending vertex index or label count
	Limit  int // vertex count the index was checked against
}

func (e *ValidationError) Error() string {
	if e.Face >= 0 {
		return fmt.Sprintf("invalid mesh: face %d: %v: index %d, vertex count %d", e.Face, e.Err, e.Vertex, e.Limit)
	}
	return fmt.Sprintf("invalid mesh: %v: got %d labels, vertex count %d", e.Err, e.Vertex, e.Limit)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks that every face index lies in [0, V) and that labels has
// exactly one entry per vertex. A nil or empty label field is accepted only
// for a mesh with no vertices. Faces repeating an index are tolerated.
func Validate(m *Mesh, labels LabelField) error {
	nv := m.NumVertices()
	if len(labels) != nv {
		return &ValidationError{Err: ErrLabelCountMismatch, Face: -1, Vertex: len(labels), Limit: nv}
	}
	if m == nil {
		return nil
	}
	for fi, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= nv {
				return &ValidationError{Err: ErrFaceIndexOutOfRange, Face: fi, Vertex: v, Limit: nv}
			}
		}
	}
	return nil
}

// Fingerprint returns a stable signature of the mesh geometry, topology and
// labels: the first 16 bytes of a SHA-256 digest, hex encoded.
func Fingerprint(m *Mesh, labels LabelField) string {
	h := sha256.New()
	var buf [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	putU64(uint64(m.NumVertices()))
	putU64(uint64(m.NumFaces()))
	putU64(uint64(len(labels)))
	if m != nil {
		for _, v := range m.Vertices {
			putU64(math.Float64bits(v.X))
			putU64(math.Float64bits(v.Y))
			putU64(math.Float64bits(v.Z))
		}
		for _, f := range m.Faces {
			putU64(uint64(int64(f[0])))
			putU64(uint64(int64(f[1])))
			putU64(uint64(int64(f[2])))
		}
	}
	for _, l := range labels {
		putU64(uint64(int64(l)))
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
