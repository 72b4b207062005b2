package mesh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Face names a triangle by three indices into a vertex set.
type Face [3]int

// Mesh is a triangulated surface: an ordered vertex set plus a face set.
// A vertex index is its identity within the mesh.
type Mesh struct {
	Vertices []r3.Vec
	Faces    []Face
}

// NumVertices returns the vertex count. A nil mesh has none.
func (m *Mesh) NumVertices() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices)
}

// NumFaces returns the face count. A nil mesh has none.
func (m *Mesh) NumFaces() int {
	if m == nil {
		return 0
	}
	return len(m.Faces)
}

// Empty reports whether the mesh has no vertices or no faces.
func (m *Mesh) Empty() bool {
	return m.NumVertices() == 0 || m.NumFaces() == 0
}

// Centroid returns the coordinate-wise mean of the three vertices of f.
// The face must already have been validated against m.
func (m *Mesh) Centroid(f Face) r3.Vec {
	sum := r3.Add(r3.Add(m.Vertices[f[0]], m.Vertices[f[1]]), m.Vertices[f[2]])
	return r3.Scale(1.0/3.0, sum)
}

// LabelField holds one categorical label per vertex.
type LabelField []int

// Distinct returns the labels present in the field in ascending order.
func (l LabelField) Distinct() []int {
	seen := make(map[int]struct{}, 8)
	for _, v := range l {
		seen[v] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Key identifies one mesh instance: a subject and a surface layer
// (e.g. "inner", "outer", or the canonical unfolded layer).
type Key struct {
	Subject string `json:"subject" yaml:"subject"`
	Layer   string `json:"layer" yaml:"layer"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Subject, k.Layer)
}

// Surface is everything a key resolves to in the data store.
type Surface struct {
	Key    Key
	Mesh   *Mesh
	Labels LabelField
}
