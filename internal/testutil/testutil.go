// Package testutil provides shared test utilities and surface fixtures.
//
// This package centralises small meshes with known boundaries so the
// extractor, cache and storage tests all reason about the same geometry.
package testutil

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/surface.report/internal/surface/mesh"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// TwoTriangles returns vertices A,B,C,D with faces [A,B,C] and [B,C,D]
// sharing edge BC, labelled A=1, B=1, C=2, D=2.
func TwoTriangles() (*mesh.Mesh, mesh.LabelField) {
	m := &mesh.Mesh{
		Vertices: []r3.Vec{
			{X: 0, Y: 0, Z: 0},
			{X: 3, Y: 0, Z: 0},
			{X: 0, Y: 3, Z: 0},
			{X: 3, Y: 3, Z: 3},
		},
		Faces: []mesh.Face{{0, 1, 2}, {1, 2, 3}},
	}
	return m, mesh.LabelField{1, 1, 2, 2}
}

// Grid returns a planar (cols x rows) cell grid in the z=0 plane, two
// triangles per cell. Vertex (i, j) has index j*(cols+1)+i and position
// (i, j, 0).
func Grid(cols, rows int) *mesh.Mesh {
	m := &mesh.Mesh{
		Vertices: make([]r3.Vec, 0, (cols+1)*(rows+1)),
		Faces:    make([]mesh.Face, 0, 2*cols*rows),
	}
	for j := 0; j <= rows; j++ {
		for i := 0; i <= cols; i++ {
			m.Vertices = append(m.Vertices, r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	idx := func(i, j int) int { return j*(cols+1) + i }
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			a, b, c, d := idx(i, j), idx(i+1, j), idx(i, j+1), idx(i+1, j+1)
			m.Faces = append(m.Faces, mesh.Face{a, b, c}, mesh.Face{b, d, c})
		}
	}
	return m
}

// SplitLabels labels every vertex of m with x < splitX as left and every
// other vertex as right.
func SplitLabels(m *mesh.Mesh, splitX float64, left, right int) mesh.LabelField {
	labels := make(mesh.LabelField, len(m.Vertices))
	for i, v := range m.Vertices {
		if v.X < splitX {
			labels[i] = left
		} else {
			labels[i] = right
		}
	}
	return labels
}

// Surface wraps a mesh and labels under key.
func Surface(key mesh.Key, m *mesh.Mesh, labels mesh.LabelField) *mesh.Surface {
	return &mesh.Surface{Key: key, Mesh: m, Labels: labels}
}
