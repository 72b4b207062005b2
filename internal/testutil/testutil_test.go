package testutil

import (
	"errors"
	"testing"

	"github.com/banshee-data/surface.report/internal/surface/mesh"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("boom"))
}

func TestTwoTrianglesIsValid(t *testing.T) {
	t.Parallel()
	m, labels := TwoTriangles()
	AssertNoError(t, mesh.Validate(m, labels))
}

func TestGrid(t *testing.T) {
	t.Parallel()

	m := Grid(4, 3)
	if got, want := m.NumVertices(), 5*4; got != want {
		t.Fatalf("vertices = %d, want %d", got, want)
	}
	if got, want := m.NumFaces(), 2*4*3; got != want {
		t.Fatalf("faces = %d, want %d", got, want)
	}
	AssertNoError(t, mesh.Validate(m, SplitLabels(m, 2, 1, 2)))
}

func TestSplitLabels(t *testing.T) {
	t.Parallel()

	m := Grid(2, 1)
	labels := SplitLabels(m, 1, 7, 9)
	want := mesh.LabelField{7, 9, 9, 7, 9, 9}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}
}
