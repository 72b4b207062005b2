package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func twoTriangleMesh() *Mesh {
	return &Mesh{
		Vertices: []r3.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		Faces:    []Face{{0, 1, 2}, {1, 2, 3}},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate(twoTriangleMesh(), LabelField{1, 1, 2, 2}))
	})

	t.Run("empty mesh", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Validate(&Mesh{}, nil))
		assert.NoError(t, Validate(nil, nil))
	})

	t.Run("face index equals vertex count", func(t *testing.T) {
		t.Parallel()
		m := twoTriangleMesh()
		m.Faces = append(m.Faces, Face{1, 2, 4})
		err := Validate(m, LabelField{1, 1, 2, 2})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFaceIndexOutOfRange))

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, 2, verr.Face)
		assert.Equal(t, 4, verr.Vertex)
		assert.Equal(t, 4, verr.Limit)
		assert.Contains(t, err.Error(), "face 2")
	})

	t.Run("label count mismatch", func(t *testing.T) {
		t.Parallel()
		err := Validate(twoTriangleMesh(), LabelField{1, 1, 2})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLabelCountMismatch))
		assert.False(t, errors.Is(err, ErrFaceIndexOutOfRange))
	})

	t.Run("faces without vertices", func(t *testing.T) {
		t.Parallel()
		err := Validate(&Mesh{Faces: []Face{{0, 1, 2}}}, nil)
		assert.True(t, errors.Is(err, ErrFaceIndexOutOfRange))
	})
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	labels := LabelField{1, 1, 2, 2}
	a := Fingerprint(twoTriangleMesh(), labels)
	b := Fingerprint(twoTriangleMesh(), LabelField{1, 1, 2, 2})
	assert.Len(t, a, 32)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Fingerprint(twoTriangleMesh(), LabelField{1, 2, 2, 2}))

	moved := twoTriangleMesh()
	moved.Vertices[3].Z = 0.5
	assert.NotEqual(t, a, Fingerprint(moved, labels))

	assert.NotEmpty(t, Fingerprint(nil, nil))
}

func TestLabelFieldDistinct(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int{-1, 2, 5}, LabelField{5, 2, 2, -1, 5}.Distinct())
	assert.Empty(t, LabelField(nil).Distinct())
}

func TestMeshCentroid(t *testing.T) {
	t.Parallel()
	m := twoTriangleMesh()
	c := m.Centroid(m.Faces[1])
	assert.InDelta(t, 2.0/3.0, c.X, 1e-12)
	assert.InDelta(t, 2.0/3.0, c.Y, 1e-12)
	assert.Zero(t, c.Z)
	assert.Equal(t, "sub-01/inner", Key{Subject: "sub-01", Layer: "inner"}.String())
}
