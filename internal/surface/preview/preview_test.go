package preview

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/surface.report/internal/surface/borders"
	"github.com/banshee-data/surface.report/internal/surface/mesh"
	"github.com/banshee-data/surface.report/internal/testutil"
)

var key = mesh.Key{Subject: "sub-01", Layer: "inner"}

func gridBorders(t *testing.T) []borders.Collection {
	t.Helper()
	m := testutil.Grid(6, 4)
	cs, err := borders.Extract(context.Background(), m, testutil.SplitLabels(m, 3, 1, 2))
	require.NoError(t, err)
	return cs
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, key, gridBorders(t)))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "label 1")
	assert.Contains(t, out, "label 2")
	assert.Contains(t, out, "sub-01/inner")
}

func TestWritePNG(t *testing.T) {
	t.Parallel()

	pngMagic := []byte("\x89PNG\r\n\x1a\n")
	for _, plane := range []Plane{PlaneXY, PlaneXZ, PlaneYZ} {
		var buf bytes.Buffer
		require.NoError(t, WritePNG(&buf, key, gridBorders(t), plane))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "plane %d", plane)
	}
}

func TestWritePNG_EmptyCollections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cs := []borders.Collection{{Label: 3, Points: []r3.Vec{}}}
	require.NoError(t, WritePNG(&buf, key, cs, PlaneXY))
	assert.NotZero(t, buf.Len())
}

func TestParsePlane(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Plane
	}{
		{"", PlaneXY},
		{"xy", PlaneXY},
		{"xz", PlaneXZ},
		{"yz", PlaneYZ},
	}
	for _, tc := range tests {
		got, err := ParsePlane(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParsePlane("zz")
	assert.Error(t, err)
}

func TestPlaneProject(t *testing.T) {
	t.Parallel()

	v := r3.Vec{X: 1, Y: 2, Z: 3}
	x, y := PlaneYZ.project(v)
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 3.0, y)

	a, b := PlaneXZ.axes()
	assert.Equal(t, "X", a)
	assert.Equal(t, "Z", b)
}
