package borders

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/surface.report/internal/surface/mesh"
	"github.com/banshee-data/surface.report/internal/testutil"
)

// pointSetOpts compares point collections as sets with float tolerance.
var pointSetOpts = cmp.Options{
	cmpopts.SortSlices(func(a, b r3.Vec) bool {
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	}),
	cmpopts.EquateApprox(0, 1e-9),
}

func TestExtract_TwoTriangles(t *testing.T) {
	t.Parallel()

	m, labels := testutil.TwoTriangles()
	got, err := Extract(context.Background(), m, labels)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Every vertex has a mixed neighbourhood for both labels, A included
	// (neighbours A,B,C carry 1,1,2), so both faces are boundary faces.
	abc := r3.Vec{X: 1, Y: 1, Z: 0}
	bcd := r3.Vec{X: 2, Y: 2, Z: 1}
	want := []Collection{
		{Label: 1, Points: []r3.Vec{abc, bcd}},
		{Label: 2, Points: []r3.Vec{abc, bcd}},
	}
	if diff := cmp.Diff(want, got, pointSetOpts); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_SingleLabelTriangle(t *testing.T) {
	t.Parallel()

	m := &mesh.Mesh{
		Vertices: []r3.Vec{{X: 0}, {X: 1}, {Y: 1}},
		Faces:    []mesh.Face{{0, 1, 2}},
	}
	got, err := Extract(context.Background(), m, mesh.LabelField{4, 4, 4})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Label)
	assert.Empty(t, got[0].Points)
	assert.NotNil(t, got[0].Points)
}

func TestExtract_OutOfRangeFace(t *testing.T) {
	t.Parallel()

	m, labels := testutil.TwoTriangles()
	m.Faces = append(m.Faces, mesh.Face{0, 2, len(m.Vertices)})

	got, err := Extract(context.Background(), m, labels)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, mesh.ErrFaceIndexOutOfRange))

	var verr *mesh.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 2, verr.Face)
}

func TestExtract_LabelCountMismatch(t *testing.T) {
	t.Parallel()

	m, _ := testutil.TwoTriangles()
	_, err := Extract(context.Background(), m, mesh.LabelField{1, 2})
	assert.True(t, errors.Is(err, mesh.ErrLabelCountMismatch))
}

func TestExtract_EmptyMesh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mesh   *mesh.Mesh
		labels mesh.LabelField
	}{
		{"nil mesh", nil, nil},
		{"no vertices", &mesh.Mesh{}, nil},
		{"vertices without faces", &mesh.Mesh{Vertices: []r3.Vec{{}, {X: 1}}}, mesh.LabelField{1, 2}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Extract(context.Background(), tc.mesh, tc.labels)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestExtract_GridSplit(t *testing.T) {
	t.Parallel()

	m := testutil.Grid(6, 4)
	labels := testutil.SplitLabels(m, 3, 1, 2)

	got, err := Extract(context.Background(), m, labels)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Columns 2 and 3 form the transition zone; the two triangles of
	// each cell between them are boundary faces.
	var want []r3.Vec
	for j := 0; j < 4; j++ {
		y := float64(j)
		want = append(want,
			r3.Vec{X: 7.0 / 3.0, Y: y + 1.0/3.0},
			r3.Vec{X: 8.0 / 3.0, Y: y + 2.0/3.0},
		)
	}
	for _, c := range got {
		if diff := cmp.Diff(want, c.Points, pointSetOpts); diff != "" {
			t.Errorf("label %d mismatch (-want +got):\n%s", c.Label, diff)
		}
	}
	assert.Equal(t, 16, TotalPoints(got))
}

func TestExtract_IsolatedVertexNeverBoundary(t *testing.T) {
	t.Parallel()

	m, _ := testutil.TwoTriangles()
	m.Vertices = append(m.Vertices, r3.Vec{X: 10, Y: 10, Z: 10})
	labels := mesh.LabelField{1, 1, 1, 1, 9}

	e, err := NewExtractor(m, labels)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 9}, e.Labels())

	for _, l := range e.Labels() {
		assert.Empty(t, e.Label(l).Points, "label %d", l)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	t.Parallel()

	m := testutil.Grid(12, 9)
	labels := randomLabels(m, 4, 7)

	first, err := Extract(context.Background(), m, labels)
	require.NoError(t, err)
	second, err := Extract(context.Background(), m, labels)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second, pointSetOpts); diff != "" {
		t.Errorf("repeated extraction differs (-first +second):\n%s", diff)
	}

	parallel, err := Extract(context.Background(), m, labels, WithWorkers(4))
	require.NoError(t, err)
	if diff := cmp.Diff(first, parallel); diff != "" {
		t.Errorf("parallel extraction differs (-sequential +parallel):\n%s", diff)
	}
}

// TestExtract_EmptyIffUniformFaces checks that no boundary points exist
// exactly when no face joins vertices of different labels.
func TestExtract_EmptyIffUniformFaces(t *testing.T) {
	t.Parallel()

	m := testutil.Grid(5, 5)
	for seed := uint64(1); seed <= 40; seed++ {
		// Few labels with heavy bias so some seeds produce uniform meshes.
		labels := randomLabels(m, 2, seed)
		if seed%4 == 0 {
			for i := range labels {
				labels[i] = 3
			}
		}

		got, err := Extract(context.Background(), m, labels)
		require.NoError(t, err)

		mixed := false
		for _, f := range m.Faces {
			if labels[f[0]] != labels[f[1]] || labels[f[1]] != labels[f[2]] {
				mixed = true
				break
			}
		}
		assert.Equal(t, mixed, TotalPoints(got) > 0, "seed %d", seed)
	}
}

func TestExtract_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, labels := testutil.TwoTriangles()
	_, err := Extract(ctx, m, labels)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Extract(ctx, m, labels, WithWorkers(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFind(t *testing.T) {
	t.Parallel()

	cs := []Collection{{Label: 1}, {Label: 5, Points: []r3.Vec{{X: 1}}}}
	c, ok := Find(cs, 5)
	require.True(t, ok)
	assert.Equal(t, 1, c.Len())

	_, ok = Find(cs, 2)
	assert.False(t, ok)
}

func randomLabels(m *mesh.Mesh, n int, seed uint64) mesh.LabelField {
	r := rand.New(rand.NewPCG(seed, seed*31+7))
	labels := make(mesh.LabelField, m.NumVertices())
	for i := range labels {
		labels[i] = r.IntN(n)
	}
	return labels
}
