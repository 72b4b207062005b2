package borders

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/surface.report/internal/surface/mesh"
)

// Collection is the boundary point set for one label: one centroid per
// boundary face. Point order carries no meaning. An empty collection is a
// valid result.
type Collection struct {
	Label  int      `json:"label"`
	Points []r3.Vec `json:"points"`
}

// Len returns the number of boundary points.
func (c Collection) Len() int { return len(c.Points) }

// Option configures Extract.
type Option func(*options)

type options struct {
	workers int
}

// WithWorkers bounds how many labels are processed concurrently. Values
// below 1 are treated as 1 (sequential).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Extractor holds the per-mesh state shared by all label iterations: the
// validated mesh, its labels and the adjacency index built once.
type Extractor struct {
	mesh   *mesh.Mesh
	labels mesh.LabelField
	adj    *mesh.Adjacency
}

// NewExtractor validates the inputs and builds the adjacency index. Any
// structural defect is reported before smoothing or extraction runs.
func NewExtractor(m *mesh.Mesh, labels mesh.LabelField) (*Extractor, error) {
	if err := mesh.Validate(m, labels); err != nil {
		return nil, err
	}
	var faces []mesh.Face
	if m != nil {
		faces = m.Faces
	}
	adj, err := mesh.NewAdjacency(faces, m.NumVertices())
	if err != nil {
		return nil, err
	}
	return &Extractor{mesh: m, labels: labels, adj: adj}, nil
}

// Labels returns the labels present on the mesh, ascending.
func (e *Extractor) Labels() []int {
	return e.labels.Distinct()
}

// Label computes the boundary collection for a single label.
func (e *Extractor) Label(label int) Collection {
	out := Collection{Label: label, Points: []r3.Vec{}}
	if e.mesh.Empty() {
		return out
	}

	// Smooth cannot fail here: the indicator always matches the adjacency size.
	smoothed, _ := mesh.Smooth(e.adj, mesh.Indicator(e.labels, label))

	boundary := make([]bool, len(smoothed))
	for v, x := range smoothed {
		boundary[v] = mesh.Fractional(x) > 0
	}

	for _, f := range e.mesh.Faces {
		if boundary[f[0]] && boundary[f[1]] && boundary[f[2]] {
			out.Points = append(out.Points, e.mesh.Centroid(f))
		}
	}
	return out
}

// All computes one collection per distinct label, ordered by label.
func (e *Extractor) All(ctx context.Context, opts ...Option) ([]Collection, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	if e.mesh.Empty() {
		return []Collection{}, nil
	}

	labels := e.Labels()
	out := make([]Collection, len(labels))

	if o.workers == 1 {
		for i, l := range labels {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = e.Label(l)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, l := range labels {
		i, l := i, l
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.Label(l)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Extract validates the mesh and labels, then returns one boundary
// collection per distinct label present. An empty mesh yields an empty
// result, not an error. Malformed input yields a *mesh.ValidationError and
// no partial result.
func Extract(ctx context.Context, m *mesh.Mesh, labels mesh.LabelField, opts ...Option) ([]Collection, error) {
	e, err := NewExtractor(m, labels)
	if err != nil {
		return nil, fmt.Errorf("extract borders: %w", err)
	}
	return e.All(ctx, opts...)
}

// TotalPoints sums the point counts of all collections.
func TotalPoints(cs []Collection) int {
	n := 0
	for _, c := range cs {
		n += len(c.Points)
	}
	return n
}

// Find returns the collection for label, if present.
func Find(cs []Collection, label int) (Collection, bool) {
	for _, c := range cs {
		if c.Label == label {
			return c, true
		}
	}
	return Collection{}, false
}
