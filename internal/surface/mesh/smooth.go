package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Indicator returns a 0/1 field that is 1 where the vertex carries label.
func Indicator(labels LabelField, label int) []float64 {
	out := make([]float64, len(labels))
	for i, l := range labels {
		if l == label {
			out[i] = 1
		}
	}
	return out
}

// Smooth replaces every value with the unweighted mean of field over the
// vertex's neighbour set. There is no edge weighting.
//
// Applied to a 0/1 indicator the result is 1 inside a region, 0 outside it,
// and strictly fractional wherever a neighbourhood mixes both.
func Smooth(adj *Adjacency, field []float64) ([]float64, error) {
	if len(field) != adj.NumVertices() {
		return nil, fmt.Errorf("smooth: field has %d values, adjacency covers %d vertices", len(field), adj.NumVertices())
	}

	out := make([]float64, len(field))
	scratch := make([]float64, 0, 16)
	for v := range field {
		scratch = scratch[:0]
		for _, u := range adj.Neighbors(v) {
			scratch = append(scratch, field[u])
		}
		out[v] = stat.Mean(scratch, nil)
	}
	return out, nil
}

// Fractional returns the remainder of x modulo 1. For a smoothed indicator
// it is zero at interior and exterior vertices and positive at vertices
// whose neighbourhood straddles a region interface.
func Fractional(x float64) float64 {
	return math.Mod(x, 1)
}
