package mesh

import "sort"

// Adjacency is a vertex-to-face incidence index built once per mesh.
//
// Both incidence and neighbour sets are stored in compressed form: the
// entries for vertex v live in flat[offsets[v]:offsets[v+1]]. Construction
// is O(F) for incidence plus O(sum of neighbourhood sizes) for neighbours,
// after which every query is a slice lookup.
type Adjacency struct {
	numVertices int

	faceOffsets []int
	faces       []int

	neighborOffsets []int
	neighbors       []int
}

// NewAdjacency builds the incidence index for faces over numVertices
// vertices. Faces must reference indices in [0, numVertices).
func NewAdjacency(faces []Face, numVertices int) (*Adjacency, error) {
	for fi, f := range faces {
		for _, v := range f {
			if v < 0 || v >= numVertices {
				return nil, &ValidationError{Err: ErrFaceIndexOutOfRange, Face: fi, Vertex: v, Limit: numVertices}
			}
		}
	}

	a := &Adjacency{numVertices: numVertices}
	a.buildIncidence(faces)
	a.buildNeighbors(faces)
	return a, nil
}

// buildIncidence fills the vertex -> incident face lists. A face repeating
// a vertex index is listed once for that vertex.
func (a *Adjacency) buildIncidence(faces []Face) {
	counts := make([]int, a.numVertices+1)
	for _, f := range faces {
		for j, v := range f {
			if !repeatsEarlier(f, j) {
				counts[v+1]++
			}
		}
	}
	for i := 1; i <= a.numVertices; i++ {
		counts[i] += counts[i-1]
	}
	a.faceOffsets = counts

	a.faces = make([]int, counts[a.numVertices])
	cursor := make([]int, a.numVertices)
	copy(cursor, counts[:a.numVertices])
	for fi, f := range faces {
		for j, v := range f {
			if repeatsEarlier(f, j) {
				continue
			}
			a.faces[cursor[v]] = fi
			cursor[v]++
		}
	}
}

// buildNeighbors derives each vertex's neighbour set: the union of the
// vertices of its incident faces plus the vertex itself, sorted ascending.
func (a *Adjacency) buildNeighbors(faces []Face) {
	a.neighborOffsets = make([]int, a.numVertices+1)
	a.neighbors = make([]int, 0, a.numVertices*7)

	// stamp[u] == v+1 means u is already in v's neighbour set.
	stamp := make([]int, a.numVertices)
	for v := 0; v < a.numVertices; v++ {
		start := len(a.neighbors)
		stamp[v] = v + 1
		a.neighbors = append(a.neighbors, v)
		for _, fi := range a.IncidentFaces(v) {
			for _, u := range faces[fi] {
				if stamp[u] != v+1 {
					stamp[u] = v + 1
					a.neighbors = append(a.neighbors, u)
				}
			}
		}
		sort.Ints(a.neighbors[start:])
		a.neighborOffsets[v+1] = len(a.neighbors)
	}
}

func repeatsEarlier(f Face, j int) bool {
	for i := 0; i < j; i++ {
		if f[i] == f[j] {
			return true
		}
	}
	return false
}

// NumVertices returns the number of vertices the index covers.
func (a *Adjacency) NumVertices() int { return a.numVertices }

// IncidentFaces returns the indices of the faces touching v, ascending.
// The returned slice aliases internal storage and must not be modified.
func (a *Adjacency) IncidentFaces(v int) []int {
	return a.faces[a.faceOffsets[v]:a.faceOffsets[v+1]]
}

// Degree returns the number of faces incident to v.
func (a *Adjacency) Degree(v int) int {
	return a.faceOffsets[v+1] - a.faceOffsets[v]
}

// Neighbors returns v's neighbour set including v itself, ascending. An
// isolated vertex is its own only neighbour. The returned slice aliases
// internal storage and must not be modified.
func (a *Adjacency) Neighbors(v int) []int {
	return a.neighbors[a.neighborOffsets[v]:a.neighborOffsets[v+1]]
}
