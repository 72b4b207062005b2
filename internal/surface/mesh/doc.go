// Package mesh owns the surface model: triangulated meshes, per-vertex
// label fields and the structures derived from them.
//
// Responsibilities: structural validation, vertex-to-face incidence,
// neighbour queries and neighbourhood smoothing of per-vertex fields.
// Key types: Mesh, Face, LabelField, Surface, Adjacency.
//
// Dependency rule: mesh depends on nothing else in internal/surface.
// No SQL/database code is allowed in this package.
package mesh
