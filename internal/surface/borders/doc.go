// Package borders extracts the approximate curves separating adjacent label
// regions on a surface mesh.
//
// For every label present, the 0/1 membership field is smoothed over each
// vertex's neighbourhood; vertices left with a fractional value sit in the
// transition zone. Faces whose three vertices all sit in that zone are the
// boundary faces, and each one is reduced to its centroid. The result is a
// tolerant point-set approximation of the border, not an exact isocontour.
//
// Dependency rule: borders depends on mesh only. No caching or storage here.
package borders
