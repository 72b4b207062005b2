// Package sqlite is the SQLite-backed surface store.
//
// It holds the already-parsed meshes and label fields for every
// (subject, layer) key, including the canonical unfolded surface, and the
// optional border snapshots that let computed boundaries survive a restart.
// The schema is versioned with embedded golang-migrate migrations.
//
// Domain logic stays in internal/surface/mesh and internal/surface/borders;
// this package only moves their types in and out of the database.
package sqlite
