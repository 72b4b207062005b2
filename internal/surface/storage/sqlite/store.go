package sqlite

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/surface.report/internal/monitoring"
	"github.com/banshee-data/surface.report/internal/surface/borders"
	"github.com/banshee-data/surface.report/internal/surface/mesh"
	"github.com/banshee-data/surface.report/internal/timeutil"
)

// ErrSurfaceNotFound is returned when no surface is stored for a key.
var ErrSurfaceNotFound = errors.New("surface not found")

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
}

// Store persists surfaces and border snapshots in SQLite.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
	logf  func(format string, v ...interface{})
}

// NewStore wraps an already-open database. The schema must be migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, clock: timeutil.RealClock{}, logf: monitoring.Prefixed("SurfaceStore")}
}

// SetClock replaces the clock used to stamp created_at_ns.
func (s *Store) SetClock(c timeutil.Clock) { s.clock = timeutil.OrReal(c) }

// Open opens (creating if needed) the database at path, applies PRAGMAs
// and migrates the schema to the latest version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open surface database: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}

	s := NewStore(db)
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// surfaceRecord is the blob payload of one surface row.
type surfaceRecord struct {
	Vertices []r3.Vec
	Faces    []mesh.Face
	Labels   []int
}

// InsertSurface validates and stores sf, replacing any surface already
// stored under the same key. Returns the surface ID.
func (s *Store) InsertSurface(ctx context.Context, sf *mesh.Surface) (string, error) {
	if sf == nil || sf.Mesh == nil {
		return "", fmt.Errorf("insert surface: no mesh")
	}
	if err := mesh.Validate(sf.Mesh, sf.Labels); err != nil {
		return "", fmt.Errorf("insert surface %s: %w", sf.Key, err)
	}

	blob, err := encodeBlob(surfaceRecord{
		Vertices: sf.Mesh.Vertices,
		Faces:    sf.Mesh.Faces,
		Labels:   sf.Labels,
	})
	if err != nil {
		return "", fmt.Errorf("encode surface %s: %w", sf.Key, err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO surfaces (
			surface_id, subject, layer, vertex_count, face_count, label_count,
			fingerprint, surface_blob, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (subject, layer) DO UPDATE SET
			surface_id = excluded.surface_id,
			vertex_count = excluded.vertex_count,
			face_count = excluded.face_count,
			label_count = excluded.label_count,
			fingerprint = excluded.fingerprint,
			surface_blob = excluded.surface_blob,
			created_at_ns = excluded.created_at_ns
	`,
		id,
		sf.Key.Subject,
		sf.Key.Layer,
		sf.Mesh.NumVertices(),
		sf.Mesh.NumFaces(),
		len(sf.Labels.Distinct()),
		mesh.Fingerprint(sf.Mesh, sf.Labels),
		blob,
		s.clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert surface %s: %w", sf.Key, err)
	}

	s.logf("Stored surface %s: vertices=%d faces=%d", sf.Key, sf.Mesh.NumVertices(), sf.Mesh.NumFaces())
	return id, nil
}

// LoadSurface implements bordercache.Source.
func (s *Store) LoadSurface(ctx context.Context, key mesh.Key) (*mesh.Surface, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT surface_blob FROM surfaces WHERE subject = ? AND layer = ?`,
		key.Subject, key.Layer,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSurfaceNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get surface %s: %w", key, err)
	}

	var rec surfaceRecord
	if err := decodeBlob(blob, &rec); err != nil {
		return nil, fmt.Errorf("decode surface %s: %w", key, err)
	}
	return &mesh.Surface{
		Key:    key,
		Mesh:   &mesh.Mesh{Vertices: rec.Vertices, Faces: rec.Faces},
		Labels: mesh.LabelField(rec.Labels),
	}, nil
}

// SurfaceInfo summarises a stored surface without decoding its blob.
type SurfaceInfo struct {
	SurfaceID   string   `json:"surface_id"`
	Key         mesh.Key `json:"key"`
	VertexCount int      `json:"vertex_count"`
	FaceCount   int      `json:"face_count"`
	LabelCount  int      `json:"label_count"`
	Fingerprint string   `json:"fingerprint"`
	CreatedAtNs int64    `json:"created_at_ns"`
}

// ListSurfaces returns every stored surface ordered by subject then layer.
func (s *Store) ListSurfaces(ctx context.Context) ([]SurfaceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT surface_id, subject, layer, vertex_count, face_count, label_count,
		       fingerprint, created_at_ns
		FROM surfaces
		ORDER BY subject, layer
	`)
	if err != nil {
		return nil, fmt.Errorf("list surfaces: %w", err)
	}
	defer rows.Close()

	var out []SurfaceInfo
	for rows.Next() {
		var info SurfaceInfo
		if err := rows.Scan(
			&info.SurfaceID,
			&info.Key.Subject,
			&info.Key.Layer,
			&info.VertexCount,
			&info.FaceCount,
			&info.LabelCount,
			&info.Fingerprint,
			&info.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan surface: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// ListKeys returns the keys of every stored surface.
func (s *Store) ListKeys(ctx context.Context) ([]mesh.Key, error) {
	infos, err := s.ListSurfaces(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]mesh.Key, len(infos))
	for i, info := range infos {
		keys[i] = info.Key
	}
	return keys, nil
}

// SaveBorderSnapshot implements bordercache.SnapshotStore. Older snapshots
// for the same key are replaced.
func (s *Store) SaveBorderSnapshot(ctx context.Context, snap *borders.Snapshot) error {
	blob, err := borders.EncodeCollections(snap.Collections)
	if err != nil {
		return fmt.Errorf("encode borders %s: %w", snap.Key, err)
	}
	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.New().String()
	}
	if snap.CreatedAtNs == 0 {
		snap.CreatedAtNs = s.clock.Now().UnixNano()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM border_snapshots WHERE subject = ? AND layer = ?`,
		snap.Key.Subject, snap.Key.Layer,
	); err != nil {
		return fmt.Errorf("delete old snapshots %s: %w", snap.Key, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO border_snapshots (
			snapshot_id, subject, layer, fingerprint, label_count, point_count,
			borders_blob, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.SnapshotID,
		snap.Key.Subject,
		snap.Key.Layer,
		snap.Fingerprint,
		len(snap.Collections),
		snap.PointCount(),
		blob,
		snap.CreatedAtNs,
	); err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.Key, err)
	}
	return tx.Commit()
}

// LoadBorderSnapshot implements bordercache.SnapshotStore. It returns nil,
// nil when no snapshot for key was computed from fingerprint.
func (s *Store) LoadBorderSnapshot(ctx context.Context, key mesh.Key, fingerprint string) (*borders.Snapshot, error) {
	snap := &borders.Snapshot{Key: key, Fingerprint: fingerprint}
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot_id, borders_blob, created_at_ns
		FROM border_snapshots
		WHERE subject = ? AND layer = ? AND fingerprint = ?
		ORDER BY created_at_ns DESC
		LIMIT 1
	`, key.Subject, key.Layer, fingerprint).Scan(&snap.SnapshotID, &blob, &snap.CreatedAtNs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}

	cs, err := borders.DecodeCollections(blob)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	snap.Collections = cs
	return snap, nil
}

// encodeBlob compresses v using gob encoding and gzip compression.
func encodeBlob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(v); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeBlob decompresses and decodes a gob+gzip blob into v.
func decodeBlob(blob []byte, v interface{}) error {
	if len(blob) == 0 {
		return fmt.Errorf("empty blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()
	return gob.NewDecoder(gz).Decode(v)
}
