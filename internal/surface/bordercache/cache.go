// Package bordercache memoizes boundary collections per (subject, layer).
//
// Mesh and labels for a key never change during a process, so an entry is
// computed at most once and then served read-only until Close. Concurrent
// requests for the same uncomputed key share one computation.
package bordercache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/banshee-data/surface.report/internal/monitoring"
	"github.com/banshee-data/surface.report/internal/surface/borders"
	"github.com/banshee-data/surface.report/internal/surface/mesh"
	"github.com/banshee-data/surface.report/internal/timeutil"
)

// DefaultCanonicalKey is the group-average unfolded surface shared by every
// subject's unfolded view.
var DefaultCanonicalKey = mesh.Key{Subject: "avg", Layer: "canonical"}

// ErrClosed is returned by a cache after Close.
var ErrClosed = errors.New("border cache closed")

// View selects which representation of a subject is displayed.
type View int

const (
	// ViewNative shows the subject's own surface for the requested layer.
	ViewNative View = iota
	// ViewUnfolded shows the shared flattened surface.
	ViewUnfolded
)

func (v View) String() string {
	switch v {
	case ViewNative:
		return "native"
	case ViewUnfolded:
		return "unfolded"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Source supplies already-parsed surfaces. Implemented by the sqlite
// surface store.
type Source interface {
	LoadSurface(ctx context.Context, key mesh.Key) (*mesh.Surface, error)
}

// SnapshotStore is an optional second tier that keeps computed borders
// across restarts. LoadBorderSnapshot returns nil, nil when no snapshot
// matches the key and fingerprint.
type SnapshotStore interface {
	LoadBorderSnapshot(ctx context.Context, key mesh.Key, fingerprint string) (*borders.Snapshot, error)
	SaveBorderSnapshot(ctx context.Context, s *borders.Snapshot) error
}

// Config configures a Cache.
type Config struct {
	// CanonicalKey is what every unfolded request resolves to. Zero value
	// means DefaultCanonicalKey.
	CanonicalKey mesh.Key
	// Workers bounds per-label concurrency inside one extraction.
	Workers int
	// Snapshots, if set, is consulted before computing and written after.
	Snapshots SnapshotStore
	// Clock stamps snapshots and times computations. Nil means RealClock.
	Clock timeutil.Clock
}

// Stats counts cache activity since construction.
type Stats struct {
	Hits         int64
	Misses       int64
	Computes     int64
	SnapshotHits int64
	Failures     int64
}

// Cache is a lazily filled, process-lifetime table of boundary collections.
// Returned slices are shared between callers and must not be modified.
type Cache struct {
	src  Source
	cfg  Config
	logf func(format string, v ...interface{})

	mu      sync.RWMutex
	entries map[mesh.Key][]borders.Collection
	closed  bool

	group singleflight.Group

	hits         atomic.Int64
	misses       atomic.Int64
	computes     atomic.Int64
	snapshotHits atomic.Int64
	failures     atomic.Int64
}

// New creates an empty cache over src.
func New(src Source, cfg Config) *Cache {
	if cfg.CanonicalKey == (mesh.Key{}) {
		cfg.CanonicalKey = DefaultCanonicalKey
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	cfg.Clock = timeutil.OrReal(cfg.Clock)
	return &Cache{
		src:     src,
		cfg:     cfg,
		logf:    monitoring.Prefixed("BorderCache"),
		entries: make(map[mesh.Key][]borders.Collection),
	}
}

// CanonicalKey returns the key unfolded requests resolve to.
func (c *Cache) CanonicalKey() mesh.Key { return c.cfg.CanonicalKey }

// Resolve maps a display request onto a cache key. Unfolded boundaries are
// identical for every subject, so all subjects share the canonical key.
func (c *Cache) Resolve(subject, layer string, view View) mesh.Key {
	if view == ViewUnfolded {
		return c.cfg.CanonicalKey
	}
	return mesh.Key{Subject: subject, Layer: layer}
}

// Borders resolves the request and returns its boundary collections.
func (c *Cache) Borders(ctx context.Context, subject, layer string, view View) ([]borders.Collection, error) {
	return c.GetOrCompute(ctx, c.Resolve(subject, layer, view))
}

// GetOrCompute returns the stored collections for key, computing and
// storing them on first access. A failed computation stores nothing, so a
// later call retries. Callers waiting on the same key share the first
// caller's computation and its context.
func (c *Cache) GetOrCompute(ctx context.Context, key mesh.Key) ([]borders.Collection, error) {
	v, ok, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	res, err, _ := c.group.Do(flightKey(key), func() (interface{}, error) {
		// Another flight may have stored the entry since our lookup.
		if v, ok, err := c.lookup(key); err != nil || ok {
			return v, err
		}

		v, err := c.compute(ctx, key)
		if err != nil {
			c.failures.Add(1)
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return nil, ErrClosed
		}
		c.entries[key] = v
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	cs, ok := res.([]borders.Collection)
	if !ok {
		return nil, fmt.Errorf("unexpected type from border flight: got %T", res)
	}
	return cs, nil
}

func (c *Cache) lookup(key mesh.Key) ([]borders.Collection, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, false, ErrClosed
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

// flightKey is unambiguous even when subject names contain "/".
func flightKey(key mesh.Key) string {
	return fmt.Sprintf("%d:%s/%s", len(key.Subject), key.Subject, key.Layer)
}

func (c *Cache) compute(ctx context.Context, key mesh.Key) ([]borders.Collection, error) {
	surface, err := c.src.LoadSurface(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load surface %s: %w", key, err)
	}
	if surface == nil {
		return nil, fmt.Errorf("load surface %s: source returned no surface", key)
	}

	var fingerprint string
	if c.cfg.Snapshots != nil {
		fingerprint = mesh.Fingerprint(surface.Mesh, surface.Labels)
		snap, err := c.cfg.Snapshots.LoadBorderSnapshot(ctx, key, fingerprint)
		if err != nil {
			c.logf("Failed to load border snapshot for %s: %v", key, err)
		} else if snap != nil {
			c.snapshotHits.Add(1)
			c.logf("Restored borders for %s from snapshot %s: labels=%d points=%d",
				key, snap.SnapshotID, len(snap.Collections), snap.PointCount())
			return snap.Collections, nil
		}
	}

	start := c.cfg.Clock.Now()
	cs, err := borders.Extract(ctx, surface.Mesh, surface.Labels, borders.WithWorkers(c.cfg.Workers))
	if err != nil {
		return nil, fmt.Errorf("compute borders %s: %w", key, err)
	}
	c.computes.Add(1)
	c.logf("Computed borders for %s: vertices=%d faces=%d labels=%d points=%d in %s",
		key, surface.Mesh.NumVertices(), surface.Mesh.NumFaces(), len(cs), borders.TotalPoints(cs), c.cfg.Clock.Since(start))

	if c.cfg.Snapshots != nil {
		snap := &borders.Snapshot{
			SnapshotID:  uuid.New().String(),
			Key:         key,
			Fingerprint: fingerprint,
			Collections: cs,
			CreatedAtNs: c.cfg.Clock.Now().UnixNano(),
		}
		// Persistence is best effort; the in-memory entry is authoritative.
		if err := c.cfg.Snapshots.SaveBorderSnapshot(ctx, snap); err != nil {
			c.logf("Failed to persist border snapshot for %s: %v", key, err)
		}
	}
	return cs, nil
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the activity counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Computes:     c.computes.Load(),
		SnapshotHits: c.snapshotHits.Load(),
		Failures:     c.failures.Load(),
	}
}

// Close drops every entry. Subsequent calls return ErrClosed. Close is
// idempotent.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.logf("Closing with %d entries", len(c.entries))
	}
	c.closed = true
	c.entries = nil
	return nil
}
