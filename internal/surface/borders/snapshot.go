package borders

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/surface.report/internal/surface/mesh"
)

// Snapshot is a persisted set of boundary collections for one key, tied to
// the fingerprint of the exact mesh and labels that produced it.
type Snapshot struct {
	SnapshotID  string
	Key         mesh.Key
	Fingerprint string
	Collections []Collection
	CreatedAtNs int64
}

// PointCount returns the total number of boundary points in the snapshot.
func (s *Snapshot) PointCount() int {
	if s == nil {
		return 0
	}
	return TotalPoints(s.Collections)
}

// EncodeCollections compresses collections using gob encoding and gzip.
func EncodeCollections(cs []Collection) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(cs); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCollections decompresses and decodes collections from a gob+gzip
// blob. Empty point sets come back as empty, non-nil slices.
func DecodeCollections(blob []byte) ([]Collection, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty borders blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var cs []Collection
	if err := gob.NewDecoder(gz).Decode(&cs); err != nil {
		return nil, fmt.Errorf("failed to decode borders: %w", err)
	}
	for i := range cs {
		if cs[i].Points == nil {
			cs[i].Points = []r3.Vec{}
		}
	}
	if cs == nil {
		cs = []Collection{}
	}
	return cs, nil
}
