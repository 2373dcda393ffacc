// Package ingestcache memoizes the expensive half of SVG ingestion —
// path parsing and Douglas-Peucker simplification — behind a bbolt
// database keyed by the content hash of the source bytes and the
// tolerance they were simplified at. A second run over an unchanged
// trace file with the same tolerance is a single bucket Get instead of
// another XML parse and polyline simplification pass.
package ingestcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"
	bolt "go.etcd.io/bbolt"

	"github.com/monksc/gel-go/internal/geomx"
)

const bucketIngest = "ingest"

// Cache wraps a bbolt database used purely as a memoization layer: it
// has no notion of spatial indexing, only key -> blob lookups keyed by
// a digest of the ingestion inputs.
type Cache struct {
	db *bolt.DB
}

// Open creates (or reuses) a bbolt database at path and ensures its
// single bucket exists.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open ingest cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketIngest))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open ingest cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives the cache key for a given source file's contents and the
// simplification tolerance it would be ingested at. Two imports of the
// same bytes at the same tolerance always hash to the same key.
func Key(contents []byte, tolerance float64) []byte {
	h := sha256.New()
	h.Write(contents)
	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], uint64FromFloat(tolerance))
	h.Write(tb[:])
	return h.Sum(nil)
}

func uint64FromFloat(f float64) uint64 {
	return uint64(int64(f * 1e9))
}

// Lookup returns the cached polygon list for key, if present.
func (c *Cache) Lookup(key []byte) ([]geom.Polygon, bool, error) {
	var polys []geom.Polygon
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketIngest))
		data := b.Get(key)
		if data == nil {
			return nil
		}
		decoded, err := decodePolygons(data)
		if err != nil {
			return err
		}
		polys = decoded
		found = true
		return nil
	})
	return polys, found, err
}

// Store saves the ingestion result for key.
func (c *Cache) Store(key []byte, polys []geom.Polygon) error {
	data, err := encodePolygons(polys)
	if err != nil {
		return fmt.Errorf("encode ingest result: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketIngest))
		return b.Put(key, data)
	})
}

// wireRing/wirePolygon are the JSON-friendly shapes polygons are
// marshaled through; simplefeatures' own geom.Polygon doesn't round
// trip through encoding/json on its own.
type wireRing struct {
	Points []float64 `json:"points"`
}

type wirePolygon struct {
	Rings []wireRing `json:"rings"`
}

func encodePolygons(polys []geom.Polygon) ([]byte, error) {
	wire := make([]wirePolygon, len(polys))
	for i, p := range polys {
		rings := geomx.AllRings(p)
		wp := wirePolygon{Rings: make([]wireRing, len(rings))}
		for j, ring := range rings {
			pts := make([]float64, 0, len(ring)*2)
			for _, v := range ring {
				pts = append(pts, v.X, v.Y)
			}
			wp.Rings[j] = wireRing{Points: pts}
		}
		wire[i] = wp
	}
	return json.Marshal(wire)
}

func decodePolygons(data []byte) ([]geom.Polygon, error) {
	var wire []wirePolygon
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	polys := make([]geom.Polygon, len(wire))
	for i, wp := range wire {
		rings := make([][]r2.Point, len(wp.Rings))
		for j, wr := range wp.Rings {
			ring := make([]r2.Point, 0, len(wr.Points)/2)
			for k := 0; k+1 < len(wr.Points); k += 2 {
				ring = append(ring, r2.Point{X: wr.Points[k], Y: wr.Points[k+1]})
			}
			rings[j] = ring
		}
		polys[i] = geomx.NewPolygonFromRings(rings)
	}
	return polys, nil
}
