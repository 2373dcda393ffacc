package ingestcache

import (
	"os"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/geomx"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "ingest_cache_*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	cache, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func square() geom.Polygon {
	ring := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}
	return geomx.NewPolygonFromRings([][]r2.Point{ring})
}

func TestLookupMissReturnsFalse(t *testing.T) {
	cache := openTestCache(t)
	_, found, err := cache.Lookup(Key([]byte("nothing stored"), 0.01))
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected miss on empty cache")
	}
}

func TestStoreThenLookupRoundTrips(t *testing.T) {
	cache := openTestCache(t)
	key := Key([]byte("<svg/>"), 0.01)
	want := []geom.Polygon{square()}

	if err := cache.Store(key, want); err != nil {
		t.Fatal(err)
	}

	got, found, err := cache.Lookup(key)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected hit after store")
	}
	if len(got) != 1 {
		t.Fatalf("got %d polygons, want 1", len(got))
	}

	wantRect, _ := geomx.BoundingRect(want[0])
	gotRect, _ := geomx.BoundingRect(got[0])
	if wantRect != gotRect {
		t.Errorf("rect = %+v, want %+v", gotRect, wantRect)
	}
}

func TestKeyDiffersByToleranceAndContents(t *testing.T) {
	a := Key([]byte("same bytes"), 0.01)
	b := Key([]byte("same bytes"), 0.02)
	c := Key([]byte("different bytes"), 0.01)

	if string(a) == string(b) {
		t.Error("expected different keys for different tolerances")
	}
	if string(a) == string(c) {
		t.Error("expected different keys for different contents")
	}
}
