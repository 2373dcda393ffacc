package depthtree

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/geomx"
)

func square(minX, minY, size float64) geom.Polygon {
	ring := []r2.Point{
		{X: minX, Y: minY},
		{X: minX + size, Y: minY},
		{X: minX + size, Y: minY + size},
		{X: minX, Y: minY + size},
		{X: minX, Y: minY},
	}
	return geomx.NewPolygonFromRings([][]r2.Point{ring})
}

func TestBuildSingle(t *testing.T) {
	entries := Build([]geom.Polygon{square(0, 0, 1)})
	if len(entries) != 1 || entries[0].Depth != 0 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestBuildNested(t *testing.T) {
	outer := square(0, 0, 10)
	middle := square(2, 2, 5)
	inner := square(3, 3, 1)

	entries := Build([]geom.Polygon{inner, outer, middle})

	depthByArea := map[float64]int{}
	for _, e := range entries {
		depthByArea[geomx.Area(e.Polygon)] = e.Depth
	}

	if depthByArea[100] != 0 {
		t.Errorf("outer depth = %d, want 0", depthByArea[100])
	}
	if depthByArea[25] != 1 {
		t.Errorf("middle depth = %d, want 1", depthByArea[25])
	}
	if depthByArea[1] != 2 {
		t.Errorf("inner depth = %d, want 2", depthByArea[1])
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].Depth < entries[i-1].Depth-1 {
			t.Errorf("depth order broken at %d", i)
		}
	}
}

func TestBuildSiblings(t *testing.T) {
	a := square(0, 0, 1)
	b := square(10, 0, 1)
	entries := Build([]geom.Polygon{a, b})
	for _, e := range entries {
		if e.Depth != 0 {
			t.Errorf("sibling depth = %d, want 0", e.Depth)
		}
	}
}
