package geomx

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"
)

func square(minX, minY, size float64) geom.Polygon {
	ring := []r2.Point{
		{X: minX, Y: minY},
		{X: minX + size, Y: minY},
		{X: minX + size, Y: minY + size},
		{X: minX, Y: minY + size},
		{X: minX, Y: minY},
	}
	return NewPolygonFromRings([][]r2.Point{ring})
}

func TestBoundingRect(t *testing.T) {
	p := square(0, 0, 1)
	r, ok := BoundingRect(p)
	if !ok {
		t.Fatal("expected bounding rect")
	}
	if r.MinX != 0 || r.MinY != 0 || r.MaxX != 1 || r.MaxY != 1 {
		t.Errorf("unexpected rect: %+v", r)
	}
	if r.Width() != 1 || r.Height() != 1 {
		t.Errorf("unexpected extent: %+v", r)
	}
}

func TestAreaUnitSquare(t *testing.T) {
	p := square(0, 0, 1)
	if got := Area(p); math.Abs(got-1) > 1e-9 {
		t.Errorf("Area() = %v, want 1", got)
	}
}

func TestAreaWithHole(t *testing.T) {
	outer := []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}
	hole := []r2.Point{{X: 2, Y: 2}, {X: 2, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 2}, {X: 2, Y: 2}}
	p := NewPolygonFromRings([][]r2.Point{outer, hole})
	if got := Area(p); math.Abs(got-96) > 1e-9 {
		t.Errorf("Area() = %v, want 96", got)
	}
}

func TestContains(t *testing.T) {
	outer := square(0, 0, 10)
	inner := square(2, 2, 1)
	if !Contains(outer, inner) {
		t.Error("expected outer to contain inner")
	}
	far := square(20, 20, 1)
	if Contains(outer, far) {
		t.Error("expected outer not to contain far")
	}
}

func TestCentroidOfSquare(t *testing.T) {
	p := square(0, 0, 2)
	c, ok := Centroid([]geom.Polygon{p})
	if !ok {
		t.Fatal("expected centroid")
	}
	// Mean of the 5 exterior vertices; the closed ring repeats the
	// first point, so the mean is biased toward it.
	if c.X < 0 || c.X > 2 || c.Y < 0 || c.Y > 2 {
		t.Errorf("centroid out of expected range: %+v", c)
	}
}

func TestDistanceBetweenSquares(t *testing.T) {
	a := square(0, 0, 1)
	b := square(10, 0, 1)
	d := Distance([]geom.Polygon{a}, []geom.Polygon{b})
	if math.Abs(d-9) > 1e-9 {
		t.Errorf("Distance() = %v, want 9", d)
	}
}

func TestTranslatePolygon(t *testing.T) {
	p := square(0, 0, 1)
	moved := TranslatePolygon(p, 5, 5)
	r, _ := BoundingRect(moved)
	if r.MinX != 5 || r.MinY != 5 {
		t.Errorf("unexpected translated rect: %+v", r)
	}
}

func TestIdentityTransformPreservesGeometry(t *testing.T) {
	p := square(1, 1, 3)
	transformed := TransformPolygon(p, IdentityTransform())
	want, _ := BoundingRect(p)
	got, _ := BoundingRect(transformed)
	if got != want {
		t.Errorf("identity transform changed geometry: got %+v want %+v", got, want)
	}
}
