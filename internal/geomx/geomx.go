// Package geomx provides the planar geometry primitives the query
// pipeline and the evaluator intrinsics are built on: bounding
// rectangles, centroids, area, containment, Euclidean distance, and
// affine transforms over simplefeatures polygons.
//
// geomx intentionally does not depend on simplefeatures' own geometric
// algorithms (area, centroid, bounding box, containment); it only
// exercises the library's accessors (ExteriorRing, InteriorRingN,
// Coordinates, Sequence.GetXY), not its predicate or measure methods.
// Every primitive here is implemented directly over those accessors
// using r2.Point for the underlying arithmetic.
package geomx

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"
)

// Rect is an axis-aligned bounding rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the rectangle's horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the rectangle's vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the rectangle's midpoint.
func (r Rect) Center() r2.Point {
	return r2.Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Contains reports whether other lies entirely within r.
func (r Rect) Contains(other Rect) bool {
	return other.MinX >= r.MinX && other.MaxX <= r.MaxX &&
		other.MinY >= r.MinY && other.MaxY <= r.MaxY
}

// Valid reports whether the rectangle was ever assigned a point.
func (r Rect) Valid() bool {
	return r.MinX <= r.MaxX && r.MinY <= r.MaxY
}

// EmptyRect returns a rectangle with no extent, ready to be grown by ExpandRect.
func EmptyRect() Rect {
	return Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// ExpandRect grows r (in place) to include p.
func ExpandRect(r *Rect, p r2.Point) {
	if p.X < r.MinX {
		r.MinX = p.X
	}
	if p.X > r.MaxX {
		r.MaxX = p.X
	}
	if p.Y < r.MinY {
		r.MinY = p.Y
	}
	if p.Y > r.MaxY {
		r.MaxY = p.Y
	}
}

// UnionRect returns the smallest rectangle containing both a and b.
func UnionRect(a, b Rect) Rect {
	if !a.Valid() {
		return b
	}
	if !b.Valid() {
		return a
	}
	return Rect{
		MinX: math.Min(a.MinX, b.MinX),
		MinY: math.Min(a.MinY, b.MinY),
		MaxX: math.Max(a.MaxX, b.MaxX),
		MaxY: math.Max(a.MaxY, b.MaxY),
	}
}

// ringPoints extracts the vertices of a ring in order.
func ringPoints(ls geom.LineString) []r2.Point {
	seq := ls.Coordinates()
	n := seq.Length()
	pts := make([]r2.Point, n)
	for i := 0; i < n; i++ {
		xy := seq.GetXY(i)
		pts[i] = r2.Point{X: xy.X, Y: xy.Y}
	}
	return pts
}

// ExteriorPoints returns the exterior ring's vertices.
func ExteriorPoints(p geom.Polygon) []r2.Point {
	return ringPoints(p.ExteriorRing())
}

// AllRings returns every ring (exterior first, then holes) as point slices.
func AllRings(p geom.Polygon) [][]r2.Point {
	rings := make([][]r2.Point, 0, 1+p.NumInteriorRings())
	rings = append(rings, ringPoints(p.ExteriorRing()))
	for i := 0; i < p.NumInteriorRings(); i++ {
		rings = append(rings, ringPoints(p.InteriorRingN(i)))
	}
	return rings
}

// BoundingRect returns the axis-aligned bounding rectangle of a single polygon.
func BoundingRect(p geom.Polygon) (Rect, bool) {
	pts := ExteriorPoints(p)
	if len(pts) == 0 {
		return Rect{}, false
	}
	r := EmptyRect()
	for _, pt := range pts {
		ExpandRect(&r, pt)
	}
	return r, true
}

// UnionBoundingRect returns the bounding rectangle of the union of polygons.
func UnionBoundingRect(polys []geom.Polygon) (Rect, bool) {
	r := EmptyRect()
	found := false
	for _, p := range polys {
		pr, ok := BoundingRect(p)
		if !ok {
			continue
		}
		r = UnionRect(r, pr)
		found = true
	}
	return r, found
}

// ringArea returns the signed (shoelace) area of a closed ring.
func ringArea(pts []r2.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// Area returns the unsigned area of a polygon (exterior minus holes).
func Area(p geom.Polygon) float64 {
	area := math.Abs(ringArea(ExteriorPoints(p)))
	for i := 0; i < p.NumInteriorRings(); i++ {
		area -= math.Abs(ringArea(ringPoints(p.InteriorRingN(i))))
	}
	if area < 0 {
		return 0
	}
	return area
}

// AreaSum returns the sum of unsigned areas of a slice of polygons.
func AreaSum(polys []geom.Polygon) float64 {
	total := 0.0
	for _, p := range polys {
		total += Area(p)
	}
	return total
}

// Centroid returns the mean of every exterior vertex across all given polygons.
func Centroid(polys []geom.Polygon) (r2.Point, bool) {
	var total r2.Point
	count := 0
	for _, p := range polys {
		for _, pt := range ExteriorPoints(p) {
			total = total.Add(pt)
			count++
		}
	}
	if count == 0 {
		return r2.Point{}, false
	}
	return total.Mul(1 / float64(count)), true
}

// CircleMetrics computes the variance of point-to-centroid distance and a
// circularity score (1 - variance/mean_distance) for the exterior vertices
// of the given polygons.
func CircleMetrics(polys []geom.Polygon) (variance, circle float64, ok bool) {
	var pts []r2.Point
	for _, p := range polys {
		pts = append(pts, ExteriorPoints(p)...)
	}
	if len(pts) == 0 {
		return 0, 0, false
	}

	var total r2.Point
	for _, pt := range pts {
		total = total.Add(pt)
	}
	center := total.Mul(1 / float64(len(pts)))

	distances := make([]float64, len(pts))
	totalD := 0.0
	for i, pt := range pts {
		d := pt.Sub(center).Norm()
		distances[i] = d
		totalD += d
	}
	averageD := totalD / float64(len(pts))

	for _, d := range distances {
		variance += (d - averageD) * (d - averageD)
	}
	variance /= float64(len(distances))

	if averageD == 0 {
		return variance, 0, true
	}
	return variance, 1.0 - variance/averageD, true
}

// PointInRing reports whether p lies inside the closed ring using the
// standard even-odd (ray casting) rule.
func PointInRing(p r2.Point, ring []r2.Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// Contains reports whether outer strictly contains every vertex of inner,
// honoring outer's holes (a point inside a hole is not contained).
func Contains(outer, inner geom.Polygon) bool {
	rings := AllRings(outer)
	if len(rings) == 0 {
		return false
	}
	exterior := rings[0]
	holes := rings[1:]

	for _, pt := range ExteriorPoints(inner) {
		if !PointInRing(pt, exterior) {
			return false
		}
		for _, hole := range holes {
			if PointInRing(pt, hole) {
				return false
			}
		}
	}
	return true
}

// Distance returns the minimum Euclidean distance between the vertex sets
// of two polygon unions. Edges are not considered: the result is 0 only
// where two vertices coincide, and unions that overlap or touch along an
// edge still get the distance between their nearest vertices.
func Distance(a, b []geom.Polygon) float64 {
	aPts := collectPoints(a)
	bPts := collectPoints(b)
	if len(aPts) == 0 || len(bPts) == 0 {
		return 0
	}

	min := math.Inf(1)
	for _, pa := range aPts {
		for _, pb := range bPts {
			d := pa.Sub(pb).Norm()
			if d < min {
				min = d
			}
		}
	}
	return min
}

func collectPoints(polys []geom.Polygon) []r2.Point {
	var pts []r2.Point
	for _, p := range polys {
		for _, ring := range AllRings(p) {
			pts = append(pts, ring...)
		}
	}
	return pts
}

// AffineTransform is the 6-entry 2D affine matrix:
//
//	x' = A*x + B*y + XOff
//	y' = C*x + D*y + YOff
type AffineTransform struct {
	A, B, C, D, XOff, YOff float64
}

// Apply maps a point through the transform.
func (t AffineTransform) Apply(p r2.Point) r2.Point {
	return r2.Point{
		X: t.A*p.X + t.B*p.Y + t.XOff,
		Y: t.C*p.X + t.D*p.Y + t.YOff,
	}
}

// IdentityTransform returns the identity affine transform.
func IdentityTransform() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// TransformPolygon returns a new polygon with the transform applied to
// every ring.
func TransformPolygon(p geom.Polygon, t AffineTransform) geom.Polygon {
	return rebuildPolygon(p, func(pt r2.Point) r2.Point { return t.Apply(pt) })
}

// TranslatePolygon returns a copy of p translated by (dx, dy).
func TranslatePolygon(p geom.Polygon, dx, dy float64) geom.Polygon {
	return rebuildPolygon(p, func(pt r2.Point) r2.Point {
		return r2.Point{X: pt.X + dx, Y: pt.Y + dy}
	})
}

func rebuildPolygon(p geom.Polygon, f func(r2.Point) r2.Point) geom.Polygon {
	rings := AllRings(p)
	lineStrings := make([]geom.LineString, len(rings))
	for i, ring := range rings {
		lineStrings[i] = pointsToLineString(ring, f)
	}
	return geom.NewPolygon(lineStrings)
}

func pointsToLineString(ring []r2.Point, f func(r2.Point) r2.Point) geom.LineString {
	coords := make([]float64, 0, len(ring)*2)
	for _, pt := range ring {
		np := f(pt)
		coords = append(coords, np.X, np.Y)
	}
	seq := geom.NewSequence(coords, geom.DimXY)
	return geom.NewLineString(seq)
}

// NewPolygonFromRings builds a polygon from raw point rings (exterior first).
func NewPolygonFromRings(rings [][]r2.Point) geom.Polygon {
	lineStrings := make([]geom.LineString, len(rings))
	for i, ring := range rings {
		lineStrings[i] = pointsToLineString(ring, func(p r2.Point) r2.Point { return p })
	}
	return geom.NewPolygon(lineStrings)
}
