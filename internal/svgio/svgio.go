// Package svgio is the core's only contact with the outside world:
// reading closed polylines out of a traced/scanned SVG and writing a
// polygon list back out as one.
package svgio

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/geomx"
)

// svgDoc/svgPath decode just enough of an SVG document to recover the
// `d` attribute of every <path> element.
type svgDoc struct {
	XMLName xml.Name   `xml:"svg"`
	Paths   []svgPath  `xml:"path"`
	Groups  []svgGroup `xml:"g"`
}

type svgGroup struct {
	Paths []svgPath `xml:"path"`
}

type svgPath struct {
	D string `xml:"d,attr"`
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Import reads every <path> in r, simplifies each ring with
// Douglas-Peucker at the given tolerance, translates the whole set so
// its bounding rectangle's minimum corner sits at the origin, and
// returns one polygon per path (no holes; the depth tree later records
// how paths nest but does not turn contained paths into holes).
func Import(r io.Reader, tolerance float64) ([]geom.Polygon, error) {
	var doc svgDoc
	if err := xml.NewDecoder(bufio.NewReader(r)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	paths := doc.Paths
	for _, g := range doc.Groups {
		paths = append(paths, g.Paths...)
	}

	var rings [][]r2.Point
	for _, p := range paths {
		ring := parsePathData(p.D)
		if len(ring) < 3 {
			continue
		}
		ring = closeRing(ring)
		rings = append(rings, simplify(ring, tolerance))
	}
	if len(rings) == 0 {
		return nil, nil
	}

	bounds := geomx.EmptyRect()
	for _, ring := range rings {
		for _, pt := range ring {
			geomx.ExpandRect(&bounds, pt)
		}
	}

	polygons := make([]geom.Polygon, 0, len(rings))
	for _, ring := range rings {
		translated := make([]r2.Point, len(ring))
		for i, pt := range ring {
			translated[i] = r2.Point{X: pt.X - bounds.MinX, Y: pt.Y - bounds.MinY}
		}
		polygons = append(polygons, geomx.NewPolygonFromRings([][]r2.Point{translated}))
	}
	return polygons, nil
}

// parsePathData extracts the vertex sequence from a `d` attribute
// built only of M/L/Z commands and plain numeric coordinate pairs —
// the subset a polyline-tracing SVG exporter emits.
func parsePathData(d string) []r2.Point {
	nums := numberPattern.FindAllString(d, -1)
	var pts []r2.Point
	for i := 0; i+1 < len(nums); i += 2 {
		x, errX := strconv.ParseFloat(nums[i], 64)
		y, errY := strconv.ParseFloat(nums[i+1], 64)
		if errX != nil || errY != nil {
			continue
		}
		pts = append(pts, r2.Point{X: x, Y: y})
	}
	return pts
}

func closeRing(ring []r2.Point) []r2.Point {
	if len(ring) == 0 {
		return ring
	}
	first, last := ring[0], ring[len(ring)-1]
	if first == last {
		return ring
	}
	return append(append([]r2.Point{}, ring...), first)
}

// simplify runs Douglas-Peucker on a closed ring at the given
// tolerance, always keeping the first/last (identical) vertex so the
// ring stays closed. A non-positive tolerance disables simplification.
func simplify(ring []r2.Point, tolerance float64) []r2.Point {
	if tolerance <= 0 || len(ring) < 3 {
		return ring
	}
	kept := douglasPeucker(ring, tolerance)
	if len(kept) < 3 {
		return ring
	}
	return kept
}

func douglasPeucker(pts []r2.Point, tolerance float64) []r2.Point {
	if len(pts) < 3 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]

	maxDist := -1.0
	maxIdx := 0
	for i := 1; i < len(pts)-1; i++ {
		d := perpendicularDistance(pts[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return []r2.Point{first, last}
	}

	left := douglasPeucker(pts[:maxIdx+1], tolerance)
	right := douglasPeucker(pts[maxIdx:], tolerance)
	return append(left[:len(left)-1], right...)
}

func perpendicularDistance(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	abLen := ab.Norm()
	if abLen == 0 {
		return p.Sub(a).Norm()
	}
	ap := p.Sub(a)
	cross := ab.X*ap.Y - ab.Y*ap.X
	return math.Abs(cross) / abLen
}

// Export builds a multi-polygon SVG document from polygons: mirrors y
// (SVG's y axis points down, the store's does not), translates the
// bounding rectangle's minimum to the origin, and writes one <path>
// per polygon with `M`/`L`/`Z` commands for the exterior ring and each
// interior ring.
func Export(w io.Writer, polygons []geom.Polygon) error {
	mirrored := make([]geom.Polygon, len(polygons))
	for i, p := range polygons {
		mirrored[i] = geomx.TransformPolygon(p, geomx.AffineTransform{A: 1, D: -1})
	}

	bounds := geomx.EmptyRect()
	for _, p := range mirrored {
		for _, ring := range geomx.AllRings(p) {
			for _, pt := range ring {
				geomx.ExpandRect(&bounds, pt)
			}
		}
	}
	if !bounds.Valid() {
		bounds = geomx.Rect{}
	}

	final := make([]geom.Polygon, len(mirrored))
	for i, p := range mirrored {
		final[i] = geomx.TranslatePolygon(p, -bounds.MinX, -bounds.MinY)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%gin\" height=\"%gin\" viewBox=\"0 0 %g %g\">\n",
		bounds.Width(), bounds.Height(), bounds.Width(), bounds.Height())
	for _, p := range final {
		fmt.Fprintf(&b, "  <path fill=\"none\" stroke=\"black\" stroke-width=\"0.0005in\" d=\"%s\"/>\n", pathData(p))
	}
	b.WriteString("</svg>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func pathData(p geom.Polygon) string {
	var b strings.Builder
	for _, ring := range geomx.AllRings(p) {
		writeRingPath(&b, ring)
	}
	return b.String()
}

func writeRingPath(b *strings.Builder, ring []r2.Point) {
	if len(ring) == 0 {
		return
	}
	fmt.Fprintf(b, "M%g,%g ", ring[0].X, ring[0].Y)
	for _, pt := range ring[1:] {
		fmt.Fprintf(b, "L%g,%g ", pt.X, pt.Y)
	}
	b.WriteString("Z ")
}
