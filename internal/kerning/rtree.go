package kerning

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/geomx"
)

// glyphEntry is one candidate glyph-group node: a subgroup of the
// kerning query's get_group, keyed by the centroid of its own bounding
// rectangle.
type glyphEntry struct {
	subgroupIndex int
	indices       []int
	polys         []geom.Polygon
	rect          geomx.Rect
	center        r2.Point
	drained       bool
}

// leafPageCapacity bounds how many entries a bulk-loaded leaf page
// holds; pages are the unit the drain scan prunes against, same idea
// as an STR-packed R-tree's leaf nodes.
const leafPageCapacity = 8

// leafPage groups a batch of entries under a single bounding box so a
// range query can reject the whole page without visiting every entry.
type leafPage struct {
	bbox    geomx.Rect
	entries []*glyphEntry
}

// RTree is a bulk-loaded, static spatial index over glyph-group
// centroids. It is built once
// per Kerning.Execute call and only supports the one operation the
// kerning algorithm needs: draining every entry whose centroid falls
// inside a query rectangle.
type RTree struct {
	pages []leafPage
}

// BuildRTree bulk-loads entries using the sort-tile-recursive
// heuristic: sort by x, slice into ceil(sqrt(number of leaf pages))
// vertical strips,
// sort each strip by y, then chunk each strip into fixed-size leaf
// pages. This keeps the common case (glyphs roughly laid out left to
// right, top to bottom on a sign) cheap to prune against.
func BuildRTree(entries []*glyphEntry) *RTree {
	if len(entries) == 0 {
		return &RTree{}
	}

	sorted := append([]*glyphEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].center.X < sorted[j].center.X })

	numLeafPages := (len(sorted) + leafPageCapacity - 1) / leafPageCapacity
	stripCount := int(math.Ceil(math.Sqrt(float64(numLeafPages))))
	if stripCount < 1 {
		stripCount = 1
	}
	stripSize := (len(sorted) + stripCount - 1) / stripCount

	var pages []leafPage
	for start := 0; start < len(sorted); start += stripSize {
		end := start + stripSize
		if end > len(sorted) {
			end = len(sorted)
		}
		strip := sorted[start:end]
		sort.Slice(strip, func(i, j int) bool { return strip[i].center.Y < strip[j].center.Y })

		for s := 0; s < len(strip); s += leafPageCapacity {
			e := s + leafPageCapacity
			if e > len(strip) {
				e = len(strip)
			}
			pages = append(pages, newLeafPage(strip[s:e]))
		}
	}

	return &RTree{pages: pages}
}

func newLeafPage(entries []*glyphEntry) leafPage {
	bbox := geomx.EmptyRect()
	for _, e := range entries {
		geomx.ExpandRect(&bbox, e.center)
	}
	return leafPage{bbox: bbox, entries: entries}
}

// pointInRect reports whether p lies within (inclusive) rect.
func pointInRect(p r2.Point, rect geomx.Rect) bool {
	return p.X >= rect.MinX && p.X <= rect.MaxX && p.Y >= rect.MinY && p.Y <= rect.MaxY
}

// Drain removes and returns every not-yet-drained entry whose centroid
// falls inside rect. A page whose bounding box
// doesn't intersect rect is skipped without inspecting its entries.
func (t *RTree) Drain(rect geomx.Rect) []*glyphEntry {
	var out []*glyphEntry
	for _, page := range t.pages {
		if !rectsIntersect(page.bbox, rect) {
			continue
		}
		for _, e := range page.entries {
			if e.drained {
				continue
			}
			if pointInRect(e.center, rect) {
				e.drained = true
				out = append(out, e)
			}
		}
	}
	return out
}

func rectsIntersect(a, b geomx.Rect) bool {
	return a.MinX <= b.MaxX && a.MaxX >= b.MinX && a.MinY <= b.MaxY && a.MaxY >= b.MinY
}
