// Package depthtree builds the nesting classification used throughout
// the pipeline: given a set of polygons, classify each one's nesting
// depth under strict containment. Outermost polygons are depth 0; a
// polygon strictly contained by another is its depth plus one.
package depthtree

import (
	"sort"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/geomx"
)

// Entry pairs a polygon with its computed depth.
type Entry struct {
	Depth   int
	Polygon geom.Polygon
}

// Build classifies every polygon's containment depth and returns the
// entries ordered by depth: every depth-0 shape first, then every
// depth-1 shape, and so on, keeping input order within a depth, so
// parents always precede their children.
func Build(polygons []geom.Polygon) []Entry {
	n := len(polygons)
	depths := make([]int, n)
	areas := make([]float64, n)
	for i, p := range polygons {
		areas[i] = geomx.Area(p)
	}

	// parent[i] is the index of the smallest-area polygon strictly
	// containing i, or -1 if none.
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	for i := 0; i < n; i++ {
		bestArea := -1.0
		best := -1
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if !geomx.Contains(polygons[j], polygons[i]) {
				continue
			}
			if best == -1 || areas[j] < bestArea {
				best = j
				bestArea = areas[j]
			}
		}
		parent[i] = best
	}

	for i := 0; i < n; i++ {
		d := 0
		p := parent[i]
		seen := map[int]bool{}
		for p != -1 && !seen[p] {
			d++
			seen[p] = true
			p = parent[p]
		}
		depths[i] = d
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depths[order[a]] < depths[order[b]]
	})

	entries := make([]Entry, n)
	for idx, i := range order {
		entries[idx] = Entry{Depth: depths[i], Polygon: polygons[i]}
	}
	return entries
}
