// Package shapestore owns the canonical shape vector, the parallel
// depth vector, and the named groups map. The evaluator lives next to
// it (internal/eval) and is handed the store through the small
// eval.StoreView interface, so eval never imports shapestore.
package shapestore

import (
	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/depthtree"
	"github.com/monksc/gel-go/internal/eval"
)

// MainGroup is the reserved group name seeded at construction time.
const MainGroup = "main"

// Store is the append-only polygon vector plus its depth index and
// named groups. It carries no internal mutex: single-threaded,
// sequential pipeline execution makes locking vestigial, and the
// single pointer is threaded through by ordinary Go ownership.
type Store struct {
	shapes []geom.Polygon
	depths []int
	groups map[string][][]int
	eval   *eval.Evaluator
}

// New builds a store from an unordered polygon list: it classifies
// containment depth (depthtree.Build), appends shapes in depth-tree
// traversal order, seeds the "main" group, and binds the expression
// evaluator's intrinsics to itself.
func New(polygons []geom.Polygon) *Store {
	s := &Store{
		groups: make(map[string][][]int),
	}

	entries := depthtree.Build(polygons)
	s.shapes = make([]geom.Polygon, 0, len(entries))
	s.depths = make([]int, 0, len(entries))
	for _, e := range entries {
		s.shapes = append(s.shapes, e.Polygon)
		s.depths = append(s.depths, e.Depth)
	}

	main := make([][]int, len(s.shapes))
	for i := range main {
		main[i] = []int{i}
	}
	s.groups[MainGroup] = main

	s.eval = eval.New(s)
	return s
}

// Evaluator returns the expression evaluator bound to this store.
func (s *Store) Evaluator() *eval.Evaluator { return s.eval }

// AppendPolygon adds a new shape to the store and returns its index.
// Appended shapes (kerned glyphs, transformation output) get depth 0;
// the containment tree is only classified once, at construction.
func (s *Store) AppendPolygon(p geom.Polygon) int {
	idx := len(s.shapes)
	s.shapes = append(s.shapes, p)
	s.depths = append(s.depths, 0)
	return idx
}

// Polygon returns the shape at index i.
func (s *Store) Polygon(i int) (geom.Polygon, bool) {
	if i < 0 || i >= len(s.shapes) {
		return geom.Polygon{}, false
	}
	return s.shapes[i], true
}

// Depth returns the containment depth of shape i.
func (s *Store) Depth(i int) (int, bool) {
	if i < 0 || i >= len(s.depths) {
		return 0, false
	}
	return s.depths[i], true
}

// Len returns the number of shapes in the store.
func (s *Store) Len() int { return len(s.shapes) }

// Group returns the named group's subgroups, or ok=false if unset.
func (s *Store) Group(name string) ([][]int, bool) {
	g, ok := s.groups[name]
	return g, ok
}

// SetGroup unconditionally inserts or replaces a named group.
func (s *Store) SetGroup(name string, groups [][]int) {
	// Queries hand over their own working slices; the stored group
	// must not alias them.
	cp := make([][]int, len(groups))
	for i, sub := range groups {
		cp[i] = append([]int(nil), sub...)
	}
	s.groups[name] = cp
}

// Polygons resolves a subgroup's shape indices into polygon values.
func (s *Store) Polygons(indices []int) []geom.Polygon {
	out := make([]geom.Polygon, 0, len(indices))
	for _, idx := range indices {
		if p, ok := s.Polygon(idx); ok {
			out = append(out, p)
		}
	}
	return out
}
