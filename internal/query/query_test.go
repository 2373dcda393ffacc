package query

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/geomx"
	"github.com/monksc/gel-go/internal/shapestore"
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

func equalGroups(a, b [][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// On a single-polygon store, Filter(out, main, "true") yields out == main == [[0]].
func TestFilterTrueSinglePolygon(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1)})

	q := &Filter{Set: "out", Get: "main", Code: "true"}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}

	main, _ := store.Group("main")
	out, _ := store.Group("out")
	want := [][]int{{0}}
	if !equalGroups(main, want) {
		t.Errorf("main = %v, want %v", main, want)
	}
	if !equalGroups(out, want) {
		t.Errorf("out = %v, want %v", out, want)
	}
}

// Filter(set, get, "true") reproduces get exactly.
func TestFilterTrueIsIdentity(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1), square(5, 0, 1), square(10, 0, 1)})

	q := &Filter{Set: "out", Get: "main", Code: "true"}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	main, _ := store.Group("main")
	out, _ := store.Group("out")
	if !equalGroups(main, out) {
		t.Errorf("out = %v, want identical to main %v", out, main)
	}
}

// Filter(set, get, "false") produces an empty group.
func TestFilterFalseIsEmpty(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1), square(5, 0, 1)})

	q := &Filter{Set: "out", Get: "main", Code: "false"}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out, _ := store.Group("out")
	if len(out) != 0 {
		t.Errorf("out = %v, want empty", out)
	}
}

func TestFilterMissingGroupErrors(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1)})
	q := &Filter{Set: "out", Get: "nope", Code: "true"}
	if err := q.Execute(store); err == nil {
		t.Fatal("expected error for missing group")
	}
}

// GroupBy(out, main, "true") on a single-polygon store yields out == [[0]].
func TestGroupBySinglePolygon(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1)})

	q := &GroupBy{Set: "out", Get: "main", Code: "true"}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out, _ := store.Group("out")
	want := [][]int{{0}}
	if !equalGroups(out, want) {
		t.Errorf("out = %v, want %v", out, want)
	}
}

// GroupBy(set, get, "true") produces a single subgroup equal to the
// flattened get.
func TestGroupByTrueFlattensAll(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1), square(5, 0, 1), square(10, 0, 1)})

	q := &GroupBy{Set: "out", Get: "main", Code: "true"}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out, _ := store.Group("out")
	if len(out) != 1 {
		t.Fatalf("expected a single cluster, got %d", len(out))
	}
	want := []int{0, 1, 2}
	for i, idx := range want {
		if out[0][i] != idx {
			t.Errorf("out[0] = %v, want %v", out[0], want)
		}
	}
}

// Sort(set, get, "false") preserves input order (stability).
func TestSortFalsePreservesOrder(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1), square(5, 0, 1), square(10, 0, 1)})

	q := &Sort{Set: "out", Get: "main", Compare: "false"}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	main, _ := store.Group("main")
	out, _ := store.Group("out")
	if !equalGroups(main, out) {
		t.Errorf("out = %v, want stable copy of main %v", out, main)
	}
}

func TestSortByLeftEdge(t *testing.T) {
	// main has shapes in reverse x order; sort ascending by min_x.
	store := shapestore.New([]geom.Polygon{square(10, 0, 1), square(0, 0, 1), square(5, 0, 1)})

	q := &Sort{Set: "out", Get: "main", Compare: "frame(group_index(\"main\", l, 0)).min_x < frame(group_index(\"main\", r, 0)).min_x"}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out, _ := store.Group("out")
	want := [][]int{{1}, {2}, {0}}
	if !equalGroups(out, want) {
		t.Errorf("out = %v, want %v", out, want)
	}
}

// Transformation(set, get, identity) appends exact geometric
// duplicates; the output group has the same shape as get.
func TestTransformationIdentity(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1), square(5, 0, 2)})
	before := store.Len()

	q := &Transformation{
		Set: "out", Get: "main",
		Matrix: [6]string{"1", "0", "0", "1", "0", "0"},
	}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}

	out, _ := store.Group("out")
	main, _ := store.Group("main")
	if len(out) != len(main) {
		t.Fatalf("out has %d subgroups, want %d", len(out), len(main))
	}
	if store.Len() != before+len(main) {
		t.Fatalf("store grew by %d, want %d", store.Len()-before, len(main))
	}

	for i, sub := range main {
		origP, _ := store.Polygon(sub[0])
		newP, _ := store.Polygon(out[i][0])
		oRect, _ := geomx.BoundingRect(origP)
		nRect, _ := geomx.BoundingRect(newP)
		if oRect != nRect {
			t.Errorf("subgroup %d: rect changed from %v to %v", i, oRect, nRect)
		}
	}
}

func TestTransformationTranslation(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1)})
	q := &Transformation{
		Set: "out", Get: "main",
		Matrix: [6]string{"1", "0", "0", "1", "10", "20"},
	}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out, _ := store.Group("out")
	moved, _ := store.Polygon(out[0][0])
	rect, _ := geomx.BoundingRect(moved)
	if rect.MinX != 10 || rect.MinY != 20 {
		t.Errorf("rect = %+v, want min (10,20)", rect)
	}
}

// LoopOver(main, it, [GroupBy(out,main,true), Filter(out,main,true)])
// on a single-polygon store produces out == [[0]].
func TestLoopOverNestedInstructions(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1)})

	q := &LoopOver{
		Get:  "main",
		Iter: "it",
		Instructions: []Query{
			&GroupBy{Set: "out", Get: "main", Code: "true"},
			&Filter{Set: "out", Get: "main", Code: "true"},
		},
	}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out, _ := store.Group("out")
	want := [][]int{{0}}
	if !equalGroups(out, want) {
		t.Errorf("out = %v, want %v", out, want)
	}
}

func TestLoopOverPublishesIterGroup(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1), square(5, 0, 1)})

	var seen [][]int
	probe := probeQuery{fn: func(s *shapestore.Store) error {
		it, ok := s.Group("it")
		if !ok {
			t.Fatal("expected it group to be published")
		}
		seen = append(seen, append([]int(nil), it[0]...))
		return nil
	}}

	q := &LoopOver{Get: "main", Iter: "it", Instructions: []Query{probe}}
	if err := q.Execute(store); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(seen) != 2 || seen[0][0] != 0 || seen[1][0] != 1 {
		t.Errorf("seen = %v, want [[0] [1]]", seen)
	}
}

func TestLoopOverPropagatesSubQueryError(t *testing.T) {
	store := shapestore.New([]geom.Polygon{square(0, 0, 1)})
	q := &LoopOver{
		Get:  "main",
		Iter: "it",
		Instructions: []Query{
			&Filter{Set: "out", Get: "nope", Code: "true"},
		},
	}
	if err := q.Execute(store); err == nil {
		t.Fatal("expected propagated error")
	}
}

type probeQuery struct {
	fn func(*shapestore.Store) error
}

func (p probeQuery) Execute(s *shapestore.Store) error { return p.fn(s) }
