package eval

import "github.com/peterstace/simplefeatures/geom"

// selectPolygons resolves a polymorphic selector argument list to the
// polygons it refers to. A leading number always wins and selects a
// single shape by index; a (string, number, number) triple selects a
// single shape via group[i][j]; a (string, number) pair selects every
// shape in group[i]; a bare string selects every shape in the whole
// group. Anything else yields no polygons.
func (ev *Evaluator) selectPolygons(args []Value) []geom.Polygon {
	if len(args) >= 1 && args[0].Kind == KindNumber {
		idx := int(args[0].Num)
		p, ok := ev.store.Polygon(idx)
		if !ok {
			return nil
		}
		return []geom.Polygon{p}
	}
	if len(args) == 3 && args[0].Kind == KindString && args[1].Kind == KindNumber && args[2].Kind == KindNumber {
		group, ok := ev.store.Group(args[0].Str)
		if !ok {
			return nil
		}
		i, j := int(args[1].Num), int(args[2].Num)
		if i < 0 || i >= len(group) || j < 0 || j >= len(group[i]) {
			return nil
		}
		p, ok := ev.store.Polygon(group[i][j])
		if !ok {
			return nil
		}
		return []geom.Polygon{p}
	}
	if len(args) == 2 && args[0].Kind == KindString && args[1].Kind == KindNumber {
		group, ok := ev.store.Group(args[0].Str)
		if !ok {
			return nil
		}
		i := int(args[1].Num)
		if i < 0 || i >= len(group) {
			return nil
		}
		polys := make([]geom.Polygon, 0, len(group[i]))
		for _, idx := range group[i] {
			if p, ok := ev.store.Polygon(idx); ok {
				polys = append(polys, p)
			}
		}
		return polys
	}
	if len(args) == 1 && args[0].Kind == KindString {
		group, ok := ev.store.Group(args[0].Str)
		if !ok {
			return nil
		}
		var polys []geom.Polygon
		for _, sub := range group {
			for _, idx := range sub {
				if p, ok := ev.store.Polygon(idx); ok {
					polys = append(polys, p)
				}
			}
		}
		return polys
	}
	return nil
}

// splitDistanceArgs finds where the second selector of a distance(a, b)
// call begins: args[0] always belongs to selector a regardless of its
// type, and the split point is the first string-typed arg at position
// >= 1 (the second selector's leading group name), or len(args) if
// there is none.
func splitDistanceArgs(args []Value) int {
	for i := 1; i < len(args); i++ {
		if args[i].Kind == KindString {
			return i
		}
	}
	return len(args)
}
