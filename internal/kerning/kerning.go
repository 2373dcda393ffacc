// Package kerning implements the hardest component of the pipeline:
// containment-based assignment of glyph groups to
// border frames, orientation and direction inference, iterative
// spacing with overshoot-then-bisect refinement, alignment
// justification, and migration of contained inner shapes to follow
// their parent glyph.
package kerning

import (
	"fmt"
	"math"
	"sort"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/eval"
	"github.com/monksc/gel-go/internal/geomx"
	"github.com/monksc/gel-go/internal/shapestore"
)

// directionTolerance is the absolute tolerance used for both the
// pairwise relative-direction match and the center-vs-fallback
// comparisons.
const directionTolerance = 0.1

// direction is the post-spacing justification tag: Left/Right/Center
// for horizontal groups, Top/Bottom/Center for vertical ones.
type direction int

const (
	dirNone direction = iota
	dirLeft
	dirRight
	dirCenter
	dirTop
	dirBottom
)

// Kerning lays out a glyph group against its border frame: assigns
// glyphs to frames by containment, infers orientation and alignment,
// spaces and justifies each group, and migrates any contained inner
// shapes along with their parent glyph. DisableIndex is an opt-in
// brute-force "does this border contain this group's rect" scan, kept
// as a fallback for differential testing against the R-tree-backed
// default.
type Kerning struct {
	GetGroup       string
	BordersGroup   string
	GetInnerShapes string
	SetGroup       string
	SetInnerShapes string
	Epsilon        string
	Space          string
	RespectSpace   string
	DisableIndex   bool
}

func (q *Kerning) Execute(store *shapestore.Store) error {
	ev := store.Evaluator()
	space := ev.EvalNumber(q.Space)
	epsilon := ev.EvalNumber(q.Epsilon)

	getGroup, ok := store.Group(q.GetGroup)
	if !ok {
		return fmt.Errorf("could not find %q in groups", q.GetGroup)
	}
	bordersGroup, ok := store.Group(q.BordersGroup)
	if !ok {
		return fmt.Errorf("could not find %q in groups", q.BordersGroup)
	}
	innerGroup, ok := store.Group(q.GetInnerShapes)
	if !ok {
		return fmt.Errorf("could not find %q in groups", q.GetInnerShapes)
	}

	innerOrder := flattenInnerShapes(innerGroup)

	entries := buildEntries(store, getGroup)
	tree := BuildRTree(entries)

	type kernedGroup struct {
		working []geom.Polygon
	}
	var kernedGroups []kernedGroup

	migrated := make(map[int]geom.Polygon)
	consumed := make(map[int]bool)

	for _, borderSub := range bordersGroup {
		borderPolys := store.Polygons(borderSub)
		borderRect, ok := geomx.UnionBoundingRect(borderPolys)
		if !ok {
			continue
		}

		var assigned []*glyphEntry
		if q.DisableIndex {
			assigned = bruteForceAssign(entries, borderRect)
		} else {
			assigned = tree.Drain(borderRect)
		}
		if len(assigned) == 0 {
			continue
		}

		infos := make([]*groupInfo, len(assigned))
		for i, e := range assigned {
			infos[i] = &groupInfo{entry: e, horizontal: isHorizontal(e.polys), rect: e.rect}
		}

		inferPairwiseDirections(infos)
		for _, info := range infos {
			if info.dir == dirNone {
				info.dir = fallbackDirection(info, borderRect)
			}
		}

		for _, info := range infos {
			slots := sortedSlots(store, info.entry, info.horizontal)
			if len(slots) == 0 {
				continue
			}

			working := make([]geom.Polygon, len(slots))
			for i, s := range slots {
				working[i] = s.poly
			}

			dx, dy := 1.0, 0.0
			if !info.horizontal {
				dx, dy = 0.0, 1.0
			}
			spaceGlyphs(working, dx, dy, space, epsilon, ev, q.RespectSpace)
			justify(working, info, dx, dy)

			kernedGroups = append(kernedGroups, kernedGroup{working: working})

			for _, innerIdx := range innerOrder {
				if consumed[innerIdx] {
					continue
				}
				ip, ok := store.Polygon(innerIdx)
				if !ok {
					continue
				}
				for i, s := range slots {
					if !geomx.Contains(s.poly, ip) {
						continue
					}
					oldCenter, okOld := geomx.Centroid([]geom.Polygon{s.poly})
					newCenter, okNew := geomx.Centroid([]geom.Polygon{working[i]})
					if !okOld || !okNew {
						break
					}
					delta := newCenter.Sub(oldCenter)
					migrated[innerIdx] = geomx.TranslatePolygon(ip, delta.X, delta.Y)
					consumed[innerIdx] = true
					break
				}
			}
		}
	}

	var setGroup [][]int
	for _, kg := range kernedGroups {
		sub := make([]int, len(kg.working))
		for i, p := range kg.working {
			sub[i] = store.AppendPolygon(p)
		}
		setGroup = append(setGroup, sub)
	}

	var setInner [][]int
	for _, innerIdx := range innerOrder {
		if p, ok := migrated[innerIdx]; ok {
			setInner = append(setInner, []int{store.AppendPolygon(p)})
		}
	}
	for _, innerIdx := range innerOrder {
		if consumed[innerIdx] {
			continue
		}
		if p, ok := store.Polygon(innerIdx); ok {
			setInner = append(setInner, []int{store.AppendPolygon(p)})
		}
	}
	store.SetGroup(q.SetGroup, setGroup)
	store.SetGroup(q.SetInnerShapes, setInner)
	return nil
}

// groupInfo tracks one glyph group's pre-kerning geometry and inferred
// justification tag, carried through steps 4b-4g.
type groupInfo struct {
	entry      *glyphEntry
	horizontal bool
	rect       geomx.Rect
	dir        direction
}

func buildEntries(store *shapestore.Store, group [][]int) []*glyphEntry {
	var entries []*glyphEntry
	for gi, sub := range group {
		polys := store.Polygons(sub)
		rect, ok := geomx.UnionBoundingRect(polys)
		if !ok {
			continue
		}
		entries = append(entries, &glyphEntry{
			subgroupIndex: gi,
			indices:       append([]int(nil), sub...),
			polys:         polys,
			rect:          rect,
			center:        rect.Center(),
		})
	}
	return entries
}

func bruteForceAssign(entries []*glyphEntry, borderRect geomx.Rect) []*glyphEntry {
	var out []*glyphEntry
	for _, e := range entries {
		if e.drained {
			continue
		}
		if borderRect.Contains(e.rect) {
			e.drained = true
			out = append(out, e)
		}
	}
	return out
}

// flattenInnerShapes flattens get_inner_shapes into the shape indices
// it references, preserving first-occurrence order and de-duplicating.
func flattenInnerShapes(group [][]int) []int {
	seen := make(map[int]bool)
	var order []int
	for _, sub := range group {
		for _, idx := range sub {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			order = append(order, idx)
		}
	}
	return order
}

// isHorizontal reports whether the spread of polygon centroids in x is
// at least the spread in y.
func isHorizontal(polys []geom.Polygon) bool {
	if len(polys) == 0 {
		return true
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range polys {
		c, ok := geomx.Centroid([]geom.Polygon{p})
		if !ok {
			continue
		}
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	return (maxX - minX) >= (maxY - minY)
}

// inferPairwiseDirections compares same-orientation groups within a
// frame pairwise: the first match, in registration order, tags both
// groups and neither is reconsidered.
func inferPairwiseDirections(infos []*groupInfo) {
	for i := 0; i < len(infos); i++ {
		if infos[i].dir != dirNone {
			continue
		}
		for j := i + 1; j < len(infos); j++ {
			if infos[j].dir != dirNone {
				continue
			}
			a, b := infos[i], infos[j]
			if a.horizontal != b.horizontal {
				continue
			}
			if a.horizontal {
				switch {
				case closeEnough(a.rect.MinX, b.rect.MinX):
					a.dir, b.dir = dirLeft, dirLeft
				case closeEnough(centerX(a.rect), centerX(b.rect)):
					a.dir, b.dir = dirCenter, dirCenter
				case closeEnough(a.rect.MaxX, b.rect.MaxX):
					a.dir, b.dir = dirRight, dirRight
				default:
					continue
				}
			} else {
				switch {
				case closeEnough(a.rect.MinY, b.rect.MinY):
					a.dir, b.dir = dirTop, dirTop
				case closeEnough(centerY(a.rect), centerY(b.rect)):
					a.dir, b.dir = dirCenter, dirCenter
				case closeEnough(a.rect.MaxY, b.rect.MaxY):
					a.dir, b.dir = dirBottom, dirBottom
				default:
					continue
				}
			}
			break
		}
	}
}

func closeEnough(a, b float64) bool { return math.Abs(a-b) < directionTolerance }
func centerX(r geomx.Rect) float64  { return (r.MinX + r.MaxX) / 2 }
func centerY(r geomx.Rect) float64  { return (r.MinY + r.MaxY) / 2 }

// fallbackDirection tags a group that pairwise comparison left
// untagged, by comparing its gap to the border on each side. The
// vertical branch compares against height, not width, in its last
// case.
func fallbackDirection(info *groupInfo, borderRect geomx.Rect) direction {
	if info.horizontal {
		l := info.rect.MinX - borderRect.MinX
		r := borderRect.MaxX - info.rect.MaxX
		switch {
		case math.Abs(l-r) < directionTolerance:
			return dirCenter
		case l > 2*r:
			return dirLeft
		case r > 1.1*l || l-0.5 < info.rect.Height():
			return dirRight
		default:
			return dirCenter
		}
	}
	t := info.rect.MinY - borderRect.MinY
	b := borderRect.MaxY - info.rect.MaxY
	switch {
	case math.Abs(t-b) < directionTolerance:
		return dirCenter
	case t > 2*b:
		return dirTop
	case b > 1.1*t || t-0.5 < info.rect.Height():
		return dirBottom
	default:
		return dirCenter
	}
}

// glyphSlot is one glyph polygon within a group, paired with its
// pre-kerning bounding rectangle.
type glyphSlot struct {
	shapeIndex int
	poly       geom.Polygon
	rect       geomx.Rect
}

// sortedSlots orders a group's glyphs by min_x (horizontal) or min_y
// (vertical). Glyphs without a bounding rectangle are dropped
// silently.
func sortedSlots(store *shapestore.Store, e *glyphEntry, horizontal bool) []glyphSlot {
	slots := make([]glyphSlot, 0, len(e.indices))
	for _, idx := range e.indices {
		p, ok := store.Polygon(idx)
		if !ok {
			continue
		}
		rect, ok := geomx.BoundingRect(p)
		if !ok {
			continue
		}
		slots = append(slots, glyphSlot{shapeIndex: idx, poly: p, rect: rect})
	}
	sort.SliceStable(slots, func(a, b int) bool {
		if horizontal {
			return slots[a].rect.MinX < slots[b].rect.MinX
		}
		return slots[a].rect.MinY < slots[b].rect.MinY
	})
	return slots
}

// justify applies the post-spacing adjustment for the group's
// inferred direction.
func justify(working []geom.Polygon, info *groupInfo, dx, dy float64) {
	switch info.dir {
	case dirLeft:
		newRect, ok := geomx.UnionBoundingRect(working)
		if !ok {
			return
		}
		shift := info.rect.MaxX - newRect.MaxX
		translateAll(working, shift, 0)
	case dirBottom:
		newRect, ok := geomx.UnionBoundingRect(working)
		if !ok {
			return
		}
		shift := info.rect.MaxY - newRect.MaxY
		translateAll(working, 0, shift)
	case dirCenter:
		newRect, ok := geomx.UnionBoundingRect(working)
		if !ok {
			return
		}
		origCenter := info.rect.Center()
		newCenter := newRect.Center()
		dxShift := (origCenter.X - newCenter.X) * dx
		dyShift := (origCenter.Y - newCenter.Y) * dy
		translateAll(working, dxShift, dyShift)
	case dirRight, dirTop:
		// no adjustment
	}
}

func translateAll(working []geom.Polygon, dx, dy float64) {
	for i, p := range working {
		working[i] = geomx.TranslatePolygon(p, dx, dy)
	}
}

// spaceGlyphs is the spacing sub-algorithm: for each consecutive pair
// along (dx,dy) it prevents backtracking, then moves g[i] toward a
// separation of space by overshoot-then-bisect, then optionally
// cascades the shift onto every later glyph. Both directions are
// handled: a too-close pair pushes g[i] away, a too-far pair pulls it
// in using the same overshoot formula with its sign flipped. A pushed
// pair ends at or beyond space and a pulled pair at or within it; the
// result is not guaranteed to lie within epsilon of space (two unit
// squares 9 apart with space 1 end 0.199 apart).
//
// The bisection loop's guard is evaluated before its body runs: most
// overshoot exits already leave |distance-space| outside the epsilon
// band, so the loop typically contributes zero or one refining step
// rather than converging by repeated halving.
func spaceGlyphs(glyphs []geom.Polygon, dx, dy, space, epsilon float64, ev *eval.Evaluator, respectSpaceExpr string) {
	n := len(glyphs)
	for i := 1; i < n; i++ {
		shiftedI := 0.0

		ci, okI := geomx.Centroid([]geom.Polygon{glyphs[i]})
		cPrev, okPrev := geomx.Centroid([]geom.Polygon{glyphs[i-1]})
		if okI && okPrev {
			gap := (ci.X-cPrev.X)*dx + (ci.Y-cPrev.Y)*dy
			if gap < epsilon {
				deficit := epsilon - gap
				glyphs[i] = geomx.TranslatePolygon(glyphs[i], dx*deficit, dy*deficit)
				shiftedI += deficit
			}
		}

		dist := func() float64 {
			return geomx.Distance([]geom.Polygon{glyphs[i-1]}, []geom.Polygon{glyphs[i]})
		}

		distance := dist()
		if distance != space {
			// sign > 0 pushes g[i] further away; sign < 0 pulls
			// it back in.
			sign := 1.0
			if distance > space {
				sign = -1.0
			}

			max := 0.0
			for (sign > 0 && distance < space) || (sign < 0 && distance > space) {
				d := sign * (1.1*math.Abs(space-distance) + epsilon)
				glyphs[i] = geomx.TranslatePolygon(glyphs[i], dx*d, dy*d)
				shiftedI += d
				max = d
				distance = dist()
			}

			mid := max / 2
			for math.Abs(distance-space) < epsilon && math.Abs(mid) >= epsilon {
				glyphs[i] = geomx.TranslatePolygon(glyphs[i], -dx*mid, -dy*mid)
				shiftedI -= mid
				newDistance := dist()
				improved := newDistance > space
				if sign < 0 {
					improved = newDistance < space
				}
				if improved {
					distance = newDistance
				} else {
					glyphs[i] = geomx.TranslatePolygon(glyphs[i], dx*mid, dy*mid)
					shiftedI += mid
				}
				max = mid
				mid = max / 2
			}
		}

		if shiftedI > 0 && i+1 < n {
			ev.Publish("j", float64(i+1))
			if ev.EvalBool(respectSpaceExpr) {
				for k := i + 1; k < n; k++ {
					glyphs[k] = geomx.TranslatePolygon(glyphs[k], dx*shiftedI, dy*shiftedI)
				}
			}
		}
	}
}
