package query

import (
	"fmt"

	"github.com/monksc/gel-go/internal/geomx"
	"github.com/monksc/gel-go/internal/shapestore"
)

// Transformation evaluates six scalar expressions into an affine
// matrix and appends a transformed copy of every shape in Get to the
// store, publishing the new indices under Set. A non-numeric matrix
// entry defaults to 0.
type Transformation struct {
	Set    string
	Get    string
	Matrix [6]string
}

func (q *Transformation) Execute(store *shapestore.Store) error {
	src, ok := store.Group(q.Get)
	if !ok {
		return fmt.Errorf("could not find %q in groups", q.Get)
	}

	ev := store.Evaluator()
	var m [6]float64
	for i := 0; i < 6; i++ {
		m[i] = ev.EvalNumber(q.Matrix[i])
	}
	transform := geomx.AffineTransform{A: m[0], B: m[1], C: m[2], D: m[3], XOff: m[4], YOff: m[5]}

	newGroup := make([][]int, len(src))
	for gi, sub := range src {
		ng := make([]int, 0, len(sub))
		for _, idx := range sub {
			p, ok := store.Polygon(idx)
			if !ok {
				continue
			}
			newIdx := store.AppendPolygon(geomx.TransformPolygon(p, transform))
			ng = append(ng, newIdx)
		}
		newGroup[gi] = ng
	}
	store.SetGroup(q.Set, newGroup)
	return nil
}
