package query

import (
	"fmt"

	"github.com/monksc/gel-go/internal/shapestore"
)

// Filter keeps each subgroup of Get for which Code evaluates to the
// boolean true, publishing the subgroup's position as "i". A
// non-boolean result is treated as false.
type Filter struct {
	Set  string
	Get  string
	Code string
}

func (q *Filter) Execute(store *shapestore.Store) error {
	src, ok := store.Group(q.Get)
	if !ok {
		return fmt.Errorf("could not find %q in groups", q.Get)
	}

	ev := store.Evaluator()
	var out [][]int
	for i, sub := range src {
		ev.Publish("i", float64(i))
		if ev.EvalBool(q.Code) {
			out = append(out, copyIndices(sub))
		}
	}
	store.SetGroup(q.Set, out)
	return nil
}
