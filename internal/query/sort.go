package query

import (
	"fmt"
	"sort"

	"github.com/monksc/gel-go/internal/shapestore"
)

// Sort stably reorders Get's subgroups using Compare, which publishes
// "l" and "r" (the two candidate subgroup positions being compared)
// and is expected to return true when l belongs before r. A
// non-boolean result means "equal".
type Sort struct {
	Set     string
	Get     string
	Compare string
}

func (q *Sort) Execute(store *shapestore.Store) error {
	src, ok := store.Group(q.Get)
	if !ok {
		return fmt.Errorf("could not find %q in groups", q.Get)
	}

	order := make([]int, len(src))
	for i := range order {
		order[i] = i
	}

	ev := store.Evaluator()
	sort.SliceStable(order, func(a, b int) bool {
		l, r := order[a], order[b]
		ev.Publish("l", float64(l))
		ev.Publish("r", float64(r))
		return ev.EvalBool(q.Compare)
	})

	out := make([][]int, len(order))
	for i, idx := range order {
		out[i] = copyIndices(src[idx])
	}
	store.SetGroup(q.Set, out)
	return nil
}
