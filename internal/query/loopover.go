package query

import (
	"fmt"

	"github.com/monksc/gel-go/internal/shapestore"
)

// LoopOver iterates the subgroups of Get, and for each one writes a
// fresh one-element group named Iter (the [[index]] subgroup currently
// being visited) before recursively executing Instructions against the
// same store. Sub-queries run in order; the first one
// that fails aborts the whole LoopOver, matching the pipeline's
// short-circuit rule.
type LoopOver struct {
	Get          string
	Iter         string
	Instructions []Query
}

func (q *LoopOver) Execute(store *shapestore.Store) error {
	src, ok := store.Group(q.Get)
	if !ok {
		return fmt.Errorf("could not find %q in groups", q.Get)
	}

	for i, sub := range src {
		store.SetGroup(q.Iter, [][]int{copyIndices(sub)})
		for _, instr := range q.Instructions {
			if err := instr.Execute(store); err != nil {
				return fmt.Errorf("loop over %q at subgroup %d: %w", q.Get, i, err)
			}
		}
	}
	return nil
}
