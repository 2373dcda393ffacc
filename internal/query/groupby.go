package query

import (
	"fmt"

	"github.com/monksc/gel-go/internal/shapestore"
)

// GroupBy is the clustering pass: it snapshots Get,
// seeds the result with the first subgroup, then for every later
// subgroup scans existing clusters in order (publishing "i" and "j"),
// joining the first cluster Code judges a match and otherwise
// starting a new one. The result is republished after every mutation
// so Code can reference Set itself mid-pass via frame/group_index.
type GroupBy struct {
	Set  string
	Get  string
	Code string
}

func (q *GroupBy) Execute(store *shapestore.Store) error {
	src, ok := store.Group(q.Get)
	if !ok {
		return fmt.Errorf("could not find %q in groups", q.Get)
	}
	if len(src) == 0 {
		store.SetGroup(q.Set, nil)
		return nil
	}

	clusters := [][]int{copyIndices(src[0])}
	store.SetGroup(q.Set, clusters)

	ev := store.Evaluator()
outer:
	for i := 1; i < len(src); i++ {
		ev.Publish("i", float64(i))
		for j := 0; j < len(clusters); j++ {
			ev.Publish("j", float64(j))
			if ev.EvalBool(q.Code) {
				clusters[j] = append(clusters[j], src[i]...)
				store.SetGroup(q.Set, clusters)
				continue outer
			}
		}
		clusters = append(clusters, copyIndices(src[i]))
		store.SetGroup(q.Set, clusters)
	}

	store.SetGroup(q.Set, clusters)
	return nil
}
