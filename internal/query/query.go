// Package query implements the query interface and the built-in
// structural queries: GroupBy, Filter, Sort, Transformation, and
// LoopOver. Every query is executed sequentially against a single
// *shapestore.Store; the first failing query short-circuits the
// pipeline.
package query

import "github.com/monksc/gel-go/internal/shapestore"

// Query is any pipeline step. Built-in queries are effectively
// stateless, but the interface allows stateful ones too.
type Query interface {
	Execute(store *shapestore.Store) error
}

// copyIndices returns an independent copy of an index slice so stored
// groups never alias a caller's working slice.
func copyIndices(src []int) []int {
	cp := make([]int, len(src))
	copy(cp, src)
	return cp
}
