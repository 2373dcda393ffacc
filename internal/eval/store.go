package eval

import "github.com/peterstace/simplefeatures/geom"

// StoreView is the read surface intrinsics need from the polygon
// store. shapestore.Store implements it; eval has no dependency on
// shapestore itself, which is what lets shapestore build and own an
// Evaluator without an import cycle.
type StoreView interface {
	Polygon(i int) (geom.Polygon, bool)
	Depth(i int) (int, bool)
	Group(name string) ([][]int, bool)
}
