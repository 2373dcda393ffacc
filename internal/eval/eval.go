// Package eval implements the small embedded expression language the
// query pipeline evaluates predicates and transforms with: a
// precedence-climbing parser and a tree-walking interpreter over a
// mutable environment, with a fixed table of geometric intrinsics
// bound at construction time. The language covers arithmetic,
// comparisons, booleans, assignment to locals, `;` sequencing, and
// record field access; nothing more.
package eval

import (
	"fmt"
	"math"

	"github.com/monksc/gel-go/internal/geomx"
)

// Evaluator holds the mutable environment queries publish variables
// into and the store the intrinsics read through.
type Evaluator struct {
	store StoreView
	env   map[string]Value
}

// New builds an evaluator bound to store. Intrinsics are resolved by
// name inside Eval/evalCall rather than pre-registered closures, but
// the effect is the same: every intrinsic in the table below is bound
// to this store for the evaluator's lifetime.
func New(store StoreView) *Evaluator {
	return &Evaluator{store: store, env: make(map[string]Value)}
}

// Publish sets (replacing any prior value) a variable in the shared
// environment, as queries do before evaluating predicates. Publishing
// is replace-on-write.
func (ev *Evaluator) Publish(name string, value float64) {
	ev.env[name] = Number(value)
}

// Eval parses and evaluates a `;`-separated sequence of expressions,
// returning the value of the last one. Parse or runtime errors are
// returned to the caller; it is the caller's
// responsibility to decide what a failed evaluation means in context
// (false for predicates, equal for comparisons, 0 for scalars).
func (ev *Evaluator) Eval(source string) (Value, error) {
	p, err := newParser(source)
	if err != nil {
		return Value{}, err
	}
	stmts, err := p.parseProgram()
	if err != nil {
		return Value{}, err
	}
	var result Value
	for _, stmt := range stmts {
		result, err = ev.evalNode(stmt)
		if err != nil {
			return Value{}, err
		}
	}
	return result, nil
}

// EvalBool evaluates source and interprets the result as a boolean,
// treating any error or non-boolean result as false.
func (ev *Evaluator) EvalBool(source string) bool {
	v, err := ev.Eval(source)
	if err != nil {
		return false
	}
	return v.AsBool()
}

// EvalNumber evaluates source and interprets the result as a number,
// defaulting to 0 on error or a non-numeric result.
func (ev *Evaluator) EvalNumber(source string) float64 {
	v, err := ev.Eval(source)
	if err != nil {
		return 0
	}
	return v.AsNumber()
}

func (ev *Evaluator) evalNode(n node) (Value, error) {
	switch t := n.(type) {
	case numberLit:
		return Number(t.value), nil
	case boolLit:
		return Bool(t.value), nil
	case stringLit:
		return String(t.value), nil
	case identExpr:
		v, ok := ev.env[t.name]
		if !ok {
			return Value{}, fmt.Errorf("undefined variable %q", t.name)
		}
		return v, nil
	case assignExpr:
		v, err := ev.evalNode(t.value)
		if err != nil {
			return Value{}, err
		}
		ev.env[t.name] = v
		return v, nil
	case unaryExpr:
		return ev.evalUnary(t)
	case binaryExpr:
		return ev.evalBinary(t)
	case fieldAccessExpr:
		base, err := ev.evalNode(t.base)
		if err != nil {
			return Value{}, err
		}
		return base.Field(t.field), nil
	case callExpr:
		return ev.evalCall(t)
	}
	return Value{}, fmt.Errorf("unsupported expression node %T", n)
}

func (ev *Evaluator) evalUnary(t unaryExpr) (Value, error) {
	v, err := ev.evalNode(t.operand)
	if err != nil {
		return Value{}, err
	}
	switch t.op {
	case tokMinus:
		return Number(-v.AsNumber()), nil
	case tokNot:
		return Bool(!v.AsBool()), nil
	}
	return Value{}, fmt.Errorf("unsupported unary operator")
}

func (ev *Evaluator) evalBinary(t binaryExpr) (Value, error) {
	// Short-circuit boolean operators evaluate the right side lazily.
	if t.op == tokAnd {
		l, err := ev.evalNode(t.left)
		if err != nil {
			return Value{}, err
		}
		if !l.AsBool() {
			return Bool(false), nil
		}
		r, err := ev.evalNode(t.right)
		if err != nil {
			return Value{}, err
		}
		return Bool(r.AsBool()), nil
	}
	if t.op == tokOr {
		l, err := ev.evalNode(t.left)
		if err != nil {
			return Value{}, err
		}
		if l.AsBool() {
			return Bool(true), nil
		}
		r, err := ev.evalNode(t.right)
		if err != nil {
			return Value{}, err
		}
		return Bool(r.AsBool()), nil
	}

	l, err := ev.evalNode(t.left)
	if err != nil {
		return Value{}, err
	}
	r, err := ev.evalNode(t.right)
	if err != nil {
		return Value{}, err
	}

	switch t.op {
	case tokPlus:
		return Number(l.AsNumber() + r.AsNumber()), nil
	case tokMinus:
		return Number(l.AsNumber() - r.AsNumber()), nil
	case tokStar:
		return Number(l.AsNumber() * r.AsNumber()), nil
	case tokSlash:
		return Number(l.AsNumber() / r.AsNumber()), nil
	case tokPow:
		return Number(math.Pow(l.AsNumber(), r.AsNumber())), nil
	case tokLt:
		return Bool(l.AsNumber() < r.AsNumber()), nil
	case tokLte:
		return Bool(l.AsNumber() <= r.AsNumber()), nil
	case tokGt:
		return Bool(l.AsNumber() > r.AsNumber()), nil
	case tokGte:
		return Bool(l.AsNumber() >= r.AsNumber()), nil
	case tokEq:
		return Bool(valuesEqual(l, r)), nil
	case tokNeq:
		return Bool(!valuesEqual(l, r)), nil
	}
	return Value{}, fmt.Errorf("unsupported binary operator")
}

func valuesEqual(l, r Value) bool {
	if l.Kind == KindNumber && r.Kind == KindNumber {
		return l.Num == r.Num
	}
	if l.Kind == KindBool && r.Kind == KindBool {
		return l.Bool == r.Bool
	}
	if l.Kind == KindString && r.Kind == KindString {
		return l.Str == r.Str
	}
	return false
}

func (ev *Evaluator) evalCall(t callExpr) (Value, error) {
	args := make([]Value, len(t.args))
	for i, a := range t.args {
		v, err := ev.evalNode(a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	switch t.name {
	case "depth":
		return ev.intrinsicDepth(args), nil
	case "area":
		return ev.intrinsicArea(args), nil
	case "frame":
		return ev.intrinsicFrame(args), nil
	case "len":
		return ev.intrinsicLen(args), nil
	case "center":
		return ev.intrinsicCenter(args), nil
	case "circle_metrics":
		return ev.intrinsicCircleMetrics(args), nil
	case "group_index":
		return ev.intrinsicGroupIndex(args)
	case "distance":
		return ev.intrinsicDistance(args), nil
	}
	return Value{}, fmt.Errorf("unknown intrinsic %q", t.name)
}

func (ev *Evaluator) intrinsicDepth(args []Value) Value {
	if len(args) < 1 || args[0].Kind != KindNumber {
		return Number(0)
	}
	d, ok := ev.store.Depth(int(args[0].Num))
	if !ok {
		return Number(0)
	}
	return Number(float64(d))
}

func (ev *Evaluator) intrinsicArea(args []Value) Value {
	polys := ev.selectPolygons(args)
	return Number(geomx.AreaSum(polys))
}

func (ev *Evaluator) intrinsicFrame(args []Value) Value {
	polys := ev.selectPolygons(args)
	rect, ok := geomx.UnionBoundingRect(polys)
	if !ok {
		return Number(0)
	}
	return Record(map[string]float64{
		"min_x":  rect.MinX,
		"min_y":  rect.MinY,
		"max_x":  rect.MaxX,
		"max_y":  rect.MaxY,
		"width":  rect.Width(),
		"height": rect.Height(),
	})
}

func (ev *Evaluator) intrinsicLen(args []Value) Value {
	if len(args) >= 1 && args[0].Kind == KindNumber {
		p, ok := ev.store.Polygon(int(args[0].Num))
		if !ok {
			return Number(0)
		}
		return Number(float64(1 + p.NumInteriorRings()))
	}
	if len(args) == 3 && args[0].Kind == KindString && args[1].Kind == KindNumber && args[2].Kind == KindNumber {
		group, ok := ev.store.Group(args[0].Str)
		if !ok {
			return Number(0)
		}
		i, j := int(args[1].Num), int(args[2].Num)
		if i < 0 || i >= len(group) || j < 0 || j >= len(group[i]) {
			return Number(0)
		}
		p, ok := ev.store.Polygon(group[i][j])
		if !ok {
			return Number(0)
		}
		return Number(float64(1 + p.NumInteriorRings()))
	}
	if len(args) == 2 && args[0].Kind == KindString && args[1].Kind == KindNumber {
		group, ok := ev.store.Group(args[0].Str)
		if !ok {
			return Number(0)
		}
		i := int(args[1].Num)
		if i < 0 || i >= len(group) {
			return Number(0)
		}
		return Number(float64(len(group[i])))
	}
	if len(args) == 1 && args[0].Kind == KindString {
		group, ok := ev.store.Group(args[0].Str)
		if !ok {
			return Number(0)
		}
		return Number(float64(len(group)))
	}
	return Number(0)
}

func (ev *Evaluator) intrinsicCenter(args []Value) Value {
	polys := ev.selectPolygons(args)
	c, ok := geomx.Centroid(polys)
	if !ok {
		return Number(0)
	}
	return Record(map[string]float64{"x": c.X, "y": c.Y})
}

func (ev *Evaluator) intrinsicCircleMetrics(args []Value) Value {
	polys := ev.selectPolygons(args)
	variance, circle, ok := geomx.CircleMetrics(polys)
	if !ok {
		return Number(0)
	}
	return Record(map[string]float64{"variance": variance, "circle": circle})
}

func (ev *Evaluator) intrinsicGroupIndex(args []Value) (Value, error) {
	if len(args) != 3 || args[0].Kind != KindString || args[1].Kind != KindNumber || args[2].Kind != KindNumber {
		return Number(0), nil
	}
	group, ok := ev.store.Group(args[0].Str)
	if !ok {
		return Value{}, fmt.Errorf("name not found in groups: %q", args[0].Str)
	}
	i := int(args[1].Num)
	if i < 0 || i >= len(group) {
		return Value{}, fmt.Errorf("index out of bounds")
	}
	j := int(args[2].Num)
	if j < 0 || j >= len(group[i]) {
		return Value{}, fmt.Errorf("index out of bounds")
	}
	return Number(float64(group[i][j])), nil
}

func (ev *Evaluator) intrinsicDistance(args []Value) Value {
	split := splitDistanceArgs(args)
	first := ev.selectPolygons(args[:split])
	second := ev.selectPolygons(args[split:])
	return Number(geomx.Distance(first, second))
}
