// Package pipeline turns a JSON-encoded list of declarative queries
// into the []query.Query chain the shape store executes. Each element
// is a discriminated union tagged by its "type" field, the same shape
// the embedded glyph-layout descriptions the CLI driver accepts use.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/monksc/gel-go/internal/kerning"
	"github.com/monksc/gel-go/internal/query"
)

// rawQuery captures every field any built-in query might carry; which
// ones are meaningful is decided by Type.
type rawQuery struct {
	Type string `json:"type"`

	Set string `json:"set,omitempty"`
	Get string `json:"get,omitempty"`

	Code    string `json:"code,omitempty"`
	Compare string `json:"compare,omitempty"`

	Matrix []string `json:"matrix,omitempty"`

	Iter         string            `json:"iter,omitempty"`
	Instructions []json.RawMessage `json:"instructions,omitempty"`

	GetGroup       string `json:"get_group,omitempty"`
	BordersGroup   string `json:"borders_group,omitempty"`
	GetInnerShapes string `json:"get_inner_shapes,omitempty"`
	SetGroup       string `json:"set_group,omitempty"`
	SetInnerShapes string `json:"set_inner_shapes,omitempty"`
	Epsilon        string `json:"epsilon,omitempty"`
	Space          string `json:"space,omitempty"`
	RespectSpace   string `json:"respect_space,omitempty"`
	DisableIndex   bool   `json:"disable_index,omitempty"`
}

// Decode parses a JSON array of query descriptions into an executable
// chain, in order. An unrecognized "type" or malformed record is a
// decode error, not a silently skipped query.
func Decode(data []byte) ([]query.Query, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode query list: %w", err)
	}
	return decodeAll(raws)
}

func decodeAll(raws []json.RawMessage) ([]query.Query, error) {
	queries := make([]query.Query, 0, len(raws))
	for i, raw := range raws {
		q, err := decodeOne(raw)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func decodeOne(raw json.RawMessage) (query.Query, error) {
	var r rawQuery
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	switch r.Type {
	case "group_by":
		return &query.GroupBy{Set: r.Set, Get: r.Get, Code: r.Code}, nil
	case "filter":
		return &query.Filter{Set: r.Set, Get: r.Get, Code: r.Code}, nil
	case "sort":
		return &query.Sort{Set: r.Set, Get: r.Get, Compare: r.Compare}, nil
	case "transformation":
		var matrix [6]string
		if len(r.Matrix) != 6 {
			return nil, fmt.Errorf("transformation matrix needs 6 entries, got %d", len(r.Matrix))
		}
		copy(matrix[:], r.Matrix)
		return &query.Transformation{Set: r.Set, Get: r.Get, Matrix: matrix}, nil
	case "loop_over":
		instructions, err := decodeAll(r.Instructions)
		if err != nil {
			return nil, fmt.Errorf("loop_over instructions: %w", err)
		}
		return &query.LoopOver{Get: r.Get, Iter: r.Iter, Instructions: instructions}, nil
	case "kerning":
		return &kerning.Kerning{
			GetGroup:       r.GetGroup,
			BordersGroup:   r.BordersGroup,
			GetInnerShapes: r.GetInnerShapes,
			SetGroup:       r.SetGroup,
			SetInnerShapes: r.SetInnerShapes,
			Epsilon:        r.Epsilon,
			Space:          r.Space,
			RespectSpace:   r.RespectSpace,
			DisableIndex:   r.DisableIndex,
		}, nil
	default:
		return nil, fmt.Errorf("unknown query type %q", r.Type)
	}
}
