// Package parser turns raw EXPLAIN (FORMAT JSON) documents into the typed
// plan tree, instantiating every node through the operator registry.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/operator"
)

// ErrMalformedPlan reports a plan document whose shape cannot be
// interpreted: a missing operator-type field or a non-object node. It is
// fatal for the whole analysis; no partial tree is returned.
var ErrMalformedPlan = errors.New("malformed plan")

// ParseJSON reads an EXPLAIN (FORMAT JSON) document (list-wrapped, as
// PostgreSQL emits it, or a bare object) and builds the typed plan tree.
func ParseJSON(r io.Reader, registry *operator.Registry) (*model.Explain, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode explain json: %w: %v", ErrMalformedPlan, err)
	}

	entry, err := pickFirstEntry(payload)
	if err != nil {
		return nil, err
	}

	planVal, ok := entry["Plan"]
	if !ok {
		// Some callers hand us the plan object directly.
		planVal = any(entry)
	}
	planMap, err := asObject(planVal)
	if err != nil {
		return nil, fmt.Errorf("explain json: invalid Plan root: %w", ErrMalformedPlan)
	}

	root, err := BuildTree(planMap, registry)
	if err != nil {
		return nil, err
	}

	explain := &model.Explain{
		Plan:          root,
		PlanningTime:  asFloat(entry["Planning Time"]),
		ExecutionTime: asFloat(entry["Execution Time"]),
		Extra:         map[string]any{},
	}
	for k, v := range entry {
		switch k {
		case "Plan", "Planning Time", "Execution Time":
			continue
		}
		explain.Extra[k] = v
	}
	return explain, nil
}

// BuildTree constructs the typed tree from a raw plan object. It expands
// sub-plans with an explicit work list rather than recursion, so arbitrarily
// deep plans cannot exhaust the stack. Children keep their source order:
// for binary operators the first child is the outer relation.
func BuildTree(raw map[string]any, registry *operator.Registry) (*model.PlanNode, error) {
	root, err := buildNode(raw, registry)
	if err != nil {
		return nil, err
	}

	type pending struct {
		node *model.PlanNode
		raw  map[string]any
	}
	work := []pending{{node: root, raw: raw}}

	for len(work) > 0 {
		item := work[len(work)-1]
		work = work[:len(work)-1]

		for i, childVal := range asSlice(item.raw["Plans"]) {
			childMap, err := asObject(childVal)
			if err != nil {
				return nil, fmt.Errorf("sub-plan %d of %s: %w", i, item.node.NodeType, ErrMalformedPlan)
			}
			child, err := buildNode(childMap, registry)
			if err != nil {
				return nil, fmt.Errorf("sub-plan %d of %s: %w", i, item.node.NodeType, err)
			}
			item.node.Children = append(item.node.Children, child)
			work = append(work, pending{node: child, raw: childMap})
		}
	}
	return root, nil
}

func buildNode(raw map[string]any, registry *operator.Registry) (*model.PlanNode, error) {
	typeVal, ok := raw["Node Type"]
	if !ok {
		return nil, fmt.Errorf("node without operator type: %w", ErrMalformedPlan)
	}
	name, ok := typeVal.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("operator type %v: %w", typeVal, ErrMalformedPlan)
	}
	return registry.Lookup(name).Build(raw, nil), nil
}

func pickFirstEntry(payload any) (map[string]any, error) {
	switch v := payload.(type) {
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("explain json: empty payload: %w", ErrMalformedPlan)
		}
		obj, err := asObject(v[0])
		if err != nil {
			return nil, fmt.Errorf("explain json: invalid entry: %w", ErrMalformedPlan)
		}
		return obj, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("explain json: unexpected top-level type %T: %w", payload, ErrMalformedPlan)
	}
}

func asObject(val any) (map[string]any, error) {
	obj, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", val)
	}
	return obj, nil
}

func asSlice(val any) []any {
	s, _ := val.([]any)
	return s
}

func asFloat(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
