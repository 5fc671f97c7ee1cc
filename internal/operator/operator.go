// Package operator maps plan operator-type names to the behavior that
// builds the typed node, computes its textbook cost, and explains the
// result. The registry is an explicit value: nothing is registered at
// import time, and adding an operator type never touches the builder or
// the traversal.
package operator

import (
	"context"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/cost"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/stats"
)

// Behavior is the capability set attached to one operator type.
type Behavior interface {
	// Build constructs the typed node from the raw attribute map and the
	// already-built children, in source order.
	Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode
	// Cost computes the manual textbook estimate, consulting live catalog
	// statistics. Missing statistics degrade the estimate, never fail it.
	Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate
	// Describe renders the cost-model explanation for the report body.
	Describe(node *model.PlanNode, est cost.Estimate) string
}

// Registry resolves operator-type names to behaviors. Unknown names resolve
// to a generic fallback, so an unrecognized operator is never an error.
type Registry struct {
	behaviors map[string]Behavior
	fallback  Behavior
}

// NewRegistry builds a registry with the default behavior set.
func NewRegistry(cfg config.Config) *Registry {
	c := cfg.Cost
	r := &Registry{
		behaviors: map[string]Behavior{},
		fallback:  generic{cfg: c},
	}

	r.Register("Seq Scan", seqScan{cfg: c})
	r.Register("Index Scan", indexScan{cfg: c, rationale: indexScanRationale})
	r.Register("Index Only Scan", indexScan{cfg: c, rationale: indexOnlyRationale})
	r.Register("Bitmap Index Scan", indexScan{cfg: c, rationale: bitmapIndexRationale})
	r.Register("Bitmap Heap Scan", bitmapHeapScan{cfg: c})
	r.Register("Nested Loop", nestedLoop{cfg: c})
	r.Register("Merge Join", mergeJoin{cfg: c})
	r.Register("Hash Join", hashJoin{cfg: c})
	r.Register("Hash", passThrough{cfg: c, formula: "C(input)", rationale: hashRationale})
	r.Register("Sort", sortOp{cfg: c})
	r.Register("Incremental Sort", sortOp{cfg: c})
	r.Register("Gather", combiner{cfg: c, rationale: gatherRationale})
	r.Register("Gather Merge", combiner{cfg: c, merge: true, rationale: gatherMergeRationale})
	r.Register("Append", combiner{cfg: c, rationale: appendRationale})
	r.Register("Merge Append", combiner{cfg: c, merge: true, rationale: mergeAppendRationale})
	r.Register("BitmapAnd", combiner{cfg: c, rationale: bitmapCombineRationale})
	r.Register("BitmapOr", combiner{cfg: c, rationale: bitmapCombineRationale})
	r.Register("Aggregate", aggregate{cfg: c})
	r.Register("Group", passThrough{cfg: c, formula: "C(input)", rationale: groupRationale})
	r.Register("Unique", passThrough{cfg: c, formula: "C(input)", rationale: uniqueRationale})
	r.Register("Limit", limit{cfg: c})
	r.Register("Materialize", materialize{cfg: c})
	r.Register("Memoize", passThrough{cfg: c, formula: "C(input)", rationale: memoizeRationale})

	return r
}

// Register associates an operator-type name with a behavior, replacing any
// previous association.
func (r *Registry) Register(name string, b Behavior) {
	r.behaviors[name] = b
}

// Lookup returns the behavior for the given operator-type name, or the
// generic fallback when none is registered.
func (r *Registry) Lookup(name string) Behavior {
	if b, ok := r.behaviors[name]; ok {
		return b
	}
	return r.fallback
}

// Known reports whether a dedicated behavior is registered for the name.
func (r *Registry) Known(name string) bool {
	_, ok := r.behaviors[name]
	return ok
}
