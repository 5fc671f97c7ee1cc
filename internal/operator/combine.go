package operator

import (
	"context"
	"fmt"
	"math"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/cost"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/stats"
)

const (
	gatherRationale        = "workers run in parallel, so the engine reports elapsed cost rather than summed work"
	gatherMergeRationale   = "parallel workers overlap their work and the engine prices the merge by rows, not by input count"
	appendRationale        = "the planner can prune or reorder branches at runtime instead of paying every child in full"
	mergeAppendRationale   = "the planner prices the ordered merge by comparison count, not a per-input overhead"
	bitmapCombineRationale = "bitmap intersection is priced by bitmap density, not by summed child costs"
)

// combiner covers operators whose manual cost is the sum of their inputs:
// Gather, Append, BitmapAnd/Or, and their merging variants, which add an
// n*log2(n) ordering overhead for n inputs.
type combiner struct {
	cfg       config.CostConfig
	merge     bool
	rationale string
}

func (c combiner) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (c combiner) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	formula := "sum C(input)"
	if c.merge {
		formula = "sum C(input) + n x log2(n)"
	}
	sum, err := sumInputCosts(node)
	if err != nil {
		return cost.Unavailable(formula, err)
	}

	value := sum
	detail := fmt.Sprintf("%d input(s), summed cost %.2f", len(node.Children), sum)
	if c.merge && len(node.Children) > 1 {
		n := float64(len(node.Children))
		overhead := n * math.Log2(n)
		value += overhead
		detail += fmt.Sprintf(", merge overhead %.2f", overhead)
	}
	return cost.Estimate{Formula: formula, Value: value, Detail: detail}
}

func (c combiner) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, c.rationale, c.cfg.DivergenceEpsilon)
}
