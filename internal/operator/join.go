package operator

import (
	"context"
	"fmt"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/cost"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/stats"
)

const (
	nestedLoopRationale = "the engine may cache or parameterize the inner relation instead of rescanning it at full cost"
	mergeJoinRationale  = "already-sorted inputs let the engine skip the sort passes the textbook formula charges"
	hashJoinRationale   = "an in-memory hash table needs one pass over each input, not the three passes of the Grace hash model"
)

// nestedLoop prices the join as one outer pass plus one full inner pass per
// outer row.
type nestedLoop struct {
	cfg config.CostConfig
}

func (j nestedLoop) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (j nestedLoop) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "C(outer) + |outer| x C(inner)"
	outerCost, err := inputCost(node.Outer())
	if err != nil {
		return cost.Unavailable(formula, fmt.Errorf("outer: %w", err))
	}
	outerRows, err := inputRows(node.Outer())
	if err != nil {
		return cost.Unavailable(formula, fmt.Errorf("outer: %w", err))
	}
	innerCost, err := inputCost(node.Inner())
	if err != nil {
		return cost.Unavailable(formula, fmt.Errorf("inner: %w", err))
	}
	return cost.Estimate{
		Formula: formula,
		Value:   outerCost + outerRows*innerCost,
		Detail:  fmt.Sprintf("outer cost %.2f, outer rows %.0f, inner cost %.2f", outerCost, outerRows, innerCost),
	}
}

func (j nestedLoop) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, nestedLoopRationale, j.cfg.DivergenceEpsilon)
}

// mergeJoin uses the classic sort-merge bound of three passes over each
// input.
type mergeJoin struct {
	cfg config.CostConfig
}

func (j mergeJoin) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (j mergeJoin) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "3 x (C(outer) + C(inner))"
	left, err := inputCost(node.Outer())
	if err != nil {
		return cost.Unavailable(formula, fmt.Errorf("outer: %w", err))
	}
	right, err := inputCost(node.Inner())
	if err != nil {
		return cost.Unavailable(formula, fmt.Errorf("inner: %w", err))
	}
	return cost.Estimate{
		Formula: formula,
		Value:   3 * (left + right),
		Detail:  fmt.Sprintf("outer cost %.2f, inner cost %.2f", left, right),
	}
}

func (j mergeJoin) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, mergeJoinRationale, j.cfg.DivergenceEpsilon)
}

// hashJoin uses the Grace hash bound of three passes over the block counts
// of both inputs. Block counts resolve to the scanned relation's page count
// when the catalog knows it, and fall back to the input's row estimate.
type hashJoin struct {
	cfg config.CostConfig
}

func (j hashJoin) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (j hashJoin) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "3 x (B(outer) + B(inner))"
	left, leftDetail, err := blockCount(ctx, node.Outer(), provider)
	if err != nil {
		return cost.Unavailable(formula, fmt.Errorf("outer: %w", err))
	}
	right, rightDetail, err := blockCount(ctx, node.Inner(), provider)
	if err != nil {
		return cost.Unavailable(formula, fmt.Errorf("inner: %w", err))
	}
	return cost.Estimate{
		Formula: formula,
		Value:   3 * (left + right),
		Detail:  fmt.Sprintf("outer %s, inner %s", leftDetail, rightDetail),
	}
}

// blockCount resolves the block count of a join input. The Hash build node
// is transparent: its single child carries the scanned relation.
func blockCount(ctx context.Context, child *model.PlanNode, provider stats.Provider) (float64, string, error) {
	if child == nil {
		return 0, "", errNoInput
	}
	if child.NodeType == "Hash" && len(child.Children) == 1 {
		child = child.Children[0]
	}
	if child.RelationName != "" {
		if rel, err := provider.RelationStats(ctx, child.RelationName); err == nil {
			return rel.Pages, fmt.Sprintf("B(%s) = %.0f", child.RelationName, rel.Pages), nil
		}
	}
	rows, err := inputRows(child)
	if err != nil {
		return 0, "", err
	}
	return rows, fmt.Sprintf("blocks ~ rows %.0f", rows), nil
}

func (j hashJoin) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, hashJoinRationale, j.cfg.DivergenceEpsilon)
}
