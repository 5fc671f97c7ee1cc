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
	seqScanRationale     = "the planner prices per-tuple CPU and filter evaluation on top of raw page reads"
	indexScanRationale   = "the planner accounts for B-tree descent, heap visits, and physical correlation of the index"
	indexOnlyRationale   = "an index-only scan can skip heap visits entirely when the visibility map allows it"
	bitmapIndexRationale = "the bitmap build touches index pages only; the planner prices it by matching entries, not reads per key"
	bitmapHeapRationale  = "the planner models the actual bitmap density instead of a fixed reduced-access factor"
)

// seqScan prices a full relation read at B(R) pages.
type seqScan struct {
	cfg config.CostConfig
}

func (s seqScan) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (s seqScan) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "B(R)"
	if node.RelationName == "" {
		return cost.Unavailable(formula, errNoRelation)
	}
	rel, err := provider.RelationStats(ctx, node.RelationName)
	if err != nil {
		return cost.Unavailable(formula, err)
	}

	est := cost.Estimate{
		Formula: formula,
		Value:   rel.Pages,
		Detail:  fmt.Sprintf("relation %q: %.0f rows, %.0f pages", node.RelationName, rel.Rows, rel.Pages),
	}
	if node.Filter != "" {
		sel := cost.Selectivity(ctx, node.Filter, s.cfg.RangeSelectivity, cost.DistinctFor(provider, node.RelationName))
		est.Detail += fmt.Sprintf(", filter selectivity %.3f", sel)
	}
	return est
}

func (s seqScan) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, seqScanRationale, s.cfg.DivergenceEpsilon)
}

// indexScan prices an index lookup at T(R)/V(R,a): tuples read through the
// index over the distinct-value count of the keyed attribute. It also backs
// Index Only Scan and Bitmap Index Scan, which differ only in rationale.
type indexScan struct {
	cfg       config.CostConfig
	rationale string
}

func (s indexScan) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (s indexScan) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "T(R) / V(R,a)"
	if node.IndexName == "" {
		return cost.Unavailable(formula, errNoIndex)
	}
	idx, err := provider.IndexStats(ctx, node.IndexName)
	if err != nil {
		return cost.Unavailable(formula, err)
	}

	cond := node.IndexCond
	if cond == "" {
		cond = node.Filter
	}
	attr := cost.PredicateAttribute(cond)
	if attr == "" {
		return cost.Unavailable(formula, fmt.Errorf("no keyed attribute in condition %q", cond))
	}
	v, err := provider.DistinctCount(ctx, node.RelationName, attr)
	if err != nil {
		return cost.Unavailable(formula, err)
	}
	if v <= 0 {
		return cost.Unavailable(formula, errZeroDistinct)
	}

	return cost.Estimate{
		Formula: formula,
		Value:   idx.TuplesRead / v,
		Detail: fmt.Sprintf("index %q: %d scans, %.0f tuples read; V(%s) = %.0f",
			node.IndexName, idx.Scans, idx.TuplesRead, attr, v),
	}
}

func (s indexScan) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, s.rationale, s.cfg.DivergenceEpsilon)
}

// bitmapHeapScan prices the heap pass at B(R) scaled by the reduced-access
// factor: the bitmap lets the scan skip pages with no matching tuples.
type bitmapHeapScan struct {
	cfg config.CostConfig
}

func (s bitmapHeapScan) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (s bitmapHeapScan) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	formula := fmt.Sprintf("B(R) x %.2f", s.cfg.BitmapReduction)
	if node.RelationName == "" {
		return cost.Unavailable(formula, errNoRelation)
	}
	rel, err := provider.RelationStats(ctx, node.RelationName)
	if err != nil {
		return cost.Unavailable(formula, err)
	}
	return cost.Estimate{
		Formula: formula,
		Value:   rel.Pages * s.cfg.BitmapReduction,
		Detail:  fmt.Sprintf("relation %q: %.0f pages, reduced-access factor %.2f", node.RelationName, rel.Pages, s.cfg.BitmapReduction),
	}
}

func (s bitmapHeapScan) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, bitmapHeapRationale, s.cfg.DivergenceEpsilon)
}
