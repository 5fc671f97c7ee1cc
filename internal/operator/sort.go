package operator

import (
	"context"
	"fmt"
	"strings"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/cost"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/stats"
)

const sortRationale = "work_mem sizing and input ordering change how many passes the engine really needs"

// sortOp scales the reported total cost by a sort-method multiplier:
// external merge pays repeated passes, quicksort is the baseline, and a
// bounded heapsort touches only a fraction of the input.
type sortOp struct {
	cfg config.CostConfig
}

func (s sortOp) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (s sortOp) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "method multiplier x reported cost"
	if !node.TotalCost.Valid {
		return cost.Unavailable(formula, errInputCost)
	}

	method := strings.ToLower(node.SortMethod)
	multiplier := s.cfg.SortQuicksortMultiplier
	switch {
	case strings.Contains(method, "external"):
		multiplier = s.cfg.SortExternalMultiplier
	case strings.Contains(method, "heapsort"):
		multiplier = s.cfg.SortHeapsortMultiplier
	}

	detail := fmt.Sprintf("multiplier %.2f", multiplier)
	if node.SortMethod != "" {
		detail = fmt.Sprintf("sort method %q, %s", node.SortMethod, detail)
	}
	if len(node.SortKey) > 0 {
		detail += fmt.Sprintf(", keys (%s)", strings.Join(node.SortKey, ", "))
	}
	return cost.Estimate{
		Formula: formula,
		Value:   node.TotalCost.Value * multiplier,
		Detail:  detail,
	}
}

func (s sortOp) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, sortRationale, s.cfg.DivergenceEpsilon)
}
