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

const (
	hashRationale        = "building the table rides on the single input pass; the planner only adds hashing CPU"
	groupRationale       = "grouping sorted input is one comparison pass riding on the input cost"
	uniqueRationale      = "duplicate elimination over sorted input adds only per-row comparison CPU"
	memoizeRationale     = "cache hits let the engine skip most inner executions; the manual figure assumes a cold cache"
	aggregateRationale   = "hashed aggregation depends on group count and work_mem, which the single-pass model ignores"
	limitRationale       = "early-termination savings depend on whether the input pipeline can stop producing rows"
	materializeRationale = "the tuplestore may stay in memory, costing less than the modeled write pass"
)

// passThrough prices an operator at its input cost: the work rides on the
// pass the input already pays for. Hash, Group, Unique, and Memoize share
// it with operator-specific rationales.
type passThrough struct {
	cfg       config.CostConfig
	formula   string
	rationale string
}

func (p passThrough) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (p passThrough) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	c, err := inputCost(node.Outer())
	if err != nil {
		return cost.Unavailable(p.formula, err)
	}
	return cost.Estimate{
		Formula: p.formula,
		Value:   c,
		Detail:  fmt.Sprintf("input cost %.2f", c),
	}
}

func (p passThrough) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, p.rationale, p.cfg.DivergenceEpsilon)
}

// aggregate prices one accumulation pass: the input cost plus one unit of
// work per input row.
type aggregate struct {
	cfg config.CostConfig
}

func (a aggregate) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (a aggregate) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "C(input) + |input|"
	c, err := inputCost(node.Outer())
	if err != nil {
		return cost.Unavailable(formula, err)
	}
	rows, err := inputRows(node.Outer())
	if err != nil {
		return cost.Unavailable(formula, err)
	}

	detail := fmt.Sprintf("input cost %.2f, input rows %.0f", c, rows)
	if node.Strategy != "" {
		detail = fmt.Sprintf("%s strategy, %s", strings.ToLower(node.Strategy), detail)
	}
	if len(node.GroupKey) > 0 {
		detail += fmt.Sprintf(", group keys (%s)", strings.Join(node.GroupKey, ", "))
	}
	return cost.Estimate{Formula: formula, Value: c + rows, Detail: detail}
}

func (a aggregate) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, aggregateRationale, a.cfg.DivergenceEpsilon)
}

// limit prices the fraction of the input pipeline needed to produce the
// limited row count; blockers below keep the full input cost.
type limit struct {
	cfg config.CostConfig
}

func (l limit) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (l limit) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "C(input) x n/|input|"
	c, err := inputCost(node.Outer())
	if err != nil {
		return cost.Unavailable(formula, err)
	}
	rows, err := inputRows(node.Outer())
	if err != nil || rows <= 0 || !node.PlanRows.Valid {
		return cost.Estimate{
			Formula: "C(input)",
			Value:   c,
			Detail:  fmt.Sprintf("input cost %.2f", c),
		}
	}

	fraction := node.PlanRows.Value / rows
	if fraction > 1 {
		fraction = 1
	}
	return cost.Estimate{
		Formula: formula,
		Value:   c * fraction,
		Detail:  fmt.Sprintf("input cost %.2f, keeps %.0f of %.0f rows", c, node.PlanRows.Value, rows),
	}
}

func (l limit) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, limitRationale, l.cfg.DivergenceEpsilon)
}

// materialize prices the tuplestore write pass on top of the input cost.
type materialize struct {
	cfg config.CostConfig
}

func (m materialize) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (m materialize) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	const formula = "C(input) + |input|"
	c, err := inputCost(node.Outer())
	if err != nil {
		return cost.Unavailable(formula, err)
	}
	rows, err := inputRows(node.Outer())
	if err != nil {
		return cost.Unavailable(formula, err)
	}
	return cost.Estimate{
		Formula: formula,
		Value:   c + rows,
		Detail:  fmt.Sprintf("input cost %.2f, materialized rows %.0f", c, rows),
	}
}

func (m materialize) Describe(node *model.PlanNode, est cost.Estimate) string {
	return est.Line(node.TotalCost, materializeRationale, m.cfg.DivergenceEpsilon)
}
