package operator

import (
	"context"
	"errors"
	"fmt"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/cost"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/stats"
)

var errNoFormula = errors.New("no manual cost formula for this operator type")

// generic is the fallback for operator types without a dedicated behavior.
// It reports the node type, cost range, and row/width estimates and carries
// no specialized formula. An unknown operator type is not an error.
type generic struct {
	cfg config.CostConfig
}

func (g generic) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return decode(attrs, children)
}

func (g generic) Cost(ctx context.Context, node *model.PlanNode, provider stats.Provider) cost.Estimate {
	return cost.Unavailable("(generic)", errNoFormula)
}

func (g generic) Describe(node *model.PlanNode, est cost.Estimate) string {
	return fmt.Sprintf("Generic operator %q: cost %s..%s, rows %s, width %s; no manual formula registered",
		node.NodeType, node.StartupCost, node.TotalCost, node.PlanRows, node.PlanWidth)
}
