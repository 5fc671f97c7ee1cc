// Package explain walks a typed plan tree and produces the ordered cost
// explanation report, together with a structured outline for external
// renderers.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/operator"
	"github.com/mickamy/qplain/internal/stats"
)

// identity is the de-duplication key for explanatory text: operator type
// plus the reported row and cost estimates. It is a heuristic collision
// key, not a structural identity — two distinct nodes with coinciding
// numbers are reported once, by design. Suppression affects only the text;
// suppressed nodes are still walked and their descendants judged
// independently.
type identity struct {
	nodeType  string
	planRows  float64
	rowsValid bool
	totalCost float64
	costValid bool
}

func identityOf(n *model.PlanNode) identity {
	return identity{
		nodeType:  n.NodeType,
		planRows:  n.PlanRows.Value,
		rowsValid: n.PlanRows.Valid,
		totalCost: n.TotalCost.Value,
		costValid: n.TotalCost.Valid,
	}
}

// Engine renders plan trees. It is safe for reuse across plans; the
// visited set is per call.
type Engine struct {
	registry *operator.Registry
	provider stats.Provider
	cfg      config.Config
}

// New builds an engine over the given registry and statistics provider.
func New(registry *operator.Registry, provider stats.Provider, cfg config.Config) *Engine {
	return &Engine{registry: registry, provider: provider, cfg: cfg}
}

// Explain walks the tree depth-first in pre-order and returns the text
// report plus the structured outline, produced in the same walk. Re-running
// it over an unchanged tree with unchanged statistics yields byte-identical
// output.
func (e *Engine) Explain(ctx context.Context, root *model.PlanNode) (string, *model.Outline, error) {
	if root == nil {
		return "", nil, errors.New("explain: empty plan")
	}

	var b strings.Builder
	visited := map[identity]struct{}{}
	outline := e.walk(ctx, &b, root, 0, visited)
	return b.String(), outline, nil
}

func (e *Engine) walk(ctx context.Context, b *strings.Builder, node *model.PlanNode, depth int, visited map[identity]struct{}) *model.Outline {
	behavior := e.registry.Lookup(node.NodeType)
	est := behavior.Cost(ctx, node, e.provider)

	out := &model.Outline{
		Label:       node.Label(),
		NodeType:    node.NodeType,
		Relation:    node.RelationName,
		Index:       node.IndexName,
		Depth:       depth,
		StartupCost: node.StartupCost,
		TotalCost:   node.TotalCost,
		PlanRows:    node.PlanRows,
		PlanWidth:   node.PlanWidth,
		Formula:     est.Formula,
	}
	if est.Available() {
		out.ManualCost = model.Some(est.Value)
	}

	id := identityOf(node)
	if _, seen := visited[id]; seen {
		out.Suppressed = true
	} else {
		visited[id] = struct{}{}
		indent := strings.Repeat("    ", depth)
		fmt.Fprintf(b, "%sNode Type: %s\n", indent, node.Label())
		fmt.Fprintf(b, "%sCost: startup %s, total %s | rows %s | width %s\n",
			indent, node.StartupCost, node.TotalCost, node.PlanRows, node.PlanWidth)
		for _, line := range strings.Split(behavior.Describe(node, est), "\n") {
			fmt.Fprintf(b, "%s%s\n", indent, line)
		}
	}

	for _, child := range node.Children {
		out.Children = append(out.Children, e.walk(ctx, b, child, depth+1, visited))
	}
	return out
}
