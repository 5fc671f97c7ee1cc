package operator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/cost"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/operator"
	"github.com/mickamy/qplain/internal/stats"
	"github.com/mickamy/qplain/test"
)

func newRegistry() *operator.Registry {
	return operator.NewRegistry(config.Default())
}

func TestRegistryLookupAndFallback(t *testing.T) {
	r := newRegistry()

	assert.True(t, r.Known("Seq Scan"))
	assert.True(t, r.Known("Hash Join"))
	assert.False(t, r.Known("Custom Scan"))

	fallback := r.Lookup("Custom Scan")
	require.NotNil(t, fallback, "unknown operator type resolves to the generic behavior")

	node := fallback.Build(map[string]any{
		"Node Type":  "Custom Scan",
		"Total Cost": 12.5,
	}, nil)
	est := fallback.Cost(context.Background(), node, stats.Unavailable{})
	assert.False(t, est.Available())

	text := fallback.Describe(node, est)
	assert.Contains(t, text, `Generic operator "Custom Scan"`)
	assert.Contains(t, text, "no manual formula registered")
}

type constantCost struct {
	value float64
}

func (c constantCost) Build(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	return &model.PlanNode{NodeType: "Custom Scan", Children: children}
}

func (c constantCost) Cost(context.Context, *model.PlanNode, stats.Provider) cost.Estimate {
	return cost.Estimate{Formula: "const", Value: c.value}
}

func (c constantCost) Describe(*model.PlanNode, cost.Estimate) string {
	return "constant"
}

func TestRegistryRegisterReplaces(t *testing.T) {
	r := newRegistry()
	r.Register("Custom Scan", constantCost{value: 7})

	assert.True(t, r.Known("Custom Scan"))
	est := r.Lookup("Custom Scan").Cost(context.Background(), &model.PlanNode{}, stats.Unavailable{})
	require.True(t, est.Available())
	assert.Equal(t, 7.0, est.Value)
}

func TestSeqScanCost(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType:     "Seq Scan",
		RelationName: "orders",
		TotalCost:    model.Some(20),
	}

	est := r.Lookup("Seq Scan").Cost(context.Background(), node, test.SampleProvider())
	require.True(t, est.Available())
	assert.Equal(t, "B(R)", est.Formula)
	assert.Equal(t, 10.0, est.Value)
	assert.Contains(t, est.Detail, `relation "orders"`)
}

func TestSeqScanWithoutRelation(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{NodeType: "Seq Scan", TotalCost: model.Some(20)}

	est := r.Lookup("Seq Scan").Cost(context.Background(), node, test.SampleProvider())
	assert.False(t, est.Available())
	assert.Contains(t, r.Lookup("Seq Scan").Describe(node, est), "not available")
}

func TestHashJoinGraceBound(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType: "Hash Join",
		HashCond: "(orders.customer_id = customers.id)",
		Children: []*model.PlanNode{
			{
				NodeType:     "Seq Scan",
				RelationName: "orders",
				TotalCost:    model.Some(20),
				PlanRows:     model.Some(1000),
			},
			{
				NodeType:  "Hash",
				TotalCost: model.Some(45),
				PlanRows:  model.Some(2000),
				Children: []*model.PlanNode{
					{
						NodeType:     "Seq Scan",
						RelationName: "customers",
						TotalCost:    model.Some(40),
						PlanRows:     model.Some(2000),
					},
				},
			},
		},
	}

	est := r.Lookup("Hash Join").Cost(context.Background(), node, test.SampleProvider())
	require.True(t, est.Available())
	assert.Equal(t, "3 x (B(outer) + B(inner))", est.Formula)
	// 3 x (10 pages + 20 pages), the Hash build node being transparent.
	assert.Equal(t, 90.0, est.Value)
	assert.Contains(t, est.Detail, "B(orders) = 10")
	assert.Contains(t, est.Detail, "B(customers) = 20")
}

func TestHashJoinOverTwoSeqScans(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType: "Hash Join",
		Children: []*model.PlanNode{
			{NodeType: "Seq Scan", RelationName: "orders", TotalCost: model.Some(20), PlanRows: model.Some(1000)},
			{NodeType: "Seq Scan", RelationName: "customers", TotalCost: model.Some(40), PlanRows: model.Some(2000)},
		},
	}

	est := r.Lookup("Hash Join").Cost(context.Background(), node, test.SampleProvider())
	require.True(t, est.Available())
	assert.Equal(t, 90.0, est.Value)
}

func TestHashJoinFallsBackToRowEstimates(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType: "Hash Join",
		Children: []*model.PlanNode{
			{NodeType: "Seq Scan", RelationName: "orders", PlanRows: model.Some(1000), TotalCost: model.Some(20)},
			{NodeType: "Seq Scan", RelationName: "customers", PlanRows: model.Some(2000), TotalCost: model.Some(40)},
		},
	}

	est := r.Lookup("Hash Join").Cost(context.Background(), node, stats.Unavailable{})
	require.True(t, est.Available())
	assert.Equal(t, 3*(1000.0+2000.0), est.Value)
	assert.Contains(t, est.Detail, "blocks ~ rows")
}

func TestNestedLoopCost(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType: "Nested Loop",
		Children: []*model.PlanNode{
			{NodeType: "Seq Scan", TotalCost: model.Some(10), PlanRows: model.Some(5)},
			{NodeType: "Index Scan", TotalCost: model.Some(2), PlanRows: model.Some(1)},
		},
	}

	est := r.Lookup("Nested Loop").Cost(context.Background(), node, stats.Unavailable{})
	require.True(t, est.Available())
	assert.Equal(t, 10+5*2.0, est.Value)
}

func TestMergeJoinCost(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType: "Merge Join",
		Children: []*model.PlanNode{
			{NodeType: "Sort", TotalCost: model.Some(12), PlanRows: model.Some(5)},
			{NodeType: "Sort", TotalCost: model.Some(8), PlanRows: model.Some(5)},
		},
	}

	est := r.Lookup("Merge Join").Cost(context.Background(), node, stats.Unavailable{})
	require.True(t, est.Available())
	assert.Equal(t, 3*(12.0+8.0), est.Value)
}

func TestSortQuicksortMatchesReported(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType:   "Sort",
		SortMethod: "quicksort",
		TotalCost:  model.Some(42),
		Children: []*model.PlanNode{
			{NodeType: "Seq Scan", TotalCost: model.Some(30), PlanRows: model.Some(500)},
		},
	}

	behavior := r.Lookup("Sort")
	est := behavior.Cost(context.Background(), node, stats.Unavailable{})
	require.True(t, est.Available())
	assert.Equal(t, 42.0, est.Value)

	text := behavior.Describe(node, est)
	assert.Contains(t, text, "= 42.00 vs reported 42.00")
	assert.NotContains(t, text, "Why they differ", "matching costs carry no rationale")
}

func TestSortMethodMultipliers(t *testing.T) {
	r := newRegistry()
	behavior := r.Lookup("Sort")

	external := &model.PlanNode{NodeType: "Sort", SortMethod: "external merge", TotalCost: model.Some(100)}
	est := behavior.Cost(context.Background(), external, stats.Unavailable{})
	require.True(t, est.Available())
	assert.Equal(t, 300.0, est.Value)

	heap := &model.PlanNode{NodeType: "Sort", SortMethod: "top-N heapsort", TotalCost: model.Some(90)}
	est = behavior.Cost(context.Background(), heap, stats.Unavailable{})
	require.True(t, est.Available())
	assert.InDelta(t, 30.0, est.Value, 1e-9)
}

func TestIndexScanUsesTuplesOverDistinct(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType:     "Index Scan",
		RelationName: "items",
		IndexName:    "items_category_idx",
		IndexCond:    "(category = 'toys')",
		TotalCost:    model.Some(8),
	}

	est := r.Lookup("Index Scan").Cost(context.Background(), node, test.SampleProvider())
	require.True(t, est.Available())
	assert.Equal(t, "T(R) / V(R,a)", est.Formula)
	// 5000 tuples read over 25 distinct categories.
	assert.Equal(t, 200.0, est.Value)
}

func TestIndexScanMissingStatsDegrades(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType:     "Index Scan",
		RelationName: "archived_orders",
		IndexName:    "archived_orders_pkey",
		IndexCond:    "(id = 42)",
		TotalCost:    model.Some(8.3),
	}

	behavior := r.Lookup("Index Scan")
	est := behavior.Cost(context.Background(), node, test.SampleProvider())
	assert.False(t, est.Available())
	assert.Contains(t, behavior.Describe(node, est), "not available")
}

func TestBitmapHeapScanReducedAccess(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType:     "Bitmap Heap Scan",
		RelationName: "items",
		TotalCost:    model.Some(30),
	}

	est := r.Lookup("Bitmap Heap Scan").Cost(context.Background(), node, test.SampleProvider())
	require.True(t, est.Available())
	// 50 pages scaled by the 0.5 reduced-access factor.
	assert.Equal(t, 25.0, est.Value)
}

func TestGatherMergeAddsOrderingOverhead(t *testing.T) {
	r := newRegistry()
	children := []*model.PlanNode{
		{NodeType: "Sort", TotalCost: model.Some(10)},
		{NodeType: "Sort", TotalCost: model.Some(20)},
	}

	plain := r.Lookup("Gather").Cost(context.Background(), &model.PlanNode{NodeType: "Gather", Children: children}, stats.Unavailable{})
	require.True(t, plain.Available())
	assert.Equal(t, 30.0, plain.Value)

	merged := r.Lookup("Gather Merge").Cost(context.Background(), &model.PlanNode{NodeType: "Gather Merge", Children: children}, stats.Unavailable{})
	require.True(t, merged.Available())
	// 2 inputs add 2*log2(2) = 2 on top of the summed input cost.
	assert.InDelta(t, 32.0, merged.Value, 1e-9)
}

func TestLimitScalesByKeptFraction(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType: "Limit",
		PlanRows: model.Some(10),
		Children: []*model.PlanNode{
			{NodeType: "Seq Scan", TotalCost: model.Some(100), PlanRows: model.Some(1000)},
		},
	}

	est := r.Lookup("Limit").Cost(context.Background(), node, stats.Unavailable{})
	require.True(t, est.Available())
	assert.InDelta(t, 1.0, est.Value, 1e-9)
}

func TestPassThroughOperators(t *testing.T) {
	r := newRegistry()
	child := &model.PlanNode{NodeType: "Seq Scan", TotalCost: model.Some(40), PlanRows: model.Some(2000)}

	for _, name := range []string{"Hash", "Group", "Unique", "Memoize"} {
		node := &model.PlanNode{NodeType: name, TotalCost: model.Some(45), Children: []*model.PlanNode{child}}
		est := r.Lookup(name).Cost(context.Background(), node, stats.Unavailable{})
		require.True(t, est.Available(), name)
		assert.Equal(t, 40.0, est.Value, name)
	}
}

func TestAggregateAddsPerRowWork(t *testing.T) {
	r := newRegistry()
	node := &model.PlanNode{
		NodeType: "Aggregate",
		Strategy: "Hashed",
		GroupKey: []string{"items.category"},
		Children: []*model.PlanNode{
			{NodeType: "Seq Scan", TotalCost: model.Some(85), PlanRows: model.Some(10000)},
		},
	}

	est := r.Lookup("Aggregate").Cost(context.Background(), node, stats.Unavailable{})
	require.True(t, est.Available())
	assert.Equal(t, 85.0+10000.0, est.Value)
	assert.Contains(t, est.Detail, "hashed strategy")
}

func TestBuildDecodesTypedFields(t *testing.T) {
	r := newRegistry()
	node := r.Lookup("Seq Scan").Build(map[string]any{
		"Node Type":     "Seq Scan",
		"Relation Name": "orders",
		"Alias":         "o",
		"Filter":        "(total > 100)",
		"Startup Cost":  0.0,
		"Total Cost":    20.5,
		"Plan Rows":     1000.0,
		"Plan Width":    24.0,
		"Unknown Field": "kept aside",
	}, nil)

	assert.Equal(t, "Seq Scan", node.NodeType)
	assert.Equal(t, "orders", node.RelationName)
	assert.Equal(t, "(total > 100)", node.Filter)
	require.True(t, node.TotalCost.Valid)
	assert.Equal(t, 20.5, node.TotalCost.Value)
	assert.False(t, node.WorkersPlanned > 0)
	assert.Equal(t, "kept aside", node.Extra["Unknown Field"])
	assert.Equal(t, "Seq Scan on orders (o)", node.Label())
}

func TestBuildMissingMetricsStayUnknown(t *testing.T) {
	r := newRegistry()
	node := r.Lookup("Seq Scan").Build(map[string]any{"Node Type": "Seq Scan"}, nil)

	assert.False(t, node.TotalCost.Valid)
	assert.Equal(t, "unknown", node.TotalCost.String())
	assert.Equal(t, "unknown", node.PlanRows.String())
}
