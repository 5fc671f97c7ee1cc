package model

import "fmt"

// Explain represents the root of a PostgreSQL execution plan document.
type Explain struct {
	Plan          *PlanNode
	PlanningTime  float64
	ExecutionTime float64
	// Extra carries additional top-level fields that we do not interpret.
	Extra map[string]any
}

// Metric is a numeric plan attribute that may be absent from the source
// document. Absence is a legal state and renders as "unknown", never zero.
type Metric struct {
	Value float64
	Valid bool
}

// Some wraps a known value.
func Some(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// String renders the metric for reports.
func (m Metric) String() string {
	if !m.Valid {
		return "unknown"
	}
	return fmt.Sprintf("%.2f", m.Value)
}

// PlanNode captures one operator in the execution plan tree. The tree is
// built once per analysis and is read-only afterwards.
type PlanNode struct {
	NodeType           string
	ParentRelationship string
	RelationName       string
	Schema             string
	Alias              string
	IndexName          string
	IndexCond          string
	RecheckCond        string
	Filter             string
	JoinType           string
	HashCond           string
	MergeCond          string
	Strategy           string
	SortMethod         string
	SortKey            []string
	GroupKey           []string
	StartupCost        Metric
	TotalCost          Metric
	PlanRows           Metric
	PlanWidth          Metric
	WorkersPlanned     float64
	// Extra carries node fields outside the typed set above.
	Extra map[string]any
	// Children are sub-plans in source order. For binary operators the
	// first child is the outer (left) input, the second the inner (right).
	Children []*PlanNode
}

// Label builds a short descriptive label, e.g. `Seq Scan on customer (c)`.
func (n *PlanNode) Label() string {
	if n == nil {
		return ""
	}
	label := n.NodeType
	if label == "" {
		label = "Unknown"
	}
	if n.RelationName != "" {
		label = fmt.Sprintf("%s on %s", label, n.RelationName)
		if n.Alias != "" && n.Alias != n.RelationName {
			label = fmt.Sprintf("%s (%s)", label, n.Alias)
		}
	} else if n.IndexName != "" {
		label = fmt.Sprintf("%s using %s", label, n.IndexName)
	}
	return label
}

// Outer returns the first child, conventionally the outer (left) relation.
func (n *PlanNode) Outer() *PlanNode {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Inner returns the second child, conventionally the inner (right) relation.
func (n *PlanNode) Inner() *PlanNode {
	if len(n.Children) < 2 {
		return nil
	}
	return n.Children[1]
}
