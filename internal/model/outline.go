package model

// Outline is the structured counterpart of the text report: one entry per
// plan node with the reported estimates and the manually computed cost.
// It is produced in the same walk as the text report so external renderers
// never need to re-traverse the plan.
type Outline struct {
	Label       string
	NodeType    string
	Relation    string
	Index       string
	Depth       int
	StartupCost Metric
	TotalCost   Metric
	PlanRows    Metric
	PlanWidth   Metric
	// ManualCost is invalid when the formula degraded to "not available".
	ManualCost Metric
	Formula    string
	Suppressed bool
	Children   []*Outline
}

// Walk visits the outline tree in pre-order.
func (o *Outline) Walk(fn func(*Outline)) {
	if o == nil {
		return
	}
	fn(o)
	for _, child := range o.Children {
		child.Walk(fn)
	}
}

// Count returns the number of entries in the subtree rooted at o.
func (o *Outline) Count() int {
	total := 0
	o.Walk(func(*Outline) { total++ })
	return total
}
