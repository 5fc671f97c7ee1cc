package operator

import (
	"errors"
	"fmt"

	"github.com/mickamy/qplain/internal/model"
)

var (
	errNoInput      = errors.New("operator has no input plan")
	errInputCost    = errors.New("input plan reports no total cost")
	errInputRows    = errors.New("input plan reports no row estimate")
	errNoRelation   = errors.New("relation name missing")
	errNoIndex      = errors.New("index name missing")
	errZeroDistinct = errors.New("distinct-value count is zero")
)

// inputCost returns the reported total cost of a child plan.
func inputCost(child *model.PlanNode) (float64, error) {
	if child == nil {
		return 0, errNoInput
	}
	if !child.TotalCost.Valid {
		return 0, errInputCost
	}
	return child.TotalCost.Value, nil
}

// inputRows returns the reported row estimate of a child plan.
func inputRows(child *model.PlanNode) (float64, error) {
	if child == nil {
		return 0, errNoInput
	}
	if !child.PlanRows.Valid {
		return 0, errInputRows
	}
	return child.PlanRows.Value, nil
}

// sumInputCosts adds the reported total cost of every child plan.
func sumInputCosts(node *model.PlanNode) (float64, error) {
	if len(node.Children) == 0 {
		return 0, errNoInput
	}
	var sum float64
	for i, child := range node.Children {
		c, err := inputCost(child)
		if err != nil {
			return 0, fmt.Errorf("input %d: %w", i, err)
		}
		sum += c
	}
	return sum, nil
}
