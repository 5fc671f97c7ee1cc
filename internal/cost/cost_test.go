package cost_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mickamy/qplain/internal/cost"
	"github.com/mickamy/qplain/internal/model"
)

func TestEstimateDiverges(t *testing.T) {
	est := cost.Estimate{Formula: "B(R)", Value: 90}

	assert.False(t, est.Diverges(model.Some(90), 0.005))
	assert.False(t, est.Diverges(model.Some(90.2), 0.005), "within relative tolerance")
	assert.True(t, est.Diverges(model.Some(120), 0.005))
	assert.False(t, est.Diverges(model.Metric{}, 0.005), "unknown reported cost never diverges")

	unavailable := cost.Unavailable("B(R)", errors.New("no stats"))
	assert.False(t, unavailable.Diverges(model.Some(90), 0.005))
}

func TestEstimateLineMatching(t *testing.T) {
	est := cost.Estimate{Formula: "B(R)", Value: 42, Detail: "relation \"items\": 500 rows, 42 pages"}

	line := est.Line(model.Some(42), "some rationale", 0.005)
	assert.Contains(t, line, "Manual cost B(R) = 42.00 vs reported 42.00")
	assert.Contains(t, line, "[relation \"items\": 500 rows, 42 pages]")
	assert.NotContains(t, line, "Why they differ", "matching costs carry no rationale")
}

func TestEstimateLineDiverging(t *testing.T) {
	est := cost.Estimate{Formula: "3 x (B(outer) + B(inner))", Value: 90}

	line := est.Line(model.Some(120.75), "the optimizer knows better", 0.005)
	assert.Contains(t, line, "Manual cost 3 x (B(outer) + B(inner)) = 90.00 vs reported 120.75")
	assert.Contains(t, line, "Why they differ: the optimizer knows better")
}

func TestEstimateLineUnavailable(t *testing.T) {
	est := cost.Unavailable("T(R) / V(R,a)", errors.New("index \"x\": stats: not found"))

	line := est.Line(model.Some(8.3), "rationale", 0.005)
	assert.Contains(t, line, "Manual cost T(R) / V(R,a): not available")
	assert.Contains(t, line, "not found")
	assert.NotContains(t, line, "Why they differ")
}
