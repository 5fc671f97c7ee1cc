// Package analyzer orchestrates one analysis request: plan tree in, cost
// explanation report out, with a single categorized failure on fatal paths.
package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/explain"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/operator"
	"github.com/mickamy/qplain/internal/stats"
)

// Report is the result of one analysis: the ordered text explanation and
// the structured outline produced in the same walk, plus derived totals.
type Report struct {
	Text            string
	Outline         *model.Outline
	PlanningTimeMs  float64
	ExecutionTimeMs float64
	NodeCount       int
	SuppressedCount int
	// UnavailableCount counts nodes whose manual formula degraded to
	// "not available".
	UnavailableCount int
	Divergences      []Divergence
}

// Divergence records one node where the manual and reported costs disagree
// beyond the configured tolerance.
type Divergence struct {
	Label    string
	Formula  string
	Reported float64
	Manual   float64
	// Ratio is manual over reported, always >= 0.
	Ratio float64
}

// Analyze runs the explanation engine over a parsed plan and derives the
// report totals. A nil or empty plan is an internal fault.
func Analyze(ctx context.Context, doc *model.Explain, provider stats.Provider) (*Report, error) {
	if doc == nil || doc.Plan == nil {
		return nil, fmt.Errorf("analyzer: missing plan")
	}

	cfg := config.Active()
	registry := operator.NewRegistry(cfg)
	engine := explain.New(registry, provider, cfg)

	text, outline, err := engine.Explain(ctx, doc.Plan)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	report := &Report{
		Text:            text,
		Outline:         outline,
		PlanningTimeMs:  doc.PlanningTime,
		ExecutionTimeMs: doc.ExecutionTime,
	}

	epsilon := cfg.Cost.DivergenceEpsilon
	outline.Walk(func(o *model.Outline) {
		report.NodeCount++
		if o.Suppressed {
			report.SuppressedCount++
		}
		if !o.ManualCost.Valid {
			report.UnavailableCount++
			return
		}
		if !o.TotalCost.Valid {
			return
		}
		scale := math.Max(math.Abs(o.TotalCost.Value), 1)
		if math.Abs(o.ManualCost.Value-o.TotalCost.Value) <= epsilon*scale {
			return
		}
		report.Divergences = append(report.Divergences, Divergence{
			Label:    o.Label,
			Formula:  o.Formula,
			Reported: o.TotalCost.Value,
			Manual:   o.ManualCost.Value,
			Ratio:    divergenceRatio(o.ManualCost.Value, o.TotalCost.Value),
		})
	})

	sort.SliceStable(report.Divergences, func(i, j int) bool {
		return divergenceWeight(report.Divergences[i].Ratio) > divergenceWeight(report.Divergences[j].Ratio)
	})

	return report, nil
}

func divergenceRatio(manual, reported float64) float64 {
	if reported == 0 {
		if manual == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return manual / reported
}

// divergenceWeight orders ratios by how far they sit from 1 in either
// direction: x4 and x0.25 rank equally.
func divergenceWeight(ratio float64) float64 {
	if ratio <= 0 {
		return math.Inf(1)
	}
	return math.Abs(math.Log2(ratio))
}
