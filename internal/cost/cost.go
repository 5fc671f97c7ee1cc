// Package cost carries the building blocks shared by the manual cost
// formulas: the Estimate value each formula produces, the textbook
// selectivity rules, and the comparison line against the cost the engine
// itself reported. The formulas are deliberate simplifications; when they
// disagree with the real optimizer the divergence is reported, not hidden.
package cost

import (
	"fmt"
	"math"
	"strings"

	"github.com/mickamy/qplain/internal/model"
)

// Estimate is the outcome of one manual cost formula.
type Estimate struct {
	// Formula names the textbook shape, e.g. "B(R)" or "3 x (B(S) + B(T))".
	Formula string
	Value   float64
	// Detail lists the inputs that fed the formula.
	Detail string
	// Err is non-nil when a required statistic was unavailable or a
	// denominator was zero; Value is meaningless then.
	Err error
}

// Unavailable builds a degraded estimate for a missing-statistics condition.
func Unavailable(formula string, err error) Estimate {
	return Estimate{Formula: formula, Err: err}
}

// Available reports whether the formula could be computed.
func (e Estimate) Available() bool {
	return e.Err == nil
}

// Diverges compares the manual value with the engine-reported cost under a
// relative tolerance. An unknown reported cost never counts as divergence.
func (e Estimate) Diverges(reported model.Metric, epsilon float64) bool {
	if !e.Available() || !reported.Valid {
		return false
	}
	scale := math.Max(math.Abs(reported.Value), 1)
	return math.Abs(e.Value-reported.Value) > epsilon*scale
}

// Line renders the manual-vs-reported comparison for the report. The
// rationale is operator specific and appears only when the costs diverge.
func (e Estimate) Line(reported model.Metric, rationale string, epsilon float64) string {
	var b strings.Builder
	if !e.Available() {
		fmt.Fprintf(&b, "Manual cost %s: not available (%v)", e.Formula, e.Err)
		return b.String()
	}
	fmt.Fprintf(&b, "Manual cost %s = %.2f vs reported %s", e.Formula, e.Value, reported)
	if e.Detail != "" {
		fmt.Fprintf(&b, " [%s]", e.Detail)
	}
	if rationale != "" && e.Diverges(reported, epsilon) {
		b.WriteString("\n")
		b.WriteString("Why they differ: ")
		b.WriteString(rationale)
	}
	return b.String()
}
