// Package insight derives severity-ranked observations from a cost report:
// the operators whose textbook estimate strays furthest from the planner's,
// and the parts of the plan the catalog could not price at all.
package insight

import (
	"fmt"
	"math"

	"github.com/mickamy/qplain/internal/analyzer"
	"github.com/mickamy/qplain/internal/config"
)

// Severity expresses the urgency of an insight message.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Message is one observation about a report.
type Message struct {
	Severity Severity
	Text     string
}

// BuildMessages derives ranked insight messages for a report. Divergences
// come first, largest gap first, then coverage notes.
func BuildMessages(report *analyzer.Report) []Message {
	if report == nil {
		return nil
	}
	cfg := config.Active().Report

	var out []Message
	for _, d := range report.Divergences {
		if len(out) >= cfg.MaxInsights {
			break
		}
		out = append(out, divergenceMessage(d, cfg))
	}

	if report.UnavailableCount > 0 {
		out = append(out, Message{
			Severity: SeverityInfo,
			Text: fmt.Sprintf("Statistics unavailable for %d node(s); their formulas degraded to \"not available\"",
				report.UnavailableCount),
		})
	}
	if report.SuppressedCount > 0 {
		out = append(out, Message{
			Severity: SeverityInfo,
			Text: fmt.Sprintf("%d duplicate node(s) share an identity with an earlier node and were not re-explained",
				report.SuppressedCount),
		})
	}

	return out
}

func divergenceMessage(d analyzer.Divergence, cfg config.ReportConfig) Message {
	text := fmt.Sprintf("Cost divergence: %s manual %s = %.2f vs reported %.2f", d.Label, d.Formula, d.Manual, d.Reported)
	if !math.IsInf(d.Ratio, 1) {
		text += fmt.Sprintf(" (x%.2f)", d.Ratio)
	}

	severity := SeverityInfo
	weight := d.Ratio
	if weight > 0 && weight < 1 {
		weight = 1 / weight
	}
	switch {
	case math.IsInf(d.Ratio, 1) || weight >= cfg.DivergenceCriticalRatio:
		severity = SeverityCritical
	case weight >= cfg.DivergenceWarnRatio:
		severity = SeverityWarning
	}
	return Message{Severity: severity, Text: text}
}
