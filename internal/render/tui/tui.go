// Package tui renders a cost report as an ASCII tree: one line per plan
// node with the reported and manual costs and a divergence bar.
package tui

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mickamy/qplain/internal/analyzer"
	"github.com/mickamy/qplain/internal/insight"
	"github.com/mickamy/qplain/internal/model"
)

// Options controls how the TUI renderer behaves.
type Options struct {
	EnableColor bool
	MaxDepth    int
	BarWidth    int
}

// Render prints the outline tree with reported-vs-manual cost columns.
func Render(w io.Writer, report *analyzer.Report, opts Options) error {
	if w == nil {
		return errors.New("tui: writer is nil")
	}
	if report == nil || report.Outline == nil {
		return errors.New("tui: empty report")
	}
	if opts.BarWidth <= 0 {
		opts.BarWidth = 20
	}

	_, _ = fmt.Fprintf(w, "Nodes %d | diverging %d | formulas unavailable %d | duplicates suppressed %d\n",
		report.NodeCount, len(report.Divergences), report.UnavailableCount, report.SuppressedCount)
	if report.ExecutionTimeMs > 0 || report.PlanningTimeMs > 0 {
		_, _ = fmt.Fprintf(w, "Execution %.3f ms (planning %.3f ms)\n", report.ExecutionTimeMs, report.PlanningTimeMs)
	}
	_, _ = fmt.Fprintln(w)

	renderInsights(w, report)

	_, _ = fmt.Fprintf(w, "%s\n", renderLine(report.Outline, opts))
	printChildren(w, report.Outline, "", opts)
	return nil
}

func printChildren(w io.Writer, parent *model.Outline, prefix string, opts Options) {
	for i, child := range parent.Children {
		renderBranch(w, child, prefix, i == len(parent.Children)-1, opts)
	}
}

func renderBranch(w io.Writer, node *model.Outline, prefix string, isLast bool, opts Options) {
	connector := "|-- "
	childPrefix := prefix + "|   "
	if isLast {
		connector = "`-- "
		childPrefix = prefix + "    "
	}

	_, _ = fmt.Fprintf(w, "%s%s%s\n", prefix, connector, renderLine(node, opts))

	if opts.MaxDepth > 0 && node.Depth >= opts.MaxDepth {
		if len(node.Children) > 0 {
			_, _ = fmt.Fprintf(w, "%s`-- ... (%d more nodes)\n", childPrefix, node.Count()-1)
		}
		return
	}
	printChildren(w, node, childPrefix, opts)
}

func renderLine(node *model.Outline, opts Options) string {
	parts := []string{node.Label, fmt.Sprintf("reported %s", node.TotalCost)}

	if node.ManualCost.Valid {
		parts = append(parts, fmt.Sprintf("manual %s = %s", node.Formula, node.ManualCost))
		ratio := costRatio(node)
		bar := drawBar(ratio, opts.BarWidth)
		if opts.EnableColor {
			bar = applyColor(bar, pickColor(ratio))
		}
		parts = append(parts, fmt.Sprintf("x%.2f %s", ratio, bar))
	} else {
		parts = append(parts, "manual n/a")
	}

	line := strings.Join(parts, " | ")
	if node.Suppressed {
		line += " (duplicate)"
	}
	return line
}

func renderInsights(w io.Writer, report *analyzer.Report) {
	messages := insight.BuildMessages(report)
	if len(messages) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "Insights:")
	for _, msg := range messages {
		_, _ = fmt.Fprintf(w, "  - %s %s\n", severityIcon(msg.Severity), msg.Text)
	}
	_, _ = fmt.Fprintln(w)
}

func costRatio(node *model.Outline) float64 {
	if !node.ManualCost.Valid || !node.TotalCost.Valid || node.TotalCost.Value == 0 {
		return 0
	}
	return node.ManualCost.Value / node.TotalCost.Value
}

// drawBar maps the manual/reported ratio onto a bar: half full at parity,
// full from a 2x overshoot upward.
func drawBar(ratio float64, width int) string {
	if width <= 0 {
		return ""
	}
	clamped := ratio / 2
	if clamped < 0 || math.IsNaN(clamped) {
		clamped = 0
	}
	if clamped > 1 {
		clamped = 1
	}
	fill := int(math.Round(clamped * float64(width)))
	if clamped > 0 && fill == 0 {
		fill = 1
	}
	if fill > width {
		fill = width
	}
	return strings.Repeat("#", fill) + strings.Repeat("-", width-fill)
}

func pickColor(ratio float64) string {
	if ratio <= 0 {
		return ""
	}
	weight := ratio
	if weight < 1 {
		weight = 1 / weight
	}
	switch {
	case weight >= 10:
		return "red"
	case weight >= 2:
		return "yellow"
	case weight > 1.1:
		return "cyan"
	default:
		return ""
	}
}

func applyColor(text, color string) string {
	code := ""
	switch color {
	case "red":
		code = "\033[31m"
	case "yellow":
		code = "\033[33m"
	case "cyan":
		code = "\033[36m"
	default:
		return text
	}
	return code + text + "\033[0m"
}

func severityIcon(sev insight.Severity) string {
	switch sev {
	case insight.SeverityCritical:
		return "🔥"
	case insight.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}
