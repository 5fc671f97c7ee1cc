// Package diff compares the cost pictures of two analyzed plans, grouping
// nodes by operator signature and reporting where the planner's estimates
// or the manual formulas moved.
package diff

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mickamy/qplain/internal/analyzer"
	"github.com/mickamy/qplain/internal/model"
)

// Options configures the diff sensitivity.
type Options struct {
	// MinDeltaCost filters out signature groups whose reported cost moved
	// less than this amount in either direction.
	MinDeltaCost float64
	MaxItems     int
}

// Entry captures the delta for all nodes sharing one signature.
type Entry struct {
	Signature      string  `json:"signature"`
	BaseReported   float64 `json:"base_reported"`
	TargetReported float64 `json:"target_reported"`
	DeltaReported  float64 `json:"delta_reported"`
	BaseManual     float64 `json:"base_manual"`
	TargetManual   float64 `json:"target_manual"`
	DeltaManual    float64 `json:"delta_manual"`
	BaseNodes      int     `json:"base_nodes"`
	TargetNodes    int     `json:"target_nodes"`
}

// Report summarises the delta between two analyses.
type Report struct {
	BaseNodeCount   int     `json:"base_node_count"`
	TargetNodeCount int     `json:"target_node_count"`
	Regressions     []Entry `json:"regressions"`
	Improvements    []Entry `json:"improvements"`
}

// Compare builds a diff report for two analyses.
func Compare(base, target *analyzer.Report, opts Options) (*Report, error) {
	if base == nil || base.Outline == nil {
		return nil, fmt.Errorf("diff: base report missing")
	}
	if target == nil || target.Outline == nil {
		return nil, fmt.Errorf("diff: target report missing")
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 8
	}

	baseAgg := aggregate(base.Outline)
	targetAgg := aggregate(target.Outline)

	report := &Report{
		BaseNodeCount:   base.NodeCount,
		TargetNodeCount: target.NodeCount,
	}
	for _, sig := range unionKeys(baseAgg, targetAgg) {
		entry := buildEntry(sig, baseAgg[sig], targetAgg[sig])
		if math.Abs(entry.DeltaReported) < opts.MinDeltaCost && math.Abs(entry.DeltaManual) < opts.MinDeltaCost {
			continue
		}
		if entry.DeltaReported > 0 || (entry.DeltaReported == 0 && entry.DeltaManual > 0) {
			report.Regressions = append(report.Regressions, entry)
		} else {
			report.Improvements = append(report.Improvements, entry)
		}
	}

	sort.Slice(report.Regressions, func(i, j int) bool {
		return report.Regressions[i].DeltaReported > report.Regressions[j].DeltaReported
	})
	sort.Slice(report.Improvements, func(i, j int) bool {
		return report.Improvements[i].DeltaReported < report.Improvements[j].DeltaReported
	})
	if len(report.Regressions) > opts.MaxItems {
		report.Regressions = report.Regressions[:opts.MaxItems]
	}
	if len(report.Improvements) > opts.MaxItems {
		report.Improvements = report.Improvements[:opts.MaxItems]
	}
	return report, nil
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# qplain diff\n\n")
	fmt.Fprintf(&b, "Nodes: %d → %d\n\n", r.BaseNodeCount, r.TargetNodeCount)

	writeSection(&b, "Regressions", r.Regressions)
	writeSection(&b, "Improvements", r.Improvements)
	return b.String()
}

// JSON marshals the report into an indented JSON document.
func (r *Report) JSON() ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("nil report")
	}
	return json.MarshalIndent(r, "", "  ")
}

func writeSection(b *strings.Builder, title string, entries []Entry) {
	fmt.Fprintf(b, "## %s\n", title)
	if len(entries) == 0 {
		b.WriteString("- None above threshold\n\n")
		return
	}
	b.WriteString("| Operator | Reported cost | Δ reported | Manual cost | Δ manual |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, entry := range entries {
		fmt.Fprintf(b, "| %s | %.2f → %.2f | %+.2f | %.2f → %.2f | %+.2f |\n",
			entry.Signature,
			entry.BaseReported, entry.TargetReported, entry.DeltaReported,
			entry.BaseManual, entry.TargetManual, entry.DeltaManual)
	}
	b.WriteString("\n")
}

type aggregated struct {
	Reported float64
	Manual   float64
	Nodes    int
}

func aggregate(root *model.Outline) map[string]aggregated {
	result := map[string]aggregated{}
	root.Walk(func(o *model.Outline) {
		sig := signature(o)
		entry := result[sig]
		if o.TotalCost.Valid {
			entry.Reported += o.TotalCost.Value
		}
		if o.ManualCost.Valid {
			entry.Manual += o.ManualCost.Value
		}
		entry.Nodes++
		result[sig] = entry
	})
	return result
}

func signature(o *model.Outline) string {
	parts := []string{o.NodeType}
	if o.Relation != "" {
		parts = append(parts, o.Relation)
	}
	if o.Index != "" {
		parts = append(parts, o.Index)
	}
	return strings.Join(parts, " · ")
}

func unionKeys(base, target map[string]aggregated) []string {
	seen := map[string]struct{}{}
	for k := range base {
		seen[k] = struct{}{}
	}
	for k := range target {
		seen[k] = struct{}{}
	}
	all := make([]string, 0, len(seen))
	for k := range seen {
		all = append(all, k)
	}
	sort.Strings(all)
	return all
}

func buildEntry(sig string, base, target aggregated) Entry {
	return Entry{
		Signature:      sig,
		BaseReported:   base.Reported,
		TargetReported: target.Reported,
		DeltaReported:  target.Reported - base.Reported,
		BaseManual:     base.Manual,
		TargetManual:   target.Manual,
		DeltaManual:    target.Manual - base.Manual,
		BaseNodes:      base.Nodes,
		TargetNodes:    target.Nodes,
	}
}
