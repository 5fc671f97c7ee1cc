// Package html renders a cost report as a standalone HTML document.
package html

import (
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/mickamy/qplain/internal/analyzer"
	"github.com/mickamy/qplain/internal/insight"
	"github.com/mickamy/qplain/internal/model"
)

// Options controls the HTML output.
type Options struct {
	Title         string
	IncludeStyles bool
}

type templateData struct {
	Title         string
	IncludeStyles bool
	Summary       summaryView
	Root          *nodeView
	Divergent     []divergenceView
	Insights      []insightView
}

type summaryView struct {
	NodeCount        int
	SuppressedCount  int
	UnavailableCount int
	DivergentCount   int
	PlanningTimeMs   string
	ExecutionTimeMs  string
}

type nodeView struct {
	Label      string
	Relation   string
	Index      string
	Reported   string
	Manual     string
	Formula    string
	Ratio      string
	Level      string
	Suppressed bool
	Children   []*nodeView
}

type divergenceView struct {
	Label    string
	Formula  string
	Reported string
	Manual   string
	Ratio    string
	Level    string
}

type insightView struct {
	Icon     string
	Severity string
	Text     string
}

// Render writes a complete HTML document for the report.
func Render(w io.Writer, report *analyzer.Report, opts Options) error {
	if w == nil {
		return errors.New("html: writer is nil")
	}
	if report == nil || report.Outline == nil {
		return errors.New("html: empty report")
	}
	if opts.Title == "" {
		opts.Title = "qplain report"
	}

	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("html: parse template: %w", err)
	}
	if err := tmpl.Execute(w, buildTemplateData(report, opts)); err != nil {
		return fmt.Errorf("html: execute template: %w", err)
	}
	return nil
}

func buildTemplateData(report *analyzer.Report, opts Options) templateData {
	data := templateData{
		Title:         opts.Title,
		IncludeStyles: opts.IncludeStyles,
		Summary: summaryView{
			NodeCount:        report.NodeCount,
			SuppressedCount:  report.SuppressedCount,
			UnavailableCount: report.UnavailableCount,
			DivergentCount:   len(report.Divergences),
			PlanningTimeMs:   fmt.Sprintf("%.3f", report.PlanningTimeMs),
			ExecutionTimeMs:  fmt.Sprintf("%.3f", report.ExecutionTimeMs),
		},
		Root: buildNodeView(report.Outline),
	}

	for _, d := range report.Divergences {
		data.Divergent = append(data.Divergent, divergenceView{
			Label:    d.Label,
			Formula:  d.Formula,
			Reported: fmt.Sprintf("%.2f", d.Reported),
			Manual:   fmt.Sprintf("%.2f", d.Manual),
			Ratio:    fmt.Sprintf("%.2f", d.Ratio),
			Level:    ratioLevel(d.Ratio),
		})
	}

	for _, msg := range insight.BuildMessages(report) {
		data.Insights = append(data.Insights, insightView{
			Icon:     severityIcon(msg.Severity),
			Severity: string(msg.Severity),
			Text:     msg.Text,
		})
	}
	return data
}

func buildNodeView(node *model.Outline) *nodeView {
	view := &nodeView{
		Label:      node.Label,
		Relation:   node.Relation,
		Index:      node.Index,
		Reported:   node.TotalCost.String(),
		Suppressed: node.Suppressed,
		Level:      "ok",
	}
	if node.ManualCost.Valid {
		view.Manual = node.ManualCost.String()
		view.Formula = node.Formula
		if node.TotalCost.Valid && node.TotalCost.Value != 0 {
			ratio := node.ManualCost.Value / node.TotalCost.Value
			view.Ratio = fmt.Sprintf("%.2f", ratio)
			view.Level = ratioLevel(ratio)
		}
	} else {
		view.Manual = "n/a"
		view.Level = "na"
	}
	for _, child := range node.Children {
		view.Children = append(view.Children, buildNodeView(child))
	}
	return view
}

func ratioLevel(ratio float64) string {
	if ratio <= 0 {
		return "na"
	}
	weight := ratio
	if weight < 1 {
		weight = 1 / weight
	}
	switch {
	case weight >= 10:
		return "critical"
	case weight >= 2:
		return "warning"
	default:
		return "ok"
	}
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

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
{{ if .IncludeStyles }}<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; margin: 2rem; color: #24292f; }
h1 { font-size: 1.5rem; }
h2 { font-size: 1.15rem; margin-top: 2rem; border-bottom: 1px solid #d0d7de; padding-bottom: 0.3rem; }
.summary { display: flex; gap: 1rem; flex-wrap: wrap; margin: 1rem 0; }
.tile { border: 1px solid #d0d7de; border-radius: 6px; padding: 0.6rem 1rem; min-width: 8rem; }
.tile .value { font-size: 1.4rem; font-weight: 600; }
.tile .name { font-size: 0.8rem; color: #57606a; }
ul.insights { list-style: none; padding-left: 0; }
ul.insights li { margin: 0.3rem 0; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #d8dee4; font-size: 0.9rem; }
ul.tree, ul.tree ul { list-style: none; padding-left: 1.4rem; border-left: 1px dotted #d0d7de; }
ul.tree > li { border-left: none; }
.node { margin: 0.25rem 0; padding: 0.3rem 0.5rem; border-radius: 4px; background: #f6f8fa; }
.node .meta { font-size: 0.8rem; color: #57606a; }
.node.warning { background: #fff8c5; }
.node.critical { background: #ffebe9; }
.node.na { background: #eaeef2; }
.suppressed { opacity: 0.6; }
code { background: #eff1f3; padding: 0.1rem 0.3rem; border-radius: 3px; }
</style>{{ end }}
</head>
<body>
<h1>{{ .Title }}</h1>

<div class="summary">
  <div class="tile"><div class="value">{{ .Summary.NodeCount }}</div><div class="name">plan nodes</div></div>
  <div class="tile"><div class="value">{{ .Summary.DivergentCount }}</div><div class="name">diverging costs</div></div>
  <div class="tile"><div class="value">{{ .Summary.UnavailableCount }}</div><div class="name">formulas unavailable</div></div>
  <div class="tile"><div class="value">{{ .Summary.SuppressedCount }}</div><div class="name">duplicates suppressed</div></div>
  <div class="tile"><div class="value">{{ .Summary.ExecutionTimeMs }} ms</div><div class="name">execution time</div></div>
</div>

{{ if .Insights }}
<h2>Insights</h2>
<ul class="insights">
{{ range .Insights }}  <li>{{ .Icon }} {{ .Text }}</li>
{{ end }}</ul>
{{ end }}

{{ if .Divergent }}
<h2>Diverging nodes</h2>
<table>
<tr><th>Node</th><th>Formula</th><th>Reported</th><th>Manual</th><th>Ratio</th></tr>
{{ range .Divergent }}<tr class="{{ .Level }}"><td>{{ .Label }}</td><td><code>{{ .Formula }}</code></td><td>{{ .Reported }}</td><td>{{ .Manual }}</td><td>{{ .Ratio }}</td></tr>
{{ end }}</table>
{{ end }}

<h2>Plan tree</h2>
<ul class="tree">
{{ template "node" .Root }}
</ul>

</body>
</html>
{{ define "node" }}<li>
  <div class="node {{ .Level }}{{ if .Suppressed }} suppressed{{ end }}">
    <strong>{{ .Label }}</strong>{{ if .Suppressed }} (duplicate){{ end }}
    <div class="meta">
      reported {{ .Reported }} | manual {{ .Manual }}{{ if .Formula }} (<code>{{ .Formula }}</code>){{ end }}{{ if .Ratio }} | ratio {{ .Ratio }}{{ end }}
    </div>
  </div>
  {{ if .Children }}<ul>{{ range .Children }}{{ template "node" . }}{{ end }}</ul>{{ end }}
</li>{{ end }}
`
