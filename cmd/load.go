package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mickamy/qplain/internal/analyzer"
	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/model"
	"github.com/mickamy/qplain/internal/operator"
	"github.com/mickamy/qplain/internal/parser"
	"github.com/mickamy/qplain/internal/render/html"
	"github.com/mickamy/qplain/internal/render/tui"
	"github.com/mickamy/qplain/internal/stats"
)

// loadReport parses an EXPLAIN JSON file and analyzes it without catalog
// access; manual formulas that need live statistics degrade to "not
// available".
func loadReport(ctx context.Context, path string) (*model.Explain, *analyzer.Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return analyzeReader(ctx, file, stats.Unavailable{})
}

func analyzeReader(ctx context.Context, r io.Reader, provider stats.Provider) (*model.Explain, *analyzer.Report, error) {
	registry := operator.NewRegistry(config.Active())
	doc, err := parser.ParseJSON(r, registry)
	if err != nil {
		return nil, nil, err
	}

	report, err := analyzer.Analyze(ctx, doc, provider)
	if err != nil {
		return nil, nil, err
	}
	return doc, report, nil
}

type renderOptions struct {
	mode       string
	outPath    string
	title      string
	color      bool
	maxDepth   int
	includeCSS bool
}

func renderReport(report *analyzer.Report, opts renderOptions) error {
	target := io.Writer(os.Stdout)
	if opts.outPath != "" {
		file, err := os.Create(opts.outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			_ = file.Close()
		}()
		target = file
	}

	switch opts.mode {
	case "text":
		_, err := io.WriteString(target, report.Text)
		return err
	case "tui":
		return tui.Render(target, report, tui.Options{
			EnableColor: opts.color,
			MaxDepth:    opts.maxDepth,
			BarWidth:    config.Active().Report.BarWidth,
		})
	case "html":
		return html.Render(target, report, html.Options{
			Title:         opts.title,
			IncludeStyles: opts.includeCSS,
		})
	default:
		return fmt.Errorf("unknown mode %q (expected text, tui, or html)", opts.mode)
	}
}
