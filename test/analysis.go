package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mickamy/qplain/internal/analyzer"
	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/operator"
	"github.com/mickamy/qplain/internal/parser"
	"github.com/mickamy/qplain/internal/stats"
)

var (
	rootPath string
	once     sync.Once
)

// RootPath resolves a path relative to the repository rootPath (where go.mod resides).
func RootPath(t *testing.T) string {
	t.Helper()
	once.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("getwd: %v", err)
		}
		for {
			if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
				rootPath = wd
				break
			}
			next := filepath.Dir(wd)
			if next == wd {
				t.Fatalf("go.mod not found from %s", wd)
			}
			wd = next
		}
	})
	return rootPath
}

// StubProvider serves statistics from in-memory maps. Distinct counts are
// keyed "relation.attribute". Missing entries report stats.ErrNotFound the
// way the live catalog does.
type StubProvider struct {
	Relations map[string]stats.RelationStats
	Indexes   map[string]stats.IndexStats
	Distinct  map[string]float64
}

func (p StubProvider) RelationStats(_ context.Context, relation string) (stats.RelationStats, error) {
	rel, ok := p.Relations[relation]
	if !ok {
		return stats.RelationStats{}, fmt.Errorf("relation %q: %w", relation, stats.ErrNotFound)
	}
	return rel, nil
}

func (p StubProvider) IndexStats(_ context.Context, index string) (stats.IndexStats, error) {
	idx, ok := p.Indexes[index]
	if !ok {
		return stats.IndexStats{}, fmt.Errorf("index %q: %w", index, stats.ErrNotFound)
	}
	return idx, nil
}

func (p StubProvider) DistinctCount(_ context.Context, relation, attribute string) (float64, error) {
	v, ok := p.Distinct[relation+"."+attribute]
	if !ok {
		return 0, fmt.Errorf("column %s.%s: %w", relation, attribute, stats.ErrNotFound)
	}
	return v, nil
}

// LoadSampleReport loads and analyzes a plan relative to the repository rootPath.
func LoadSampleReport(t *testing.T, rel string, provider stats.Provider) *analyzer.Report {
	t.Helper()
	root := RootPath(t)
	f, err := os.Open(filepath.Join(root, "samples", rel))
	if err != nil {
		t.Fatalf("open plan: %v", err)
	}
	defer func() { _ = f.Close() }()

	if provider == nil {
		provider = stats.Unavailable{}
	}

	registry := operator.NewRegistry(config.Active())
	doc, err := parser.ParseJSON(f, registry)
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	report, err := analyzer.Analyze(context.Background(), doc, provider)
	if err != nil {
		t.Fatalf("analyze plan: %v", err)
	}
	return report
}

// SampleProvider returns the statistics matching the bundled sample plans.
func SampleProvider() StubProvider {
	return StubProvider{
		Relations: map[string]stats.RelationStats{
			"orders":    {Rows: 1000, Pages: 10},
			"customers": {Rows: 2000, Pages: 20},
			"items":     {Rows: 5000, Pages: 50},
		},
		Indexes: map[string]stats.IndexStats{
			"orders_pkey":        {Scans: 120, TuplesRead: 1000},
			"items_category_idx": {Scans: 40, TuplesRead: 5000},
		},
		Distinct: map[string]float64{
			"orders.id":      1000,
			"items.category": 25,
		},
	}
}
