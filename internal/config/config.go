package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"
)

// Config holds tunables for the manual cost model and report shaping.
type Config struct {
	Cost   CostConfig   `json:"cost" yaml:"cost"`
	Report ReportConfig `json:"report" yaml:"report"`
}

// CostConfig defines the knobs of the textbook cost formulas.
type CostConfig struct {
	// BitmapReduction scales B(R) for bitmap heap scans; must stay below 1.
	BitmapReduction float64 `json:"bitmap_reduction" yaml:"bitmap_reduction"`
	// Sort method multipliers applied to the reported total cost.
	SortExternalMultiplier  float64 `json:"sort_external_multiplier" yaml:"sort_external_multiplier"`
	SortQuicksortMultiplier float64 `json:"sort_quicksort_multiplier" yaml:"sort_quicksort_multiplier"`
	SortHeapsortMultiplier  float64 `json:"sort_heapsort_multiplier" yaml:"sort_heapsort_multiplier"`
	// RangeSelectivity is assumed for < and > predicates.
	RangeSelectivity float64 `json:"range_selectivity" yaml:"range_selectivity"`
	// DivergenceEpsilon is the relative tolerance before the manual and
	// reported costs count as diverging.
	DivergenceEpsilon float64 `json:"divergence_epsilon" yaml:"divergence_epsilon"`
}

// ReportConfig defines thresholds for insight generation and rendering.
type ReportConfig struct {
	MaxInsights             int     `json:"max_insights" yaml:"max_insights"`
	DivergenceWarnRatio     float64 `json:"divergence_warn_ratio" yaml:"divergence_warn_ratio"`
	DivergenceCriticalRatio float64 `json:"divergence_critical_ratio" yaml:"divergence_critical_ratio"`
	BarWidth                int     `json:"bar_width" yaml:"bar_width"`
}

var (
	mu     sync.RWMutex
	active = Default()
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cost: CostConfig{
			BitmapReduction:         0.5,
			SortExternalMultiplier:  3.0,
			SortQuicksortMultiplier: 1.0,
			SortHeapsortMultiplier:  1.0 / 3.0,
			RangeSelectivity:        1.0 / 3.0,
			DivergenceEpsilon:       0.005,
		},
		Report: ReportConfig{
			MaxInsights:             5,
			DivergenceWarnRatio:     2.0,
			DivergenceCriticalRatio: 10.0,
			BarWidth:                20,
		},
	}
}

// Active returns the currently applied configuration.
func Active() Config {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// Use replaces the active configuration.
func Use(cfg Config) {
	mu.Lock()
	active = cfg
	mu.Unlock()
}

// Apply loads configuration from the provided path (YAML or JSON, by
// extension). Empty path resets to defaults.
func Apply(path string) error {
	if path == "" {
		Use(Default())
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	Use(cfg)
	return nil
}
