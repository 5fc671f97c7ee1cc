package cost_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mickamy/qplain/internal/cost"
)

func staticDistinct(values map[string]float64) cost.DistinctFunc {
	return func(_ context.Context, attribute string) (float64, error) {
		if v, ok := values[attribute]; ok {
			return v, nil
		}
		return 0, errors.New("no stats")
	}
}

func TestSelectivityRules(t *testing.T) {
	ctx := context.Background()
	distinct := staticDistinct(map[string]float64{"category": 25})
	third := 1.0 / 3.0

	tests := []struct {
		name      string
		predicate string
		want      float64
	}{
		{"no predicate keeps everything", "", 1},
		{"range lower", "(price < 100)", third},
		{"range upper", "(price > 100)", third},
		{"range inclusive", "(price >= 100)", third},
		{"equality with known distinct", "(category = 'toys')", 1.0 / 25.0},
		{"equality without distinct degrades to range", "(color = 'red')", third},
		{"unsupported operator keeps everything", "(name ~~ 'a%')", 1},
		{"inequality keeps everything", "(category <> 'toys')", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cost.Selectivity(ctx, tt.predicate, third, distinct)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPredicateAttribute(t *testing.T) {
	assert.Equal(t, "id", cost.PredicateAttribute("(id = 42)"))
	assert.Equal(t, "c_custkey", cost.PredicateAttribute("(c.c_custkey = o.o_custkey)"))
	assert.Equal(t, "price", cost.PredicateAttribute("(price <= 10)"))
	assert.Equal(t, "", cost.PredicateAttribute("no comparison here"))
}

func TestAttributeStripsCastsAndQualification(t *testing.T) {
	assert.Equal(t, "c_custkey", cost.Attribute("(c.c_custkey)::text"))
	assert.Equal(t, "category", cost.Attribute("items.category"))
	assert.Equal(t, "plain", cost.Attribute("plain"))
}
