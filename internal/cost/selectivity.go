package cost

import (
	"context"
	"strings"

	"github.com/mickamy/qplain/internal/stats"
)

// DistinctFunc resolves the distinct-value count V(R,a) for an attribute.
type DistinctFunc func(ctx context.Context, attribute string) (float64, error)

// Selectivity estimates the fraction of rows a predicate keeps, following
// the textbook rules: range comparisons assume a fixed fraction, equality
// uses 1/V(R,a) when the distinct count is known, and no predicate keeps
// everything. When the distinct count is unavailable the equality case
// degrades to the range fraction rather than failing.
func Selectivity(ctx context.Context, predicate string, rangeFraction float64, distinct DistinctFunc) float64 {
	predicate = strings.TrimSpace(predicate)
	if predicate == "" {
		return 1
	}

	attr, op := splitPredicate(predicate)
	switch op {
	case "<", ">", "<=", ">=":
		return rangeFraction
	case "=":
		if distinct != nil && attr != "" {
			if v, err := distinct(ctx, attr); err == nil && v > 0 {
				return 1 / v
			}
		}
		return rangeFraction
	default:
		return 1
	}
}

// PredicateAttribute returns the left-hand attribute of a comparison
// predicate, or "" when none can be extracted.
func PredicateAttribute(predicate string) string {
	attr, _ := splitPredicate(predicate)
	return attr
}

// splitPredicate extracts the left-hand attribute and the comparison
// operator from a condition string such as "(c.c_custkey = o.o_custkey)".
func splitPredicate(predicate string) (attr, op string) {
	predicate = strings.Trim(predicate, "() ")
	for _, candidate := range []string{"<=", ">=", "<>", "=", "<", ">"} {
		idx := strings.Index(predicate, candidate)
		if idx < 0 {
			continue
		}
		if candidate == "<>" {
			return "", ""
		}
		left := strings.TrimSpace(predicate[:idx])
		return Attribute(left), candidate
	}
	return "", ""
}

// Attribute strips qualification and casts from a column reference:
// "(c.c_custkey)::text" becomes "c_custkey".
func Attribute(expr string) string {
	expr = strings.Trim(expr, "() ")
	if idx := strings.Index(expr, "::"); idx >= 0 {
		expr = expr[:idx]
	}
	expr = strings.Trim(expr, "() ")
	if idx := strings.LastIndex(expr, "."); idx >= 0 {
		expr = expr[idx+1:]
	}
	return expr
}

// DistinctFor adapts a stats.Provider into a DistinctFunc bound to one
// relation. Behaviors share it instead of a common base type.
func DistinctFor(provider stats.Provider, relation string) DistinctFunc {
	return func(ctx context.Context, attribute string) (float64, error) {
		return provider.DistinctCount(ctx, relation, attribute)
	}
}
