package operator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mickamy/qplain/internal/model"
)

// knownKeys are consumed into typed PlanNode fields; everything else lands
// in Extra untouched.
var knownKeys = map[string]struct{}{
	"Node Type":           {},
	"Parent Relationship": {},
	"Relation Name":       {},
	"Schema":              {},
	"Alias":               {},
	"Index Name":          {},
	"Index Cond":          {},
	"Recheck Cond":        {},
	"Filter":              {},
	"Join Type":           {},
	"Hash Cond":           {},
	"Merge Cond":          {},
	"Strategy":            {},
	"Sort Method":         {},
	"Sort Key":            {},
	"Group Key":           {},
	"Startup Cost":        {},
	"Total Cost":          {},
	"Plan Rows":           {},
	"Plan Width":          {},
	"Workers Planned":     {},
	"Plans":               {},
}

// decode coerces the raw attribute map into a typed PlanNode. Every behavior
// builds through it; type-specific behaviors only differ in how they cost
// and explain the node.
func decode(attrs map[string]any, children []*model.PlanNode) *model.PlanNode {
	node := &model.PlanNode{
		NodeType:           asString(attrs["Node Type"]),
		ParentRelationship: asString(attrs["Parent Relationship"]),
		RelationName:       asString(attrs["Relation Name"]),
		Schema:             asString(attrs["Schema"]),
		Alias:              asString(attrs["Alias"]),
		IndexName:          asString(attrs["Index Name"]),
		IndexCond:          asString(attrs["Index Cond"]),
		RecheckCond:        asString(attrs["Recheck Cond"]),
		Filter:             asString(attrs["Filter"]),
		JoinType:           asString(attrs["Join Type"]),
		HashCond:           asString(attrs["Hash Cond"]),
		MergeCond:          asString(attrs["Merge Cond"]),
		Strategy:           asString(attrs["Strategy"]),
		SortMethod:         asString(attrs["Sort Method"]),
		SortKey:            asStringSlice(attrs["Sort Key"]),
		GroupKey:           asStringSlice(attrs["Group Key"]),
		StartupCost:        asMetric(attrs, "Startup Cost"),
		TotalCost:          asMetric(attrs, "Total Cost"),
		PlanRows:           asMetric(attrs, "Plan Rows"),
		PlanWidth:          asMetric(attrs, "Plan Width"),
		Extra:              map[string]any{},
		Children:           children,
	}
	if wp, ok := attrs["Workers Planned"]; ok {
		node.WorkersPlanned = asFloat(wp)
	}

	for k, v := range attrs {
		if _, ok := knownKeys[k]; ok {
			continue
		}
		node.Extra[k] = v
	}
	return node
}

func asMetric(attrs map[string]any, key string) model.Metric {
	val, ok := attrs[key]
	if !ok || val == nil {
		return model.Metric{}
	}
	return model.Some(asFloat(val))
}

func asString(val any) string {
	if val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func asStringSlice(val any) []string {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, asString(item))
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return nil
	}
}

func asFloat(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
