package parser_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/operator"
	"github.com/mickamy/qplain/internal/parser"
	"github.com/mickamy/qplain/test"
)

func TestParseListWrappedDocument(t *testing.T) {
	registry := operator.NewRegistry(config.Default())
	f, err := os.Open(filepath.Join(test.RootPath(t), "samples", "hash_join.json"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	doc, err := parser.ParseJSON(f, registry)
	require.NoError(t, err)
	require.NotNil(t, doc.Plan)

	assert.Equal(t, "Hash Join", doc.Plan.NodeType)
	assert.InDelta(t, 0.210, doc.PlanningTime, 1e-9)
	assert.InDelta(t, 3.847, doc.ExecutionTime, 1e-9)

	require.Len(t, doc.Plan.Children, 2)
	assert.Equal(t, "Seq Scan", doc.Plan.Children[0].NodeType, "outer child keeps source order")
	assert.Equal(t, "Hash", doc.Plan.Children[1].NodeType)
	require.Len(t, doc.Plan.Children[1].Children, 1)
	assert.Equal(t, "customers", doc.Plan.Children[1].Children[0].RelationName)
}

func TestParseBareObject(t *testing.T) {
	registry := operator.NewRegistry(config.Default())
	doc, err := parser.ParseJSON(strings.NewReader(`{
		"Plan": {"Node Type": "Seq Scan", "Relation Name": "orders", "Total Cost": 20.0}
	}`), registry)
	require.NoError(t, err)
	assert.Equal(t, "Seq Scan", doc.Plan.NodeType)
}

func TestParsePlanObjectWithoutWrapper(t *testing.T) {
	registry := operator.NewRegistry(config.Default())
	doc, err := parser.ParseJSON(strings.NewReader(`{
		"Node Type": "Seq Scan", "Relation Name": "orders", "Total Cost": 20.0
	}`), registry)
	require.NoError(t, err)
	assert.Equal(t, "Seq Scan", doc.Plan.NodeType)
}

func TestParseMalformedDocuments(t *testing.T) {
	registry := operator.NewRegistry(config.Default())

	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "this is not json"},
		{"empty array", "[]"},
		{"scalar top level", "42"},
		{"missing node type", `[{"Plan": {"Total Cost": 10.0}}]`},
		{"non-string node type", `[{"Plan": {"Node Type": 7}}]`},
		{"empty node type", `[{"Plan": {"Node Type": ""}}]`},
		{"malformed sub-plan", `[{"Plan": {"Node Type": "Limit", "Plans": [{"Total Cost": 1.0}]}}]`},
		{"non-object sub-plan", `[{"Plan": {"Node Type": "Limit", "Plans": ["oops"]}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.ParseJSON(strings.NewReader(tt.doc), registry)
			require.Error(t, err)
			assert.ErrorIs(t, err, parser.ErrMalformedPlan)
			assert.Nil(t, doc, "no partial tree escapes a malformed document")
		})
	}
}

func TestParseMalformedSampleFile(t *testing.T) {
	registry := operator.NewRegistry(config.Default())
	f, err := os.Open(filepath.Join(test.RootPath(t), "samples", "malformed.json"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	doc, err := parser.ParseJSON(f, registry)
	assert.ErrorIs(t, err, parser.ErrMalformedPlan)
	assert.Nil(t, doc)
}

func TestParseDeeplyNestedPlan(t *testing.T) {
	const depth = 2000
	var b strings.Builder
	b.WriteString(`[{"Plan": `)
	for i := 0; i < depth; i++ {
		b.WriteString(`{"Node Type": "Limit", "Total Cost": 1.0, "Plans": [`)
	}
	b.WriteString(`{"Node Type": "Seq Scan", "Relation Name": "orders", "Total Cost": 20.0}`)
	for i := 0; i < depth; i++ {
		b.WriteString(`]}`)
	}
	b.WriteString(`}]`)

	registry := operator.NewRegistry(config.Default())
	doc, err := parser.ParseJSON(strings.NewReader(b.String()), registry)
	require.NoError(t, err)

	count := 0
	node := doc.Plan
	for node != nil {
		count++
		if len(node.Children) == 0 {
			break
		}
		node = node.Children[0]
	}
	assert.Equal(t, depth+1, count)
	assert.Equal(t, "Seq Scan", node.NodeType)
}

func TestParseUnknownOperatorIsNotAnError(t *testing.T) {
	registry := operator.NewRegistry(config.Default())
	doc, err := parser.ParseJSON(strings.NewReader(
		`[{"Plan": {"Node Type": "Custom Scan", "Total Cost": 3.0}}]`,
	), registry)
	require.NoError(t, err)
	assert.Equal(t, "Custom Scan", doc.Plan.NodeType)
}

func TestParseKeepsExtraTopLevelFields(t *testing.T) {
	registry := operator.NewRegistry(config.Default())
	doc, err := parser.ParseJSON(strings.NewReader(`[{
		"Plan": {"Node Type": "Seq Scan", "Relation Name": "orders"},
		"Planning Time": 0.1,
		"Triggers": []
	}]`), registry)
	require.NoError(t, err)
	_, ok := doc.Extra["Triggers"]
	assert.True(t, ok)
}
