package diff_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/qplain/internal/diff"
	"github.com/mickamy/qplain/internal/stats"
	"github.com/mickamy/qplain/test"
)

func TestCompareIdenticalPlans(t *testing.T) {
	base := test.LoadSampleReport(t, "hash_join.json", stats.Unavailable{})
	target := test.LoadSampleReport(t, "hash_join.json", stats.Unavailable{})

	report, err := diff.Compare(base, target, diff.Options{MinDeltaCost: 0.01})
	require.NoError(t, err)

	assert.Empty(t, report.Regressions)
	assert.Empty(t, report.Improvements)
	assert.Equal(t, report.BaseNodeCount, report.TargetNodeCount)
}

func TestCompareChangedPlan(t *testing.T) {
	base := test.LoadSampleReport(t, "hash_join.json", stats.Unavailable{})
	target := test.LoadSampleReport(t, "hash_join_cheap.json", stats.Unavailable{})

	report, err := diff.Compare(base, target, diff.Options{MinDeltaCost: 0.01})
	require.NoError(t, err)

	require.NotEmpty(t, report.Improvements)
	assert.Equal(t, "Hash Join", report.Improvements[0].Signature,
		"largest reported-cost drop ranks first")
	assert.InDelta(t, -65.5, report.Improvements[0].DeltaReported, 1e-9)

	require.NotEmpty(t, report.Regressions, "the new index scan appears only in the target")
	assert.Equal(t, "Index Scan · orders · orders_pkey", report.Regressions[0].Signature)
}

func TestCompareMissingInput(t *testing.T) {
	base := test.LoadSampleReport(t, "hash_join.json", stats.Unavailable{})

	_, err := diff.Compare(nil, base, diff.Options{})
	assert.Error(t, err)
	_, err = diff.Compare(base, nil, diff.Options{})
	assert.Error(t, err)
}

func TestMarkdownAndJSON(t *testing.T) {
	base := test.LoadSampleReport(t, "hash_join.json", stats.Unavailable{})
	target := test.LoadSampleReport(t, "hash_join_cheap.json", stats.Unavailable{})

	report, err := diff.Compare(base, target, diff.Options{MinDeltaCost: 0.01})
	require.NoError(t, err)

	md := report.Markdown()
	assert.Contains(t, md, "# qplain diff")
	assert.Contains(t, md, "## Regressions")
	assert.Contains(t, md, "## Improvements")
	assert.Contains(t, md, "Hash Join")

	payload, err := report.JSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Contains(t, decoded, "regressions")
}

func TestMaxItemsTruncates(t *testing.T) {
	base := test.LoadSampleReport(t, "hash_join.json", stats.Unavailable{})
	target := test.LoadSampleReport(t, "hash_join_cheap.json", stats.Unavailable{})

	report, err := diff.Compare(base, target, diff.Options{MinDeltaCost: 0.01, MaxItems: 1})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(report.Improvements), 1)
	assert.LessOrEqual(t, len(report.Regressions), 1)
}
