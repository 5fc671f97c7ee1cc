package insight_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/qplain/internal/analyzer"
	"github.com/mickamy/qplain/internal/config"
	"github.com/mickamy/qplain/internal/insight"
)

func divergence(label string, manual, reported float64) analyzer.Divergence {
	ratio := math.Inf(1)
	if reported != 0 {
		ratio = manual / reported
	}
	return analyzer.Divergence{
		Label:    label,
		Formula:  "B(R)",
		Manual:   manual,
		Reported: reported,
		Ratio:    ratio,
	}
}

func TestBuildMessagesSeverity(t *testing.T) {
	report := &analyzer.Report{
		Divergences: []analyzer.Divergence{
			divergence("Seq Scan on huge", 1000, 10),  // x100
			divergence("Hash Join", 90, 30),           // x3
			divergence("Seq Scan on close", 105, 100), // x1.05
		},
	}

	messages := insight.BuildMessages(report)
	require.Len(t, messages, 3)

	assert.Equal(t, insight.SeverityCritical, messages[0].Severity)
	assert.Contains(t, messages[0].Text, "Seq Scan on huge")
	assert.Equal(t, insight.SeverityWarning, messages[1].Severity)
	assert.Equal(t, insight.SeverityInfo, messages[2].Severity)
}

func TestBuildMessagesUndershootRanksLikeOvershoot(t *testing.T) {
	report := &analyzer.Report{
		Divergences: []analyzer.Divergence{
			divergence("Seq Scan on tiny", 1, 100), // x0.01
		},
	}

	messages := insight.BuildMessages(report)
	require.Len(t, messages, 1)
	assert.Equal(t, insight.SeverityCritical, messages[0].Severity)
}

func TestBuildMessagesInfiniteRatio(t *testing.T) {
	report := &analyzer.Report{
		Divergences: []analyzer.Divergence{divergence("Result", 5, 0)},
	}

	messages := insight.BuildMessages(report)
	require.Len(t, messages, 1)
	assert.Equal(t, insight.SeverityCritical, messages[0].Severity)
	assert.NotContains(t, messages[0].Text, "(x")
}

func TestBuildMessagesCapAndCoverageNotes(t *testing.T) {
	report := &analyzer.Report{
		UnavailableCount: 2,
		SuppressedCount:  1,
	}
	for i := 0; i < 10; i++ {
		report.Divergences = append(report.Divergences, divergence("Seq Scan", 100, 10))
	}

	messages := insight.BuildMessages(report)
	maxInsights := config.Active().Report.MaxInsights
	require.Len(t, messages, maxInsights+2, "capped divergences plus the two coverage notes")

	assert.Contains(t, messages[maxInsights].Text, "Statistics unavailable for 2 node(s)")
	assert.Contains(t, messages[maxInsights+1].Text, "1 duplicate node(s)")
}

func TestBuildMessagesNilReport(t *testing.T) {
	assert.Nil(t, insight.BuildMessages(nil))
}
