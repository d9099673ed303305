package agreement_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willbeason/coding-reliability/pkg/agreement"
	"github.com/willbeason/coding-reliability/pkg/coding"
)

func makeTable(rows [][]string) *coding.Table {
	table := &coding.Table{
		Path:       "test.txt",
		Categories: []string{"a", "b"},
	}
	for i, row := range rows {
		table.Rows = append(table.Rows, coding.Row{
			Number:    i + 1,
			Codes:     row[:len(row)-1],
			Reference: row[len(row)-1],
			Comment:   coding.NoComment,
		})
	}
	return table
}

func TestAnalyze_DisagreementSets(t *testing.T) {
	// Three raters, categories {a, b}: rows 2 and 4 each have a rater
	// disagreeing with the reference.
	table := makeTable([][]string{
		{"a", "a", "a", "a"},
		{"a", "b", "a", "a"},
		{"b", "b", "b", "b"},
		{"a", "a", "b", "a"},
	})

	analysis := agreement.Analyze(table)

	require.Len(t, analysis.Disagreements, 2)
	assert.Equal(t, 2, analysis.Disagreements[0].Row)
	assert.Equal(t, 4, analysis.Disagreements[1].Row)
	assert.InDelta(t, 0.5, analysis.DisagreementRate, 1e-12)

	// The same rows are also internal disagreements here: their rater
	// codes are not unanimous.
	require.Len(t, analysis.InternalDisagreements, 2)
	assert.Equal(t, 2, analysis.InternalDisagreements[0].Row)
	assert.Equal(t, 4, analysis.InternalDisagreements[1].Row)

	assert.Equal(t, 2, analysis.PerfectAgreement())
	assert.Equal(t, 2, analysis.InternalAgreement())
}

func TestAnalyze_DisagreementRateInvariants(t *testing.T) {
	table := makeTable([][]string{
		{"a", "b", "a"},
		{"b", "b", "b"},
		{"a", "a", "b"},
		{"b", "a", "a"},
		{"a", "a", "a"},
	})

	analysis := agreement.Analyze(table)

	assert.GreaterOrEqual(t, analysis.DisagreementRate, 0.0)
	assert.LessOrEqual(t, analysis.DisagreementRate, 1.0)
	assert.InDelta(t, float64(len(analysis.Disagreements)),
		math.Round(analysis.DisagreementRate*float64(analysis.TotalCases)), 1e-9)
}

func TestAnalyze_Distribution(t *testing.T) {
	table := makeTable([][]string{
		{"a", "a", "a", "a"}, // 0 raters disagree
		{"a", "b", "a", "a"}, // 1
		{"b", "b", "a", "a"}, // 2
		{"b", "b", "b", "a"}, // 3
	})

	analysis := agreement.Analyze(table)

	assert.Equal(t, []int{1, 1, 1, 1}, analysis.Distribution)
}

func TestAnalyze_InternalMembership(t *testing.T) {
	// A row belongs to the internal disagreement set iff its rater codes
	// are not all identical, regardless of the reference.
	table := makeTable([][]string{
		{"a", "a", "b"}, // unanimous raters, disagree with reference
		{"a", "b", "a"}, // split raters
	})

	analysis := agreement.Analyze(table)

	require.Len(t, analysis.InternalDisagreements, 1)
	assert.Equal(t, 2, analysis.InternalDisagreements[0].Row)
	require.Len(t, analysis.Disagreements, 2)
}

func TestAnalyze_UndefinedKappa(t *testing.T) {
	// A rater column identical to a constant reference has no defined
	// Kappa; the analysis must still complete.
	table := makeTable([][]string{
		{"a", "a", "a"},
		{"a", "b", "a"},
		{"a", "a", "a"},
	})

	analysis := agreement.Analyze(table)

	require.Len(t, analysis.Inter, 2)
	assert.False(t, analysis.Inter[0].Defined)
	assert.False(t, analysis.InterMean.Defined)
}

func TestAnalyze_PairwiseKappas(t *testing.T) {
	table := makeTable([][]string{
		{"a", "a", "a"},
		{"b", "b", "b"},
		{"a", "b", "a"},
		{"b", "a", "b"},
	})

	analysis := agreement.Analyze(table)

	// Two raters: one intra pair, two inter coefficients.
	require.Len(t, analysis.Inter, 2)
	require.Len(t, analysis.Intra, 1)
	assert.Equal(t, "AI1", analysis.Intra[0].RaterA)
	assert.Equal(t, "AI2", analysis.Intra[0].RaterB)

	// AI1 matches the reference everywhere.
	assert.True(t, analysis.Inter[0].Defined)
	assert.InDelta(t, 1.0, analysis.Inter[0].Value, 1e-9)

	// Per-rater means cover every other rater plus the reference.
	require.Len(t, analysis.CoderMeans, 2)
	assert.True(t, analysis.CoderMeans[0].Defined)
}

func TestAnalyze_CategoryDistributions(t *testing.T) {
	table := makeTable([][]string{
		{"a", "b", "a"},
		{"a", "a", "b"},
	})

	analysis := agreement.Analyze(table)

	assert.InDelta(t, 0.75, analysis.RaterDist["a"], 1e-12)
	assert.InDelta(t, 0.25, analysis.RaterDist["b"], 1e-12)
	assert.InDelta(t, 0.5, analysis.ReferenceDist["a"], 1e-12)
	assert.InDelta(t, 0.5, analysis.ReferenceDist["b"], 1e-12)
}

func TestAnalyze_SingleRater(t *testing.T) {
	// One rater has no intra pairs; the intra mean is 0 by definition.
	table := makeTable([][]string{
		{"a", "a"},
		{"b", "b"},
		{"a", "b"},
	})

	analysis := agreement.Analyze(table)

	assert.Empty(t, analysis.Intra)
	assert.True(t, analysis.IntraMean.Defined)
	assert.Zero(t, analysis.IntraMean.Value)
}

func TestMeanKappas(t *testing.T) {
	table := makeTable([][]string{
		{"a", "a", "a"},
		{"b", "b", "b"},
		{"a", "b", "a"},
		{"b", "a", "b"},
	})

	inter, intra := agreement.MeanKappas(table.Rows)

	analysis := agreement.Analyze(table)
	assert.Equal(t, analysis.InterMean, inter)
	assert.Equal(t, analysis.IntraMean, intra)
}
