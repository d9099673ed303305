package agreement

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/willbeason/coding-reliability/pkg/coding"
)

// A Case is one row where raters disagreed, kept for enumeration in
// reports. Row numbers are 1-based.
type Case struct {
	Row       int
	Comment   string
	Codes     []string
	Reference string
}

// An Analysis is the complete immutable result of one agreement run over
// one annotation table. It is produced once by Analyze and passed to
// reporting; nothing mutates it afterwards.
type Analysis struct {
	// RunID uniquely identifies this analysis run in report headers.
	RunID string

	Table *coding.Table

	// Raters holds the display names of the rater columns, in order.
	Raters []string
	// Reference is the display name of the reference rater.
	Reference string

	TotalCases int

	// Inter holds Kappa of each rater against the reference, in rater
	// order. Intra holds Kappa of each unordered rater pair, in
	// (i, j>i) order.
	Inter []Coefficient
	Intra []Coefficient

	InterMean Stat
	IntraMean Stat

	// CoderMeans is, per rater, the mean of its Kappa against every other
	// rater plus its Kappa against the reference.
	CoderMeans []Stat
	// OverallMean and OverallStd summarize CoderMeans (population σ).
	OverallMean Stat
	OverallStd  Stat

	// Disagreements are rows where at least one rater code differs from the
	// reference. InternalDisagreements are rows where the raters disagree
	// among themselves, ignoring the reference.
	Disagreements         []Case
	InternalDisagreements []Case

	// DisagreementRate is len(Disagreements) / TotalCases, 0 for an empty
	// table.
	DisagreementRate float64

	// Distribution[k] counts rows where exactly k raters disagree with the
	// reference, for k in 0..len(Raters).
	Distribution []int

	// RaterDist and ReferenceDist are the relative frequencies of each
	// valid category among all rater codes pooled, and among reference
	// codes, respectively.
	RaterDist     map[string]float64
	ReferenceDist map[string]float64
}

// DefaultRaterName names the i-th (0-based) rater column.
func DefaultRaterName(i int) string {
	return fmt.Sprintf("AI%d", i+1)
}

// DefaultReferenceName is the display name of the reference rater.
const DefaultReferenceName = "Human"

// Analyze computes every agreement statistic for one table: pairwise
// Kappas, their aggregates, disagreement case sets, and the descriptive
// distributions.
func Analyze(table *coding.Table) *Analysis {
	nRaters := table.NRaters()

	analysis := &Analysis{
		RunID:      uuid.NewString(),
		Table:      table,
		Reference:  DefaultReferenceName,
		TotalCases: len(table.Rows),
	}
	for i := 0; i < nRaters; i++ {
		analysis.Raters = append(analysis.Raters, DefaultRaterName(i))
	}

	columns := raterColumns(table)
	reference := referenceColumn(table)

	// Inter-rater: each rater against the reference.
	for i := 0; i < nRaters; i++ {
		analysis.Inter = append(analysis.Inter,
			Cohen(analysis.Raters[i], analysis.Reference, columns[i], reference))
	}
	analysis.InterMean = MeanKappa(analysis.Inter)

	// Intra-rater: each unordered pair of raters.
	for i := 0; i < nRaters; i++ {
		for j := i + 1; j < nRaters; j++ {
			analysis.Intra = append(analysis.Intra,
				Cohen(analysis.Raters[i], analysis.Raters[j], columns[i], columns[j]))
		}
	}
	analysis.IntraMean = MeanKappa(analysis.Intra)

	// Per-rater variability: mean Kappa against all other raters plus the
	// reference.
	for i := 0; i < nRaters; i++ {
		var coefficients []Coefficient
		for j := 0; j < nRaters; j++ {
			if j == i {
				continue
			}
			coefficients = append(coefficients,
				Cohen(analysis.Raters[i], analysis.Raters[j], columns[i], columns[j]))
		}
		coefficients = append(coefficients,
			Cohen(analysis.Raters[i], analysis.Reference, columns[i], reference))
		analysis.CoderMeans = append(analysis.CoderMeans, MeanKappa(coefficients))
	}
	analysis.OverallMean, analysis.OverallStd = meanStd(analysis.CoderMeans)

	analysis.Distribution = make([]int, nRaters+1)
	for _, row := range table.Rows {
		disagreeing := 0
		for _, code := range row.Codes {
			if code != row.Reference {
				disagreeing++
			}
		}
		analysis.Distribution[disagreeing]++

		if disagreeing > 0 {
			analysis.Disagreements = append(analysis.Disagreements, Case{
				Row:       row.Number,
				Comment:   row.Comment,
				Codes:     row.Codes,
				Reference: row.Reference,
			})
		}

		if distinct(row.Codes) > 1 {
			analysis.InternalDisagreements = append(analysis.InternalDisagreements, Case{
				Row:       row.Number,
				Comment:   row.Comment,
				Codes:     row.Codes,
				Reference: row.Reference,
			})
		}
	}

	if analysis.TotalCases > 0 {
		analysis.DisagreementRate = float64(len(analysis.Disagreements)) / float64(analysis.TotalCases)
	}

	analysis.RaterDist, analysis.ReferenceDist = categoryDistributions(table)

	return analysis
}

// InternalAgreement counts rows where every rater assigned the same code.
func (a *Analysis) InternalAgreement() int {
	return a.TotalCases - len(a.InternalDisagreements)
}

// PerfectAgreement counts rows where every rater assigned the reference
// code.
func (a *Analysis) PerfectAgreement() int {
	return a.TotalCases - len(a.Disagreements)
}

// MeanKappas recomputes only the inter- and intra-rater set means for a row
// sample, without deriving case sets. Used by bootstrap resampling.
func MeanKappas(rows []coding.Row) (inter, intra Stat) {
	if len(rows) == 0 {
		return Stat{}, Stat{}
	}
	nRaters := len(rows[0].Codes)

	columns := make([][]string, nRaters)
	reference := make([]string, 0, len(rows))
	for _, row := range rows {
		for i, code := range row.Codes {
			columns[i] = append(columns[i], code)
		}
		reference = append(reference, row.Reference)
	}

	var interSet, intraSet []Coefficient
	for i := 0; i < nRaters; i++ {
		interSet = append(interSet, Cohen("", "", columns[i], reference))
		for j := i + 1; j < nRaters; j++ {
			intraSet = append(intraSet, Cohen("", "", columns[i], columns[j]))
		}
	}
	return MeanKappa(interSet), MeanKappa(intraSet)
}

func raterColumns(table *coding.Table) [][]string {
	columns := make([][]string, table.NRaters())
	for _, row := range table.Rows {
		for i, code := range row.Codes {
			columns[i] = append(columns[i], code)
		}
	}
	return columns
}

func referenceColumn(table *coding.Table) []string {
	column := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		column = append(column, row.Reference)
	}
	return column
}

func distinct(codes []string) int {
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		seen[code] = struct{}{}
	}
	return len(seen)
}

func categoryDistributions(table *coding.Table) (rater, reference map[string]float64) {
	raterCounts := make(map[string]int)
	referenceCounts := make(map[string]int)
	raterTotal := 0

	for _, row := range table.Rows {
		for _, code := range row.Codes {
			raterCounts[code]++
			raterTotal++
		}
		referenceCounts[row.Reference]++
	}

	rater = make(map[string]float64, len(table.Categories))
	reference = make(map[string]float64, len(table.Categories))
	for _, category := range table.Categories {
		if raterTotal > 0 {
			rater[category] = float64(raterCounts[category]) / float64(raterTotal)
		}
		if len(table.Rows) > 0 {
			reference[category] = float64(referenceCounts[category]) / float64(len(table.Rows))
		}
	}
	return rater, reference
}
