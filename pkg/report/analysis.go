package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/willbeason/coding-reliability/pkg/agreement"
)

// Stem returns the path without its final extension, the base of every
// output artifact name.
func Stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// WriteAnalysis writes the narrative report (<stem>_reliability_results.txt)
// and the per-case coding export (<stem>_results.csv, plus a Parquet copy of
// the Kappa table) for a single analysis.
//
// Each artifact is attempted independently: a failed write is reported
// through the joined error without discarding artifacts already written.
// Returns the paths successfully written.
func WriteAnalysis(a *agreement.Analysis) ([]string, error) {
	stem := Stem(a.Table.Path)

	var written []string
	var errs []error

	textPath := stem + "_reliability_results.txt"
	if err := writeFile(textPath, FormatAnalysis(a)); err != nil {
		errs = append(errs, err)
	} else {
		written = append(written, textPath)
	}

	csvPath := stem + "_results.csv"
	if err := writeAnalysisCSV(csvPath, a); err != nil {
		errs = append(errs, err)
	} else {
		written = append(written, csvPath)
	}

	parquetPath := stem + "_kappas.parquet"
	if err := WriteKappaParquet(parquetPath, KappaRows(a)); err != nil {
		errs = append(errs, err)
	} else {
		written = append(written, parquetPath)
	}

	return written, errors.Join(errs...)
}

// FormatAnalysis renders the narrative reliability report for one analysis.
func FormatAnalysis(a *agreement.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Coding Reliability Analysis Results ===\n")
	fmt.Fprintf(&b, "Analysis date: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Run ID: %s\n", a.RunID)
	fmt.Fprintf(&b, "File: %s\n", filepath.Base(a.Table.Path))
	fmt.Fprintf(&b, "Total cases: %d\n", a.TotalCases)
	fmt.Fprintf(&b, "AI coders: %d, Human coder: 1\n\n", len(a.Raters))

	fmt.Fprintf(&b, "=== Kappa Statistics ===\n")
	fmt.Fprintf(&b, "Average inter-rater Kappa (AI vs. Human): %s\n", stat(a.InterMean))
	for _, k := range a.Inter {
		fmt.Fprintf(&b, "%s Kappa: %s\n", pairLabel(k), kappa(k))
	}
	fmt.Fprintf(&b, "\nAverage intra-rater Kappa (AI vs. AI): %s\n", stat(a.IntraMean))
	for _, k := range a.Intra {
		fmt.Fprintf(&b, "%s Kappa: %s\n", pairLabel(k), kappa(k))
	}
	fmt.Fprintf(&b, "\nAverage Kappa for each coder (including comparison with human):\n")
	for i, rater := range a.Raters {
		fmt.Fprintf(&b, "Coder %s: %s\n", rater, stat(a.CoderMeans[i]))
	}
	fmt.Fprintf(&b, "\nOverall Kappa Statistics:\n")
	fmt.Fprintf(&b, "Overall mean: %s\n", stat(a.OverallMean))
	fmt.Fprintf(&b, "Standard deviation: %s\n", stat(a.OverallStd))

	fmt.Fprintf(&b, "\n=== Disagreement Analysis ===\n")
	fmt.Fprintf(&b, "AI-Human Disagreement Rate: %.4f (%d/%d cases)\n",
		a.DisagreementRate, len(a.Disagreements), a.TotalCases)
	fmt.Fprintf(&b, "Definition: Proportion of cases where any AI rater disagrees with human rater\n")
	fmt.Fprintf(&b, "AI Internal Disagreement: %d/%d cases\n", len(a.InternalDisagreements), a.TotalCases)
	fmt.Fprintf(&b, "AI Internal Agreement: %d/%d cases\n", a.InternalAgreement(), a.TotalCases)
	fmt.Fprintf(&b, "Perfect Agreement (All AIs + Human): %d/%d cases\n", a.PerfectAgreement(), a.TotalCases)

	fmt.Fprintf(&b, "AI-Human Disagreement Distribution: ")
	for count, cases := range a.Distribution {
		if count > 0 {
			fmt.Fprintf(&b, ", ")
		}
		fmt.Fprintf(&b, "%d AI Disagreements=%d", count, cases)
	}
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "Category Distribution (AI): %s\n", distribution(a.RaterDist))
	fmt.Fprintf(&b, "Category Distribution (Human): %s\n", distribution(a.ReferenceDist))

	writeCases(&b, "AI-Human Disagreement Cases", a.Disagreements, true)
	writeCases(&b, "AI Internal Disagreement Cases", a.InternalDisagreements, false)

	return b.String()
}

func writeCases(b *strings.Builder, title string, cases []agreement.Case, withHuman bool) {
	fmt.Fprintf(b, "\n=== %s ===\n", title)
	if len(cases) == 0 {
		fmt.Fprintf(b, "No %s found\n", title)
		return
	}
	if len(cases) > MaxEnumeratedCases {
		fmt.Fprintf(b, "Showing first %d of %d cases:\n", MaxEnumeratedCases, len(cases))
		cases = cases[:MaxEnumeratedCases]
	}
	for _, c := range cases {
		fmt.Fprintf(b, "Row %d:\n", c.Row)
		fmt.Fprintf(b, "  AI codes: %v\n", c.Codes)
		if withHuman {
			fmt.Fprintf(b, "  Human code: %s\n", c.Reference)
		}
		fmt.Fprintf(b, "  Comment: %s\n", c.Comment)
		fmt.Fprintf(b, "  Final code: %s\n\n", c.Reference)
	}
}

// writeAnalysisCSV exports one row per case: the final coding (always the
// reference code), agreement flags, the comment, and every coder's code.
//
// ai_human_agreement is true iff every AI code equals the human code for
// that row; ai_internal_agreement is true iff all AI codes are identical.
func writeAnalysisCSV(path string, a *agreement.Analysis) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %q: %w", ErrWrite, path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Println(closeErr)
		}
	}()

	writer := csv.NewWriter(file)

	header := []string{"row", "final_coding", "ai_human_agreement", "ai_internal_agreement", "comment"}
	for _, rater := range a.Raters {
		header = append(header, "coder_"+rater)
	}
	header = append(header, "coder_"+a.Reference)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("%w: writing header to %q: %w", ErrWrite, path, err)
	}

	humanDisagreement := make(map[int]bool, len(a.Disagreements))
	for _, c := range a.Disagreements {
		humanDisagreement[c.Row] = true
	}
	internalDisagreement := make(map[int]bool, len(a.InternalDisagreements))
	for _, c := range a.InternalDisagreements {
		internalDisagreement[c.Row] = true
	}

	for _, row := range a.Table.Rows {
		record := []string{
			strconv.Itoa(row.Number),
			row.Reference,
			strconv.FormatBool(!humanDisagreement[row.Number]),
			strconv.FormatBool(!internalDisagreement[row.Number]),
			row.Comment,
		}
		record = append(record, row.Codes...)
		record = append(record, row.Reference)
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%w: writing row %d to %q: %w", ErrWrite, row.Number, path, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: flushing %q: %w", ErrWrite, path, err)
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrWrite, path, err)
	}
	return nil
}
