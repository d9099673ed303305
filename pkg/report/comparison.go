package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/willbeason/coding-reliability/pkg/agreement"
	"github.com/willbeason/coding-reliability/pkg/comparison"
)

// ComparisonStem builds the shared base name of the comparison artifacts:
// Reliability_Analysis_<file1>_vs_<file2>_<iterations>, placed in the
// directory of the first input file.
func ComparisonStem(result *comparison.Result) string {
	file1 := result.A1.Table.Path
	file2 := result.A2.Table.Path
	name := fmt.Sprintf("Reliability_Analysis_%s_vs_%s_%d",
		filepath.Base(Stem(file1)), filepath.Base(Stem(file2)), result.Boot1.Iterations)
	return filepath.Join(filepath.Dir(file1), name)
}

// WriteComparison writes the comparison report (.txt), the flat Kappa table
// (.csv), and its Parquet copy. Artifacts are attempted independently;
// failures are joined without discarding what was already flushed.
func WriteComparison(result *comparison.Result) ([]string, error) {
	stem := ComparisonStem(result)

	var written []string
	var errs []error

	textPath := stem + ".txt"
	if err := writeFile(textPath, FormatComparison(result)); err != nil {
		errs = append(errs, err)
	} else {
		written = append(written, textPath)
	}

	rows := KappaRows(result.A1, result.A2)

	csvPath := stem + ".csv"
	if err := writeKappaCSV(csvPath, rows); err != nil {
		errs = append(errs, err)
	} else {
		written = append(written, csvPath)
	}

	parquetPath := stem + ".parquet"
	if err := WriteKappaParquet(parquetPath, rows); err != nil {
		errs = append(errs, err)
	} else {
		written = append(written, parquetPath)
	}

	return written, errors.Join(errs...)
}

// FormatComparison renders the two-analysis comparison report.
func FormatComparison(result *comparison.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Kappa Analysis Results (Bootstrap Iterations: %d) ===\n", result.Boot1.Iterations)
	fmt.Fprintf(&b, "Input Files: %s vs %s\n",
		filepath.Base(result.A1.Table.Path), filepath.Base(result.A2.Table.Path))
	fmt.Fprintf(&b, "Statistical Methods: Fisher's z transformation + Independent t-test (Kappa) and Z-test (AI-Human Disagreement Rate)\n")
	fmt.Fprintf(&b, "AI-Human Disagreement Rate: Proportion of cases where any AI rater disagrees with the human rater\n")
	fmt.Fprintf(&b, "Multiple Comparison Correction: Benjamini-Hochberg\n")
	fmt.Fprintf(&b, "Significance symbols: *** p<0.001, ** p<0.01, * p<0.05, ns not significant\n\n")

	boots := []comparison.BootstrapResult{result.Boot1, result.Boot2}
	for i, a := range []*agreement.Analysis{result.A1, result.A2} {
		writeAnalysisSummary(&b, i+1, a, boots[i])
	}

	fmt.Fprintf(&b, "=== Statistical Comparison Results ===\n")
	writeTTestLine(&b, "Inter-rater Comparison", result.Inter)
	writeTTestLine(&b, "Intra-rater Comparison", result.Intra)
	if result.Rate.Defined {
		fmt.Fprintf(&b, "AI-Human Disagreement Rate Comparison: Z=%.4f, p=%s %s\n",
			result.Rate.Z, pValue(result.Rate.P), comparison.Symbol(result.Rate.P))
	} else {
		fmt.Fprintf(&b, "AI-Human Disagreement Rate Comparison: Cannot compute (insufficient data)\n")
	}

	fmt.Fprintf(&b, "\n=== Multiple Comparison Corrected p-values (Benjamini-Hochberg) ===\n")
	labels := []string{"Inter-rater Comparison", "Intra-rater Comparison", "AI-Human Disagreement Rate Comparison"}
	for i, label := range labels {
		p := result.Corrected[i]
		fmt.Fprintf(&b, "%s (Corrected): p=%s %s\n", label, pValue(p), comparison.Symbol(p))
	}

	fmt.Fprintf(&b, "\n=== Non-parametric Test Verification ===\n")
	writeMannWhitneyLine(&b, "Inter-rater Mann-Whitney U", result.InterMW)
	writeMannWhitneyLine(&b, "Intra-rater Mann-Whitney U", result.IntraMW)

	return b.String()
}

func writeAnalysisSummary(b *strings.Builder, index int, a *agreement.Analysis, boot comparison.BootstrapResult) {
	interMean, interStd := agreement.SetStats(a.Inter)
	intraMean, intraStd := agreement.SetStats(a.Intra)

	fmt.Fprintf(b, "Analysis %d File: %s\n", index, filepath.Base(a.Table.Path))
	fmt.Fprintf(b, "Run ID: %s\n", a.RunID)
	fmt.Fprintf(b, "Data: %d cases\n", a.TotalCases)
	fmt.Fprintf(b, "Category Distribution (AI): %s\n", distribution(a.RaterDist))
	fmt.Fprintf(b, "Category Distribution (Human): %s\n", distribution(a.ReferenceDist))

	fmt.Fprintf(b, "\n=== Analysis %d Kappa Descriptive Statistics ===\n", index)
	fmt.Fprintf(b, "Inter-rater Reliability (AI vs Human): μ=%s, σ=%s\n", stat(interMean), stat(interStd))
	fmt.Fprintf(b, "Intra-rater Reliability (AI vs AI): μ=%s, σ=%s\n", stat(intraMean), stat(intraStd))

	parts := make([]string, 0, len(a.Raters))
	for i, rater := range a.Raters {
		parts = append(parts, fmt.Sprintf("%s: %s", rater, stat(a.CoderMeans[i])))
	}
	fmt.Fprintf(b, "Average Kappa per AI Coder: %s\n", strings.Join(parts, ", "))

	fmt.Fprintf(b, "AI-Human Disagreement Rate: %.4f (%d/%d cases)\n",
		a.DisagreementRate, len(a.Disagreements), a.TotalCases)

	fmt.Fprintf(b, "AI-Human Disagreement Distribution: ")
	for count, cases := range a.Distribution {
		if count > 0 {
			fmt.Fprintf(b, ", ")
		}
		fmt.Fprintf(b, "%d AI Disagreements=%d", count, cases)
	}
	fmt.Fprintf(b, "\n")

	fmt.Fprintf(b, "Bootstrap 95%% CI: inter-rater %s, intra-rater %s\n\n",
		interval(boot.Inter), interval(boot.Intra))
}

func writeTTestLine(b *strings.Builder, label string, t comparison.TTestResult) {
	if !t.Defined {
		fmt.Fprintf(b, "%s: Cannot compute (insufficient data)\n", label)
		return
	}
	fmt.Fprintf(b, "%s: t=%.3f, p=%s %s, Cohen's d=%.3f\n",
		label, t.T, pValue(t.P), comparison.Symbol(t.P), t.CohenD)
}

func writeMannWhitneyLine(b *strings.Builder, label string, mw comparison.MannWhitneyResult) {
	if !mw.Defined {
		fmt.Fprintf(b, "%s: Cannot compute (insufficient data)\n", label)
		return
	}
	fmt.Fprintf(b, "%s: U=%.1f, p=%s %s\n", label, mw.U, pValue(mw.P), comparison.Symbol(mw.P))
}

// writeKappaCSV exports the flat Kappa table: one row per rater pair per
// analysis. Undefined coefficients leave the kappa and se fields empty.
func writeKappaCSV(path string, rows []KappaRow) error {
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
	if err := writer.Write([]string{"analysis", "comparison", "kappa", "se", "cases"}); err != nil {
		return fmt.Errorf("%w: writing header to %q: %w", ErrWrite, path, err)
	}

	for _, row := range rows {
		record := []string{strconv.Itoa(row.Analysis), row.Comparison, "", "", strconv.Itoa(row.Cases)}
		if row.Defined {
			record[2] = strconv.FormatFloat(row.Kappa, 'f', 6, 64)
			record[3] = strconv.FormatFloat(row.SE, 'f', 6, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%w: writing to %q: %w", ErrWrite, path, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: flushing %q: %w", ErrWrite, path, err)
	}
	return nil
}
