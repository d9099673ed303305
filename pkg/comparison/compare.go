package comparison

import (
	"github.com/willbeason/coding-reliability/pkg/agreement"
)

// A Result compares two independent agreement analyses. It is produced
// fresh per comparison run and never mutated afterwards.
type Result struct {
	A1, A2       *agreement.Analysis
	Boot1, Boot2 BootstrapResult

	// Inter and Intra are the parametric tests on the Fisher
	// z-transformed Kappa sets; InterMW and IntraMW the non-parametric
	// verification of each, reported alongside.
	Inter   TTestResult
	Intra   TTestResult
	InterMW MannWhitneyResult
	IntraMW MannWhitneyResult

	// Rate compares the two disagreement rates.
	Rate ZTestResult

	// Corrected holds the Benjamini-Hochberg corrected p-values for the
	// three comparison families, in order: inter-rater, intra-rater,
	// disagreement rate.
	Corrected [3]PValue
}

// Compare runs every comparison test between two analyses and corrects the
// resulting family of p-values.
func Compare(a1, a2 *agreement.Analysis, boot1, boot2 BootstrapResult) *Result {
	result := &Result{A1: a1, A2: a2, Boot1: boot1, Boot2: boot2}

	interZ1 := TransformSet(a1.Inter)
	interZ2 := TransformSet(a2.Inter)
	intraZ1 := TransformSet(a1.Intra)
	intraZ2 := TransformSet(a2.Intra)

	result.Inter = TTest(interZ1, interZ2)
	result.Intra = TTest(intraZ1, intraZ2)
	result.InterMW = MannWhitney(interZ1, interZ2)
	result.IntraMW = MannWhitney(intraZ1, intraZ2)

	result.Rate = TwoProportionZ(
		len(a1.Disagreements), a1.TotalCases,
		len(a2.Disagreements), a2.TotalCases,
	)

	corrected := BenjaminiHochberg([]PValue{result.Inter.P, result.Intra.P, result.Rate.P})
	copy(result.Corrected[:], corrected)

	return result
}
