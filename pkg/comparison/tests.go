// Package comparison statistically compares two independent agreement
// analyses: Fisher z-transformed Kappa sets under independent t-tests,
// disagreement rates under a two-proportion Z-test, Mann-Whitney U
// verification, and Benjamini-Hochberg correction over the family of
// p-values.
package comparison

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/willbeason/coding-reliability/pkg/agreement"
)

// A PValue is a p-value that may be uncomputable for degenerate input.
// Undefined p-values are reported as "cannot compute" and propagate through
// multiple-comparison correction without crashing it.
type PValue struct {
	Value   float64
	Defined bool
}

// A ZKappa is a Fisher z-transformed Kappa with its transformed-domain
// variance 1/(n-3).
type ZKappa struct {
	Z        float64
	Variance float64
	Defined  bool
}

// FisherZ applies the variance-stabilizing transform z = atanh(k) to a
// Kappa coefficient. Undefined for undefined Kappa or when the backing case
// count n makes 1/(n-3) meaningless. Values at the |k| = 1 singularity are
// nudged inside the open interval before transforming.
func FisherZ(k agreement.Coefficient) ZKappa {
	if !k.Defined || k.N <= 3 {
		return ZKappa{}
	}

	value := math.Max(-1+1e-7, math.Min(1-1e-7, k.Value))
	return ZKappa{
		Z:        math.Atanh(value),
		Variance: 1.0 / float64(k.N-3),
		Defined:  true,
	}
}

// TransformSet Fisher-transforms a coefficient set, keeping only the
// defined results.
func TransformSet(set []agreement.Coefficient) []float64 {
	var zs []float64
	for _, k := range set {
		if z := FisherZ(k); z.Defined {
			zs = append(zs, z.Z)
		}
	}
	return zs
}

// A TTestResult is an independent two-sample t-test with Cohen's d computed
// on the same (transformed) values using the pooled standard deviation.
type TTestResult struct {
	T       float64
	DF      float64
	P       PValue
	CohenD  float64
	Defined bool
}

// TTest runs an independent two-sample pooled-variance t-test. Fewer than
// two values on either side cannot be tested; the result is reported as
// uncomputable rather than raising.
func TTest(xs, ys []float64) TTestResult {
	if len(xs) < 2 || len(ys) < 2 {
		return TTestResult{P: PValue{Value: math.NaN()}}
	}

	n1, n2 := float64(len(xs)), float64(len(ys))
	m1, m2 := stat.Mean(xs, nil), stat.Mean(ys, nil)
	v1, v2 := stat.Variance(xs, nil), stat.Variance(ys, nil)

	pooled := ((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2)
	if pooled == 0 {
		if m1 == m2 {
			// Both sets constant and equal: no difference to test.
			return TTestResult{T: 0, DF: n1 + n2 - 2, P: PValue{Value: 1, Defined: true}, Defined: true}
		}
		return TTestResult{P: PValue{Value: math.NaN()}}
	}

	t := (m1 - m2) / math.Sqrt(pooled*(1/n1+1/n2))
	df := n1 + n2 - 2

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))

	return TTestResult{
		T:       t,
		DF:      df,
		P:       PValue{Value: p, Defined: true},
		CohenD:  (m1 - m2) / math.Sqrt(pooled),
		Defined: true,
	}
}

// A ZTestResult is a two-proportion Z-test on disagreement rates.
type ZTestResult struct {
	Z       float64
	P       PValue
	Defined bool
}

// TwoProportionZ compares two proportions c1/n1 and c2/n2 with the
// pooled-proportion standard error:
//
//	Z = (p1 - p2) / sqrt(p*(1-p)*(1/n1 + 1/n2)), p = (c1+c2)/(n1+n2)
func TwoProportionZ(c1, n1, c2, n2 int) ZTestResult {
	if n1 == 0 || n2 == 0 {
		return ZTestResult{P: PValue{Value: math.NaN()}}
	}

	p1 := float64(c1) / float64(n1)
	p2 := float64(c2) / float64(n2)
	pooled := float64(c1+c2) / float64(n1+n2)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		if p1 == p2 {
			return ZTestResult{Z: 0, P: PValue{Value: 1, Defined: true}, Defined: true}
		}
		return ZTestResult{P: PValue{Value: math.NaN()}}
	}

	z := (p1 - p2) / se
	p := 2 * distuv.UnitNormal.CDF(-math.Abs(z))

	return ZTestResult{Z: z, P: PValue{Value: p, Defined: true}, Defined: true}
}

// A MannWhitneyResult is the non-parametric corroboration of a t-test. It
// is reported alongside the parametric result, never substituted for it.
type MannWhitneyResult struct {
	U       float64
	P       PValue
	Defined bool
}

// MannWhitney runs a two-sided Mann-Whitney U test using the normal
// approximation with tie correction and continuity correction.
func MannWhitney(xs, ys []float64) MannWhitneyResult {
	if len(xs) < 2 || len(ys) < 2 {
		return MannWhitneyResult{P: PValue{Value: math.NaN()}}
	}

	n1, n2 := float64(len(xs)), float64(len(ys))
	total := len(xs) + len(ys)

	type ranked struct {
		value float64
		x     bool
	}
	combined := make([]ranked, 0, total)
	for _, v := range xs {
		combined = append(combined, ranked{value: v, x: true})
	}
	for _, v := range ys {
		combined = append(combined, ranked{value: v})
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].value < combined[j].value })

	// Average ranks across ties, accumulating the tie correction term
	// sum(t^3 - t) as we go.
	ranks := make([]float64, total)
	tieTerm := 0.0
	for i := 0; i < total; {
		j := i
		for j < total && combined[j].value == combined[i].value {
			j++
		}
		averageRank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[k] = averageRank
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		i = j
	}

	r1 := 0.0
	for i, entry := range combined {
		if entry.x {
			r1 += ranks[i]
		}
	}

	u1 := r1 - n1*(n1+1)/2
	u2 := n1*n2 - u1
	u := math.Min(u1, u2)

	mu := n1 * n2 / 2
	nTotal := n1 + n2
	variance := n1 * n2 / 12 * ((nTotal + 1) - tieTerm/(nTotal*(nTotal-1)))
	if variance <= 0 {
		// Every value tied: the distributions are indistinguishable.
		return MannWhitneyResult{U: u, P: PValue{Value: 1, Defined: true}, Defined: true}
	}

	z := (u - mu + 0.5) / math.Sqrt(variance)
	p := math.Min(1, 2*distuv.UnitNormal.CDF(z))

	return MannWhitneyResult{U: u, P: PValue{Value: p, Defined: true}, Defined: true}
}

// Symbol maps a p-value to the conventional significance marker. Undefined
// p-values map to "n/a".
func Symbol(p PValue) string {
	switch {
	case !p.Defined:
		return "n/a"
	case p.Value < 0.001:
		return "***"
	case p.Value < 0.01:
		return "**"
	case p.Value < 0.05:
		return "*"
	default:
		return "ns"
	}
}
