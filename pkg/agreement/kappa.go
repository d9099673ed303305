// Package agreement computes chance-corrected agreement statistics between
// categorical raters: pairwise Cohen's Kappa, aggregate means, and
// disagreement case sets.
package agreement

import (
	"math"
)

// A Coefficient is Cohen's Kappa between two raters, with its large-sample
// standard error and the number of cases it was computed over.
//
// Kappa is undefined when either series is constant (zero expected
// variance): Defined is false and Value and SE must not be read. Aggregates
// skip undefined coefficients rather than propagating NaN.
type Coefficient struct {
	RaterA string
	RaterB string

	Value float64
	SE    float64
	N     int

	Defined bool
}

// A Stat is a scalar statistic that may be uncomputable for degenerate
// input.
type Stat struct {
	Value   float64
	Defined bool
}

// Cohen computes unweighted nominal Cohen's Kappa between two equal-length
// code series.
//
// Kappa = (po - pe) / (1 - pe), where po is the observed agreement
// proportion and pe the agreement expected by chance from the two marginal
// distributions. The standard error is the large-sample approximation
// sqrt(po*(1-po) / (n*(1-pe)^2)).
func Cohen(raterA, raterB string, a, b []string) Coefficient {
	coefficient := Coefficient{RaterA: raterA, RaterB: raterB, N: len(a)}
	if len(a) == 0 || len(a) != len(b) {
		return coefficient
	}

	countsA := make(map[string]int)
	countsB := make(map[string]int)
	matches := 0
	for i := range a {
		countsA[a[i]]++
		countsB[b[i]]++
		if a[i] == b[i] {
			matches++
		}
	}

	if len(countsA) < 2 || len(countsB) < 2 {
		// Constant series: chance agreement is saturated and Kappa has no
		// meaningful value.
		return coefficient
	}

	n := float64(len(a))
	po := float64(matches) / n
	pe := 0.0
	for category, countA := range countsA {
		pe += (float64(countA) / n) * (float64(countsB[category]) / n)
	}

	if 1.0-pe < 1e-12 {
		return coefficient
	}

	coefficient.Value = (po - pe) / (1.0 - pe)
	coefficient.SE = math.Sqrt(po * (1.0 - po) / (n * (1.0 - pe) * (1.0 - pe)))
	coefficient.Defined = true
	return coefficient
}

// MeanKappa averages the defined coefficients of a set.
//
// The mean of an empty set is 0.0 (a single-rater analysis has no rater
// pairs, not an uncomputable statistic). A non-empty set whose members are
// all undefined yields an undefined mean.
func MeanKappa(set []Coefficient) Stat {
	if len(set) == 0 {
		return Stat{Value: 0, Defined: true}
	}
	sum := 0.0
	count := 0
	for _, coefficient := range set {
		if !coefficient.Defined {
			continue
		}
		sum += coefficient.Value
		count++
	}
	if count == 0 {
		return Stat{Value: math.NaN()}
	}
	return Stat{Value: sum / float64(count), Defined: true}
}

// SetStats returns the mean and population standard deviation of the
// defined coefficients in a set, for descriptive reporting. Unlike
// MeanKappa, an empty set is uncomputable rather than 0.
func SetStats(set []Coefficient) (mean, std Stat) {
	stats := make([]Stat, 0, len(set))
	for _, coefficient := range set {
		if coefficient.Defined {
			stats = append(stats, Stat{Value: coefficient.Value, Defined: true})
		}
	}
	return meanStd(stats)
}

// meanStd returns the mean and population standard deviation of the defined
// members of stats.
func meanStd(stats []Stat) (mean, std Stat) {
	var values []float64
	for _, s := range stats {
		if s.Defined {
			values = append(values, s.Value)
		}
	}
	if len(values) == 0 {
		return Stat{Value: math.NaN()}, Stat{Value: math.NaN()}
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(values))

	return Stat{Value: m, Defined: true}, Stat{Value: math.Sqrt(variance), Defined: true}
}
