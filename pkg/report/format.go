// Package report formats computed agreement statistics into narrative text
// reports and structured tabular exports (CSV and Parquet).
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/willbeason/coding-reliability/pkg/agreement"
	"github.com/willbeason/coding-reliability/pkg/comparison"
)

// ErrWrite indicates a report artifact could not be written. Computation
// results are unaffected; callers report the failure and keep whatever
// artifacts were already flushed.
var ErrWrite = errors.New("writing results")

// MaxEnumeratedCases caps how many disagreement cases of each category the
// narrative report enumerates.
const MaxEnumeratedCases = 5

func kappa(k agreement.Coefficient) string {
	if !k.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", k.Value)
}

func stat(s agreement.Stat) string {
	if !s.Defined {
		return "cannot compute"
	}
	return fmt.Sprintf("%.4f", s.Value)
}

func pValue(p comparison.PValue) string {
	if !p.Defined {
		return "cannot compute"
	}
	return fmt.Sprintf("%.6f", p.Value)
}

func interval(i comparison.Interval) string {
	if !i.Defined {
		return "cannot compute"
	}
	return fmt.Sprintf("[%.4f, %.4f]", i.Low, i.High)
}

// distribution formats category frequencies in category order.
func distribution(dist map[string]float64) string {
	categories := make([]string, 0, len(dist))
	for category := range dist {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	parts := make([]string, 0, len(categories))
	for _, category := range categories {
		parts = append(parts, fmt.Sprintf("%s: %.3f", category, dist[category]))
	}
	return strings.Join(parts, ", ")
}

func pairLabel(k agreement.Coefficient) string {
	return k.RaterA + "-" + k.RaterB
}
