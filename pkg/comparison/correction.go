package comparison

import (
	"math"
	"sort"
)

// BenjaminiHochberg applies false-discovery-rate correction across a family
// of p-values.
//
// Undefined inputs stay undefined and do not count toward the family size
// m. Corrected values satisfy the usual invariants: monotonically
// non-decreasing in raw-p order, each at least its raw p, and capped at 1.
func BenjaminiHochberg(ps []PValue) []PValue {
	corrected := make([]PValue, len(ps))
	copy(corrected, ps)

	var order []int
	for i, p := range ps {
		if p.Defined {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return corrected
	}

	sort.Slice(order, func(a, b int) bool {
		return ps[order[a]].Value < ps[order[b]].Value
	})

	m := float64(len(order))
	running := math.Inf(1)
	for rank := len(order); rank >= 1; rank-- {
		i := order[rank-1]
		adjusted := ps[i].Value * m / float64(rank)
		running = math.Min(running, adjusted)
		corrected[i] = PValue{Value: math.Min(1, running), Defined: true}
	}

	return corrected
}
