package stats

import (
	"math"
	"sort"
)

// Percentile returns the q-th percentile (0-100) of sorted, interpolating
// linearly between the two closest ranks. sorted must be ascending and
// non-empty.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// interval sorts values in place and returns their 5th and 95th percentiles.
func interval(values []float64) (lower, upper float64) {
	sort.Float64s(values)
	return Percentile(values, 5), Percentile(values, 95)
}
