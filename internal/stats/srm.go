package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// SRMExpectedRatio is the traffic share each arm should receive.
const SRMExpectedRatio = 0.5

// SRMAlpha is the significance level below which a mismatch is reported.
const SRMAlpha = 0.05

// SRMResult is the outcome of the sample ratio mismatch check.
type SRMResult struct {
	Applicable bool   `json:"applicable" yaml:"applicable"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Variant is the arm whose share was tested.
	Variant       string  `json:"variant,omitempty" yaml:"variant,omitempty"`
	Sessions      int     `json:"sessions" yaml:"sessions"`
	TotalSessions int     `json:"total_sessions" yaml:"total_sessions"`
	ExpectedRatio float64 `json:"expected_ratio" yaml:"expected_ratio"`
	ObservedRatio float64 `json:"observed_ratio" yaml:"observed_ratio"`
	PValue        float64 `json:"p_value" yaml:"p_value"`
	Detected      bool    `json:"detected" yaml:"detected"`
	Verdict       Verdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// SRM runs an exact binomial test of the session split between two
// variants against an even allocation. Any other number of variants makes
// the check not applicable rather than failing.
func SRM(sessions map[string]int) SRMResult {
	if len(sessions) != 2 {
		return SRMResult{Reason: ErrInvalidVariantCount.Error()}
	}

	labels := make([]string, 0, 2)
	total := 0
	for label, n := range sessions {
		labels = append(labels, label)
		total += n
	}
	if total <= 0 {
		return SRMResult{Reason: ErrInsufficientData.Error()}
	}
	sort.Strings(labels)

	tested := labels[1]
	k := sessions[tested]
	p := BinomialTest(k, total, SRMExpectedRatio)

	result := SRMResult{
		Applicable:    true,
		Variant:       tested,
		Sessions:      k,
		TotalSessions: total,
		ExpectedRatio: SRMExpectedRatio,
		ObservedRatio: float64(k) / float64(total),
		PValue:        p,
		Detected:      p < SRMAlpha,
		Verdict:       VerdictNoSRM,
	}
	if result.Detected {
		result.Verdict = VerdictSRMDetected
	}
	return result
}

// BinomialTest returns the exact two-sided p-value of observing k successes
// in n trials with success probability p: the total probability of all
// outcomes no more likely than k.
func BinomialTest(k, n int, p float64) float64 {
	if n <= 0 || k < 0 || k > n {
		return math.NaN()
	}

	b := distuv.Binomial{N: float64(n), P: p}
	mean := p * float64(n)
	if float64(k) == mean {
		return 1
	}

	// Relative tolerance for outcomes as likely as k.
	d := b.Prob(float64(k)) * (1 + 1e-7)

	var pval float64
	if float64(k) < mean {
		// Outcomes above the mode no more likely than k.
		ix := searchBinom(func(x int) float64 { return -b.Prob(float64(x)) }, -d, int(math.Ceil(mean)), n)
		y := n - ix
		if d == b.Prob(float64(ix)) {
			y++
		}
		pval = b.CDF(float64(k)) + binomSurvival(n-y, n, p)
	} else {
		// Outcomes below the mode no more likely than k.
		ix := searchBinom(func(x int) float64 { return b.Prob(float64(x)) }, d, 0, int(math.Floor(mean)))
		y := ix + 1
		pval = b.CDF(float64(y-1)) + binomSurvival(k-1, n, p)
	}
	return math.Min(1, pval)
}

// searchBinom returns the largest x in [lo, hi] with f(x) <= d, for f
// increasing on that range.
func searchBinom(f func(int) float64, d float64, lo, hi int) int {
	for lo < hi {
		mid := lo + (hi-lo)/2
		v := f(mid)
		switch {
		case v < d:
			lo = mid + 1
		case v > d:
			hi = mid - 1
		default:
			return mid
		}
	}
	if f(lo) <= d {
		return lo
	}
	return lo - 1
}

// binomSurvival is P(X > x) for X ~ Binomial(n, p), computed directly
// instead of as 1 - CDF to keep precision in the far tail.
func binomSurvival(x, n int, p float64) float64 {
	switch {
	case x < 0:
		return 1
	case x >= n:
		return 0
	}
	return mathext.RegIncBeta(float64(x+1), float64(n-x), p)
}
