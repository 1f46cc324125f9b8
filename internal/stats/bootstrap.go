package stats

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/lf-pro/cro/internal/experiment"
)

// BootstrapReplicates is the number of resamples drawn per variant.
const BootstrapReplicates = 10000

// Estimate is a point estimate with its 90% interval.
type Estimate struct {
	Mean  float64 `json:"mean" yaml:"mean"`
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// BootstrapResult is the outcome of the bootstrap comparison of daily RPV.
type BootstrapResult struct {
	Control        Estimate       `json:"control" yaml:"control"`
	New            Estimate       `json:"new" yaml:"new"`
	Difference     Estimate       `json:"difference" yaml:"difference"`
	PValue         float64        `json:"p_value" yaml:"p_value"`
	ProbNewBetter  float64        `json:"prob_new_better" yaml:"prob_new_better"`
	Lift           *float64       `json:"lift,omitempty" yaml:"lift,omitempty"`
	Days           [2]int         `json:"days" yaml:"days"`
	Verdict        Verdict        `json:"verdict" yaml:"verdict"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
}

// Bootstrap resamples each variant's daily RPV independently and compares
// the distributions of resampled means. PValue is the share of replicates
// where New minus Control is negative.
func Bootstrap(t *experiment.Table, src rand.Source) (*BootstrapResult, error) {
	rpv, err := DailyRPV(t)
	if err != nil {
		return nil, err
	}
	control, treatment := rpv.Control.Values, rpv.New.Values
	if len(control) == 0 || len(treatment) == 0 {
		return nil, ErrInsufficientData
	}

	rng := rand.New(src)
	bootControl := resampleMeans(rng, control, BootstrapReplicates)
	bootNew := resampleMeans(rng, treatment, BootstrapReplicates)

	diff := make([]float64, BootstrapReplicates)
	floats.SubTo(diff, bootNew, bootControl)
	below := floats.Count(func(d float64) bool { return d < 0 }, diff)
	pValue := float64(below) / float64(BootstrapReplicates)

	result := &BootstrapResult{
		Control:        Estimate{Mean: stat.Mean(control, nil)},
		New:            Estimate{Mean: stat.Mean(treatment, nil)},
		Difference:     Estimate{Mean: stat.Mean(diff, nil)},
		PValue:         pValue,
		ProbNewBetter:  1 - pValue,
		Days:           [2]int{len(control), len(treatment)},
		Recommendation: PValueRecommendation(pValue),
	}
	result.Control.Lower, result.Control.Upper = interval(bootControl)
	result.New.Lower, result.New.Upper = interval(bootNew)
	result.Difference.Lower, result.Difference.Upper = interval(diff)
	result.Verdict = IntervalVerdict(result.Difference)
	result.Lift = lift(result.New.Mean, result.Control.Mean)

	return result, nil
}

// resampleMeans draws b resamples of data with replacement, each as long as
// data, and returns their means.
func resampleMeans(rng *rand.Rand, data []float64, b int) []float64 {
	n := len(data)
	means := make([]float64, b)
	sample := make([]float64, n)
	for i := range means {
		for j := range sample {
			sample[j] = data[rng.IntN(n)]
		}
		means[i] = floats.Sum(sample) / float64(n)
	}
	return means
}

// lift returns the percentage change of value over base, or nil when base
// is zero.
func lift(value, base float64) *float64 {
	if base == 0 {
		return nil
	}
	l := (value/base - 1) * 100
	return &l
}
