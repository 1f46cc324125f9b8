package stats

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lf-pro/cro/internal/experiment"
)

// BayesSamples is the number of posterior draws per variant.
const BayesSamples = 10000

// Beta(2, 2) prior shared by both variants.
const (
	betaPriorAlpha = 2
	betaPriorBeta  = 2
)

// Scale is a min-max transform onto [0, 1].
type Scale struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Apply maps x onto the scale.
func (s Scale) Apply(x float64) float64 {
	return (x - s.Min) / (s.Max - s.Min)
}

// ApplyAll returns a scaled copy of values.
func (s Scale) ApplyAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.Apply(v)
	}
	return out
}

// Rescale scales both series jointly with the min and max of the pooled
// values, so the smallest observation maps to 0 and the largest to 1.
func Rescale(control, treatment []float64) (Scale, []float64, []float64, error) {
	if len(control) == 0 || len(treatment) == 0 {
		return Scale{}, nil, nil, ErrInsufficientData
	}

	s := Scale{
		Min: min(floats.Min(control), floats.Min(treatment)),
		Max: max(floats.Max(control), floats.Max(treatment)),
	}
	if s.Max == s.Min {
		return Scale{}, nil, nil, ErrDegenerateRange
	}
	return s, s.ApplyAll(control), s.ApplyAll(treatment), nil
}

// BetaPosterior holds the parameters of a Beta posterior.
type BetaPosterior struct {
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
}

// UpdateBeta folds scaled observations into the Beta(2, 2) prior, counting
// each value as a fractional success and its complement as a failure.
func UpdateBeta(scaled []float64) BetaPosterior {
	sum := floats.Sum(scaled)
	return BetaPosterior{
		Alpha: betaPriorAlpha + sum,
		Beta:  betaPriorBeta + float64(len(scaled)) - sum,
	}
}

// Dist returns the posterior as a gonum distribution drawing from src.
func (p BetaPosterior) Dist(src rand.Source) distuv.Beta {
	return distuv.Beta{Alpha: p.Alpha, Beta: p.Beta, Src: src}
}

// BayesResult is the outcome of a Bayesian comparison.
type BayesResult struct {
	Control       Estimate `json:"control" yaml:"control"`
	New           Estimate `json:"new" yaml:"new"`
	ProbNewBetter float64  `json:"prob_new_better" yaml:"prob_new_better"`
	Verdict       Verdict  `json:"verdict" yaml:"verdict"`

	// Scaled is set when Control and New are reported on the [0, 1] scale
	// described by Scale rather than in RPV units.
	Scaled bool   `json:"scaled" yaml:"scaled"`
	Scale  *Scale `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// BayesBeta compares the variants with Beta posteriors fitted to their
// min-max scaled daily RPV. Estimates stay on the scaled axis.
func BayesBeta(t *experiment.Table, src rand.Source) (*BayesResult, error) {
	rpv, err := DailyRPV(t)
	if err != nil {
		return nil, err
	}

	scale, control, treatment, err := Rescale(rpv.Control.Values, rpv.New.Values)
	if err != nil {
		return nil, err
	}

	controlPost := UpdateBeta(control).Dist(src)
	newPost := UpdateBeta(treatment).Dist(src)

	result := comparePosteriors(draw(controlPost, BayesSamples), draw(newPost, BayesSamples))
	result.Scaled = true
	result.Scale = &scale
	return result, nil
}

type sampler interface {
	Rand() float64
}

func draw(d sampler, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = d.Rand()
	}
	return samples
}

// comparePosteriors summarises index-matched posterior draws. The slices
// are sorted in place.
func comparePosteriors(control, treatment []float64) *BayesResult {
	wins := 0
	for i := range control {
		if treatment[i] > control[i] {
			wins++
		}
	}
	p := float64(wins) / float64(len(control))

	result := &BayesResult{
		Control:       Estimate{Mean: floats.Sum(control) / float64(len(control))},
		New:           Estimate{Mean: floats.Sum(treatment) / float64(len(treatment))},
		ProbNewBetter: p,
		Verdict:       ProbabilityVerdict(p),
	}
	result.Control.Lower, result.Control.Upper = interval(control)
	result.New.Lower, result.New.Upper = interval(treatment)
	return result
}
