package stats

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lf-pro/cro/internal/experiment"
)

// NormalPosterior approximates the posterior of a variant's mean RPV.
type NormalPosterior struct {
	Mu    float64 `json:"mu" yaml:"mu"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
}

// FitNormal parameterizes the posterior with the sample mean and the
// standard error of the mean (population standard deviation over sqrt(n)).
func FitNormal(values []float64) (NormalPosterior, error) {
	if len(values) == 0 {
		return NormalPosterior{}, ErrInsufficientData
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return NormalPosterior{
		Mu:    mean,
		Sigma: stat.StdErr(std, float64(len(values))),
	}, nil
}

// Dist returns the posterior as a gonum distribution drawing from src.
func (p NormalPosterior) Dist(src rand.Source) distuv.Normal {
	return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma, Src: src}
}

// BayesNormal compares the variants with Normal posteriors on raw daily
// RPV; estimates are in RPV units.
func BayesNormal(t *experiment.Table, src rand.Source) (*BayesResult, error) {
	rpv, err := DailyRPV(t)
	if err != nil {
		return nil, err
	}

	controlPost, err := FitNormal(rpv.Control.Values)
	if err != nil {
		return nil, err
	}
	newPost, err := FitNormal(rpv.New.Values)
	if err != nil {
		return nil, err
	}

	return comparePosteriors(
		draw(controlPost.Dist(src), BayesSamples),
		draw(newPost.Dist(src), BayesSamples),
	), nil
}
