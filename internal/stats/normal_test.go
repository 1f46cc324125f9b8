package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lf-pro/cro/internal/stats"
	"github.com/lf-pro/cro/internal/testutil"
)

func TestFitNormal(t *testing.T) {
	post, err := stats.FitNormal([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)

	// Population standard deviation is 2, n is 8.
	assert.InDelta(t, 5, post.Mu, 1e-12)
	assert.InDelta(t, 2/math.Sqrt(8), post.Sigma, 1e-12)
}

func TestFitNormal_SingleValue(t *testing.T) {
	post, err := stats.FitNormal([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, stats.NormalPosterior{Mu: 3, Sigma: 0}, post)
}

func TestFitNormal_Empty(t *testing.T) {
	_, err := stats.FitNormal(nil)
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
}

func TestBayesNormal_ReportsRPVUnits(t *testing.T) {
	control := []float64{1.0, 1.2, 0.9, 1.1, 1.05, 0.95, 1.0}
	treatment := []float64{1.1, 1.3, 1.0, 1.2, 1.15, 1.05, 1.1}
	table := testutil.SeriesRPV(control, treatment, 100)

	result, err := stats.BayesNormal(table, stats.NewSource(8))
	require.NoError(t, err)

	assert.False(t, result.Scaled)
	assert.Nil(t, result.Scale)
	assert.InDelta(t, 1.0286, result.Control.Mean, 0.01)
	assert.InDelta(t, 1.1286, result.New.Mean, 0.01)
	assert.Less(t, result.Control.Lower, result.Control.Mean)
	assert.Greater(t, result.Control.Upper, result.Control.Mean)
	assert.Greater(t, result.ProbNewBetter, 0.9)
}

func TestBayesNormal_SameDataIsInconclusive(t *testing.T) {
	values := []float64{1.0, 1.2, 0.9, 1.1, 1.05, 0.95, 1.0, 1.3, 0.8}
	table := testutil.SeriesRPV(values, values, 100)

	result, err := stats.BayesNormal(table, stats.NewSource(21))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, result.ProbNewBetter, 0.03)
	assert.Equal(t, stats.VerdictInconclusive, result.Verdict)
}

func TestProbabilityVerdict(t *testing.T) {
	tests := []struct {
		p        float64
		expected stats.Verdict
	}{
		{1.0, stats.VerdictNewStronglySuperior},
		{0.951, stats.VerdictNewStronglySuperior},
		{0.95, stats.VerdictNewProbablySuperior},
		{0.91, stats.VerdictNewProbablySuperior},
		{0.90, stats.VerdictInconclusive},
		{0.5, stats.VerdictInconclusive},
		{0.10, stats.VerdictInconclusive},
		{0.099, stats.VerdictNewProbablyInferior},
		{0.05, stats.VerdictNewProbablyInferior},
		{0.049, stats.VerdictNewStronglyInferior},
		{0, stats.VerdictNewStronglyInferior},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, stats.ProbabilityVerdict(tt.p), "p=%v", tt.p)
	}
}

func TestPValueRecommendation(t *testing.T) {
	assert.Equal(t, stats.RecommendImplementNew, stats.PValueRecommendation(0.01))
	assert.Equal(t, stats.RecommendKeepTesting, stats.PValueRecommendation(0.07))
	assert.Equal(t, stats.RecommendKeepControl, stats.PValueRecommendation(0.4))
}
