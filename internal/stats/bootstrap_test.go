package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/stats"
	"github.com/lf-pro/cro/internal/testutil"
)

func TestBootstrap_ConstantSeriesCollapses(t *testing.T) {
	table := testutil.ConstantRPV(10, 2.5, 2.5, 40)

	result, err := stats.Bootstrap(table, stats.NewSource(1))
	require.NoError(t, err)

	assert.InDelta(t, 2.5, result.Control.Lower, 1e-12)
	assert.InDelta(t, 2.5, result.Control.Upper, 1e-12)
	assert.InDelta(t, 2.5, result.New.Lower, 1e-12)
	assert.InDelta(t, 2.5, result.New.Upper, 1e-12)
	assert.InDelta(t, 0, result.Difference.Lower, 1e-12)
	assert.InDelta(t, 0, result.Difference.Upper, 1e-12)
	assert.Equal(t, stats.VerdictInconclusive, result.Verdict)
}

func TestBootstrap_SingleDayStillResamples(t *testing.T) {
	table := testutil.SeriesRPV([]float64{1}, []float64{3}, 10)

	result, err := stats.Bootstrap(table, stats.NewSource(7))
	require.NoError(t, err)

	assert.Equal(t, [2]int{1, 1}, result.Days)
	assert.InDelta(t, 2, result.Difference.Lower, 1e-12)
	assert.InDelta(t, 2, result.Difference.Upper, 1e-12)
	assert.Equal(t, 0.0, result.PValue)
	assert.Equal(t, stats.VerdictNewSuperior, result.Verdict)
	assert.Equal(t, stats.RecommendImplementNew, result.Recommendation)
}

func TestBootstrap_IdenticalSeriesPValueNearHalf(t *testing.T) {
	values := []float64{0.8, 1.1, 0.95, 1.3, 0.7, 1.05, 1.2, 0.9, 1.0, 1.15, 0.85, 1.25, 0.75, 1.4}
	table := testutil.SeriesRPV(values, values, 100)

	result, err := stats.Bootstrap(table, stats.NewSource(2024))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.PValue, 0.0)
	assert.LessOrEqual(t, result.PValue, 1.0)
	assert.InDelta(t, 0.5, result.PValue, 0.05)
	assert.InDelta(t, 1-result.PValue, result.ProbNewBetter, 1e-12)
	assert.Equal(t, stats.VerdictInconclusive, result.Verdict)
	assert.Equal(t, stats.RecommendKeepControl, result.Recommendation)
}

func TestBootstrap_NewInferior(t *testing.T) {
	control := []float64{2.0, 2.1, 1.9, 2.2, 2.05, 1.95, 2.1}
	treatment := []float64{1.0, 1.1, 0.9, 1.2, 1.05, 0.95, 1.1}
	table := testutil.SeriesRPV(control, treatment, 50)

	result, err := stats.Bootstrap(table, stats.NewSource(3))
	require.NoError(t, err)

	assert.Less(t, result.Difference.Upper, 0.0)
	assert.Equal(t, stats.VerdictNewInferior, result.Verdict)
	assert.Equal(t, 1.0, result.PValue)
	require.NotNil(t, result.Lift)
	assert.Less(t, *result.Lift, 0.0)
}

func TestBootstrap_LiftUndefinedForZeroControl(t *testing.T) {
	table := testutil.SeriesRPV([]float64{0, 0, 0}, []float64{1, 2, 3}, 10)

	result, err := stats.Bootstrap(table, stats.NewSource(3))
	require.NoError(t, err)
	assert.Nil(t, result.Lift)
}

func TestBootstrap_SeededRunsAreReproducible(t *testing.T) {
	table := testutil.SeriesRPV([]float64{1, 2, 3, 4, 5}, []float64{2, 3, 4, 5, 6}, 10)

	first, err := stats.Bootstrap(table, stats.NewSource(99))
	require.NoError(t, err)
	second, err := stats.Bootstrap(table, stats.NewSource(99))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBootstrap_FailsBeforeSampling(t *testing.T) {
	table := experiment.NewTable([]experiment.Observation{
		testutil.Row(0, experiment.New, 10, 10),
	})

	result, err := stats.Bootstrap(table, stats.NewSource(1))
	assert.ErrorIs(t, err, stats.ErrMissingVariant)
	assert.Nil(t, result)
}
