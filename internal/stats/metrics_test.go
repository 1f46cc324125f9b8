package stats_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/stats"
	"github.com/lf-pro/cro/internal/testutil"
)

func metricsTable() *experiment.Table {
	return experiment.NewTable([]experiment.Observation{
		testutil.Row(0, experiment.Control, 100, 50),
		testutil.Row(0, experiment.Control, 0, 50),
		testutil.Row(1, experiment.Control, 60, 100),
		testutil.Row(0, experiment.New, 150, 100),
		testutil.Row(1, experiment.New, 0, 100),
	})
}

func TestMetrics_Totals(t *testing.T) {
	result, err := stats.Metrics(metricsTable())
	require.NoError(t, err)
	require.Len(t, result.Variants, 2)

	control, ok := result.Variant(experiment.Control)
	require.True(t, ok)
	assert.Equal(t, 160.0, control.Revenue)
	assert.Equal(t, 200, control.Sessions)
	assert.InDelta(t, 0.8, control.RPS, 1e-12)
	assert.Equal(t, 2, control.Conversions)
	assert.InDelta(t, 1.0, control.ConversionRate, 1e-12)
	assert.Less(t, control.ConversionLower, control.ConversionRate)
	assert.Greater(t, control.ConversionUpper, control.ConversionRate)

	treatment, ok := result.Variant(experiment.New)
	require.True(t, ok)
	assert.Equal(t, 150.0, treatment.Revenue)
	assert.InDelta(t, 0.75, treatment.RPS, 1e-12)
	assert.Equal(t, 1, treatment.Conversions)
	assert.InDelta(t, 0.5, treatment.ConversionRate, 1e-12)
}

func TestMetrics_DailyRPS(t *testing.T) {
	result, err := stats.Metrics(metricsTable())
	require.NoError(t, err)

	// Daily RPS pools the day's rows: (100 + 0) / (50 + 50).
	assert.Equal(t, []float64{1.0, 0.6}, result.Daily[experiment.Control].Values)
	assert.Equal(t, []float64{1.5, 0}, result.Daily[experiment.New].Values)
	assert.Equal(t, testutil.Start, result.Daily[experiment.New].Dates[0])
}

func TestMetrics_Comparison(t *testing.T) {
	result, err := stats.Metrics(metricsTable())
	require.NoError(t, err)
	require.NotNil(t, result.Comparison)

	require.NotNil(t, result.Comparison.RPS)
	assert.InDelta(t, -6.25, *result.Comparison.RPS, 1e-9)
	require.NotNil(t, result.Comparison.Sessions)
	assert.InDelta(t, 0, *result.Comparison.Sessions, 1e-12)
	require.NotNil(t, result.Comparison.ConversionRate)
	assert.InDelta(t, -50, *result.Comparison.ConversionRate, 1e-9)
}

func TestMetrics_SRM(t *testing.T) {
	result, err := stats.Metrics(metricsTable())
	require.NoError(t, err)

	assert.True(t, result.SRM.Applicable)
	assert.Equal(t, 1.0, result.SRM.PValue)
	assert.Equal(t, stats.VerdictNoSRM, result.SRM.Verdict)
}

func TestMetrics_ThreeVariantsSkipsSRM(t *testing.T) {
	table := metricsTable()
	table.Rows = append(table.Rows, testutil.Row(0, "Holdout", 10, 40))

	result, err := stats.Metrics(table)
	require.NoError(t, err)

	assert.Len(t, result.Variants, 3)
	assert.False(t, result.SRM.Applicable)
	assert.Equal(t, stats.ErrInvalidVariantCount.Error(), result.SRM.Reason)
}

func TestMetrics_NoComparisonWithoutControl(t *testing.T) {
	table := experiment.NewTable([]experiment.Observation{
		testutil.Row(0, "A", 10, 10),
		testutil.Row(0, "B", 12, 10),
	})

	result, err := stats.Metrics(table)
	require.NoError(t, err)
	assert.Nil(t, result.Comparison)
	assert.True(t, result.SRM.Applicable)
	assert.Equal(t, "B", result.SRM.Variant)
}

func TestMetrics_SchemaError(t *testing.T) {
	table := metricsTable()
	table.Columns = []string{experiment.ColumnDate, experiment.ColumnRevenue}

	result, err := stats.Metrics(table)
	assert.Nil(t, result)

	var schemaErr *experiment.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{experiment.ColumnVariant, experiment.ColumnSessions}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "variant, sessions")
}

func TestMetrics_VariantWithoutSessions(t *testing.T) {
	table := experiment.NewTable([]experiment.Observation{
		testutil.Row(0, experiment.Control, 10, 10),
		testutil.Row(0, experiment.New, 0, 0),
	})

	_, err := stats.Metrics(table)
	assert.ErrorIs(t, err, stats.ErrDivisionByZero)
}

func TestMetrics_Empty(t *testing.T) {
	_, err := stats.Metrics(experiment.NewTable(nil))
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
}
