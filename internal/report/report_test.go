package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lf-pro/cro/internal/analysis"
	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/stats"
	"github.com/lf-pro/cro/internal/testutil"
)

func runReport(t *testing.T, table *experiment.Table) *analysis.Report {
	t.Helper()
	r, err := analysis.NewRunner(zerolog.New(io.Discard)).Run(context.Background(), table, analysis.Options{
		Methods: analysis.AllMethods,
		Seed:    3,
	})
	require.NoError(t, err)
	return r
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite_Text(t *testing.T) {
	r := runReport(t, testutil.ConstantRPV(14, 1.0, 1.2, 250))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, FormatText))
	out := buf.String()

	assert.Contains(t, out, r.ID.String())
	assert.Contains(t, out, "== Bootstrap ==")
	assert.Contains(t, out, "== Bayesian (Beta) ==")
	assert.Contains(t, out, "rescaled to [0, 1]")
	assert.Contains(t, out, VerdictText(stats.VerdictNewSuperior))
	assert.Contains(t, out, RecommendationText(stats.RecommendImplementNew))
	assert.Contains(t, out, "+20.00%")
	assert.Contains(t, out, VerdictText(stats.VerdictNoSRM))
}

func TestWrite_TextShowsErrors(t *testing.T) {
	r := runReport(t, testutil.ConstantRPV(3, 1.0, 1.0, 10))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, FormatText))
	assert.Contains(t, buf.String(), "ERROR: "+stats.ErrDegenerateRange.Error())
}

func TestWrite_JSON(t *testing.T) {
	r := runReport(t, testutil.ConstantRPV(14, 1.0, 1.2, 250))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.ID.String(), decoded["id"])

	boot, ok := decoded["bootstrap"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(stats.VerdictNewSuperior), boot["verdict"])
	assert.NotContains(t, decoded, "errors")
}

func TestWrite_YAML(t *testing.T) {
	r := runReport(t, testutil.ConstantRPV(14, 1.0, 1.2, 250))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.ID.String(), decoded["id"])
	assert.Contains(t, decoded, "metrics")
}

func TestWriteDailyCSV(t *testing.T) {
	rpv, err := stats.DailyRPV(testutil.SeriesRPV([]float64{1, 2}, []float64{3}, 10))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDailyCSV(&buf, rpv))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"date,variant,rpv",
		"2024-03-01,Control,1",
		"2024-03-02,Control,2",
		"2024-03-01,New,3",
	}, lines)
}

func TestWriteDailyJSON(t *testing.T) {
	rpv, err := stats.DailyRPV(testutil.SeriesRPV([]float64{1}, []float64{1.5}, 10))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDailyJSON(&buf, rpv))

	var decoded jsonExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []DailyRow{
		{Date: "2024-03-01", Variant: experiment.Control, RPV: 1},
		{Date: "2024-03-01", Variant: experiment.New, RPV: 1.5},
	}, decoded.Days)
}

func TestFormatNumber(t *testing.T) {
	tests := map[int]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		10000:      "10,000",
		1234567:    "1,234,567",
		-4500:      "-4,500",
		2000000001: "2,000,000,001",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatNumber(in))
	}
}
