package stats_test

import (
	"math"
	"testing"

	"github.com/lf-pro/cro/internal/stats"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		sorted   []float64
		q        float64
		expected float64
	}{
		{"single value", []float64{3}, 5, 3},
		{"minimum", []float64{1, 2, 3, 4, 5}, 0, 1},
		{"maximum", []float64{1, 2, 3, 4, 5}, 100, 5},
		{"median", []float64{1, 2, 3, 4}, 50, 2.5},
		{"interpolated low", []float64{1, 2, 3, 4, 5}, 5, 1.2},
		{"interpolated high", []float64{1, 2, 3, 4, 5}, 95, 4.8},
		{"ten values", []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 95, 8.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.Percentile(tt.sorted, tt.q)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.q, got, tt.expected)
			}
		})
	}
}
