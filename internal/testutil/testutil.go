package testutil

import (
	"time"

	"github.com/lf-pro/cro/internal/experiment"
)

// Start is the first day of generated experiments.
var Start = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

// Row builds an observation dayOffset days after Start.
func Row(dayOffset int, variant string, revenue float64, sessions int) experiment.Observation {
	return experiment.Observation{
		Date:     Start.AddDate(0, 0, dayOffset),
		Variant:  variant,
		Revenue:  revenue,
		Sessions: sessions,
	}
}

// ConstantRPV builds a table of the given number of days where every day
// has one Control and one New row with the given revenue per visit.
func ConstantRPV(days int, controlRPV, newRPV float64, sessions int) *experiment.Table {
	rows := make([]experiment.Observation, 0, 2*days)
	for d := 0; d < days; d++ {
		rows = append(rows,
			Row(d, experiment.Control, controlRPV*float64(sessions), sessions),
			Row(d, experiment.New, newRPV*float64(sessions), sessions),
		)
	}
	return experiment.NewTable(rows)
}

// SeriesRPV builds a table with one row per day per variant whose RPV
// equals the given values. Both slices may differ in length.
func SeriesRPV(control, treatment []float64, sessions int) *experiment.Table {
	var rows []experiment.Observation
	for d, v := range control {
		rows = append(rows, Row(d, experiment.Control, v*float64(sessions), sessions))
	}
	for d, v := range treatment {
		rows = append(rows, Row(d, experiment.New, v*float64(sessions), sessions))
	}
	return experiment.NewTable(rows)
}
