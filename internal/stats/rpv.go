package stats

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lf-pro/cro/internal/experiment"
)

// DailySeries is a per-variant metric ordered by date.
type DailySeries struct {
	Dates  []time.Time `json:"dates" yaml:"dates"`
	Values []float64   `json:"values" yaml:"values"`
}

// Len returns the number of days in the series.
func (s DailySeries) Len() int {
	return len(s.Values)
}

// RPV holds the daily revenue-per-visit series of both arms.
type RPV struct {
	Control DailySeries
	New     DailySeries
}

type dayKey struct {
	date    time.Time
	variant string
}

// DailyRPV collapses the table to one revenue-per-visit value per
// (date, variant): the mean of the per-row RPVs of that day.
func DailyRPV(t *experiment.Table) (RPV, error) {
	if err := t.Validate(); err != nil {
		return RPV{}, err
	}

	groups := make(map[dayKey][]float64)
	for _, r := range t.Rows {
		if r.Variant != experiment.Control && r.Variant != experiment.New {
			continue
		}
		if r.Sessions <= 0 {
			return RPV{}, fmt.Errorf("%w: %s on %s", ErrDivisionByZero, r.Variant, r.Date.Format(time.DateOnly))
		}
		k := dayKey{date: experiment.Day(r.Date), variant: r.Variant}
		groups[k] = append(groups[k], r.Revenue/float64(r.Sessions))
	}

	var rpv RPV
	for k, values := range groups {
		s := &rpv.Control
		if k.variant == experiment.New {
			s = &rpv.New
		}
		s.Dates = append(s.Dates, k.date)
		s.Values = append(s.Values, stat.Mean(values, nil))
	}

	if rpv.Control.Len() == 0 {
		return RPV{}, fmt.Errorf("%w: %s", ErrMissingVariant, experiment.Control)
	}
	if rpv.New.Len() == 0 {
		return RPV{}, fmt.Errorf("%w: %s", ErrMissingVariant, experiment.New)
	}

	rpv.Control.sortByDate()
	rpv.New.sortByDate()
	return rpv, nil
}

func (s *DailySeries) sortByDate() {
	sort.Sort(byDate{s})
}

type byDate struct{ s *DailySeries }

func (b byDate) Len() int           { return len(b.s.Dates) }
func (b byDate) Less(i, j int) bool { return b.s.Dates[i].Before(b.s.Dates[j]) }
func (b byDate) Swap(i, j int) {
	b.s.Dates[i], b.s.Dates[j] = b.s.Dates[j], b.s.Dates[i]
	b.s.Values[i], b.s.Values[j] = b.s.Values[j], b.s.Values[i]
}
