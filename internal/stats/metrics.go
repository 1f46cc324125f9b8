package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/lf-pro/cro/internal/experiment"
)

// conversionConfidence is the level of the Wilson interval reported around
// each conversion rate.
const conversionConfidence = 0.95

// VariantMetrics aggregates one variant over the whole experiment.
type VariantMetrics struct {
	Variant     string  `json:"variant" yaml:"variant"`
	Revenue     float64 `json:"revenue" yaml:"revenue"`
	Sessions    int     `json:"sessions" yaml:"sessions"`
	RPS         float64 `json:"rps" yaml:"rps"`
	Conversions int     `json:"conversions" yaml:"conversions"`

	// ConversionRate and its interval bounds are percentages.
	ConversionRate  float64 `json:"conversion_rate" yaml:"conversion_rate"`
	ConversionLower float64 `json:"conversion_lower" yaml:"conversion_lower"`
	ConversionUpper float64 `json:"conversion_upper" yaml:"conversion_upper"`
}

// Comparison holds the percentage difference of New over Control for each
// aggregate. A nil field means the Control value was zero.
type Comparison struct {
	RPS            *float64 `json:"rps,omitempty" yaml:"rps,omitempty"`
	Revenue        *float64 `json:"revenue,omitempty" yaml:"revenue,omitempty"`
	Sessions       *float64 `json:"sessions,omitempty" yaml:"sessions,omitempty"`
	ConversionRate *float64 `json:"conversion_rate,omitempty" yaml:"conversion_rate,omitempty"`
}

// MetricsResult is the descriptive summary of an experiment.
type MetricsResult struct {
	Variants   []VariantMetrics       `json:"variants" yaml:"variants"`
	Daily      map[string]DailySeries `json:"daily" yaml:"daily"`
	Comparison *Comparison            `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	SRM        SRMResult              `json:"srm" yaml:"srm"`
}

// Variant returns the metrics of the named variant, if present.
func (m *MetricsResult) Variant(label string) (VariantMetrics, bool) {
	for _, v := range m.Variants {
		if v.Variant == label {
			return v, true
		}
	}
	return VariantMetrics{}, false
}

type dailyTotals struct {
	revenue  float64
	sessions int
}

// Metrics computes per-variant totals, revenue per session, the conversion
// proxy (rows with revenue over total sessions), daily RPS and the SRM check.
func Metrics(t *experiment.Table) (*MetricsResult, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, ErrInsufficientData
	}

	totals := make(map[string]*VariantMetrics)
	daily := make(map[string]map[time.Time]*dailyTotals)
	for _, r := range t.Rows {
		m, ok := totals[r.Variant]
		if !ok {
			m = &VariantMetrics{Variant: r.Variant}
			totals[r.Variant] = m
			daily[r.Variant] = make(map[time.Time]*dailyTotals)
		}
		m.Revenue += r.Revenue
		m.Sessions += r.Sessions
		if r.Revenue > 0 {
			m.Conversions++
		}

		day := experiment.Day(r.Date)
		d, ok := daily[r.Variant][day]
		if !ok {
			d = &dailyTotals{}
			daily[r.Variant][day] = d
		}
		d.revenue += r.Revenue
		d.sessions += r.Sessions
	}

	result := &MetricsResult{Daily: make(map[string]DailySeries, len(totals))}
	sessions := make(map[string]int, len(totals))

	labels := make([]string, 0, len(totals))
	for label := range totals {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		m := totals[label]
		if m.Sessions <= 0 {
			return nil, fmt.Errorf("%w: %s has no sessions", ErrDivisionByZero, label)
		}
		m.RPS = m.Revenue / float64(m.Sessions)
		m.ConversionRate = float64(m.Conversions) / float64(m.Sessions) * 100
		lower, upper := WilsonInterval(m.Conversions, m.Sessions, conversionConfidence)
		m.ConversionLower, m.ConversionUpper = lower*100, upper*100
		result.Variants = append(result.Variants, *m)
		sessions[label] = m.Sessions

		series, err := dailyRPS(daily[label])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		result.Daily[label] = series
	}

	control, hasControl := result.Variant(experiment.Control)
	treatment, hasNew := result.Variant(experiment.New)
	if hasControl && hasNew {
		result.Comparison = &Comparison{
			RPS:            lift(treatment.RPS, control.RPS),
			Revenue:        lift(treatment.Revenue, control.Revenue),
			Sessions:       lift(float64(treatment.Sessions), float64(control.Sessions)),
			ConversionRate: lift(treatment.ConversionRate, control.ConversionRate),
		}
	}

	result.SRM = SRM(sessions)
	return result, nil
}

func dailyRPS(days map[time.Time]*dailyTotals) (DailySeries, error) {
	var s DailySeries
	for day, d := range days {
		if d.sessions <= 0 {
			return DailySeries{}, fmt.Errorf("%w on %s", ErrDivisionByZero, day.Format(time.DateOnly))
		}
		s.Dates = append(s.Dates, day)
		s.Values = append(s.Values, d.revenue/float64(d.sessions))
	}
	s.sortByDate()
	return s, nil
}
