package experiment

import (
	"strings"
	"time"
)

// Canonical column names of an experiment table.
const (
	ColumnDate     = "date"
	ColumnVariant  = "variant"
	ColumnRevenue  = "revenue"
	ColumnSessions = "sessions"
)

// RequiredColumns lists the columns every analysis needs, in canonical order.
var RequiredColumns = []string{ColumnDate, ColumnVariant, ColumnRevenue, ColumnSessions}

// Normalized variant labels.
const (
	Control = "Control"
	New     = "New"
)

var columnAliases = map[string]string{
	"date":     ColumnDate,
	"data":     ColumnDate,
	"variant":  ColumnVariant,
	"variante": ColumnVariant,
	"revenue":  ColumnRevenue,
	"receita":  ColumnRevenue,
	"sessions": ColumnSessions,
	"sessoes":  ColumnSessions,
	"sessões":  ColumnSessions,
}

var variantAliases = map[string]string{
	"control":  Control,
	"controle": Control,
	"new":      New,
	"nova":     New,
}

// Observation is one row of experiment data. Several rows may share a
// (Date, Variant) pair when the source has intraday granularity.
type Observation struct {
	Date     time.Time
	Variant  string
	Revenue  float64
	Sessions int
}

// Table is the in-memory experiment dataset handed to every analysis.
// Columns holds the canonical names of the columns present in the source.
type Table struct {
	Columns []string
	Rows    []Observation
}

// CanonicalColumn maps a header (canonical name or alias) to its canonical
// column name. ok is false for columns the analyses don't use.
func CanonicalColumn(header string) (name string, ok bool) {
	name, ok = columnAliases[strings.ToLower(strings.TrimSpace(header))]
	return name, ok
}

// NormalizeVariant maps the known Control/New spellings to their canonical
// labels. Unknown labels are returned trimmed but otherwise untouched.
func NormalizeVariant(label string) string {
	label = strings.TrimSpace(label)
	if v, ok := variantAliases[strings.ToLower(label)]; ok {
		return v
	}
	return label
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewTable builds a table carrying all required columns.
func NewTable(rows []Observation) *Table {
	cols := make([]string, len(RequiredColumns))
	copy(cols, RequiredColumns)
	return &Table{Columns: cols, Rows: rows}
}

// Validate checks that every required column is present.
func (t *Table) Validate() error {
	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}

	var missing []string
	for _, c := range RequiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Variants returns the distinct variant labels present in the table.
func (t *Table) Variants() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, r := range t.Rows {
		if !seen[r.Variant] {
			seen[r.Variant] = true
			labels = append(labels, r.Variant)
		}
	}
	return labels
}
