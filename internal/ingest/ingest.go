package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lf-pro/cro/internal/experiment"
)

var ErrUnsupportedFormat = errors.New("unsupported file format (expected .csv or .xlsx)")

// RowError reports a value that could not be parsed.
type RowError struct {
	Row    int // 1-based data row, header excluded
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: invalid value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"01-02-06",
	"2006/01/02",
}

// Read parses an experiment table from r, choosing the format from the
// file name's extension.
func Read(r io.Reader, filename string) (*experiment.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// ReadCSV parses a comma or semicolon separated file with a header row.
func ReadCSV(r io.Reader) (*experiment.Table, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(header)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return fromRecords(records)
}

// ReadXLSX parses the first sheet of an Excel workbook.
func ReadXLSX(r io.Reader) (*experiment.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return fromRecords(records)
}

// sniffDelimiter picks ';' when the first line has more semicolons than
// commas, which is how spreadsheets export CSV in comma-decimal locales.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}

// fromRecords turns a header row plus data rows into a table. Rows are only
// parsed when every required column is present; otherwise the table carries
// just its columns so the analyses can report the schema error.
func fromRecords(records [][]string) (*experiment.Table, error) {
	if len(records) == 0 {
		return &experiment.Table{}, nil
	}

	index := make(map[string]int)
	var columns []string
	for i, h := range records[0] {
		name, ok := experiment.CanonicalColumn(strings.TrimPrefix(h, "\ufeff"))
		if !ok {
			continue
		}
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = i
		columns = append(columns, name)
	}

	table := &experiment.Table{Columns: columns}
	if table.Validate() != nil {
		return table, nil
	}

	for n, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		obs, err := parseRow(rec, index)
		if err != nil {
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				rowErr.Row = n + 1
			}
			return nil, err
		}
		table.Rows = append(table.Rows, obs)
	}
	return table, nil
}

func parseRow(rec []string, index map[string]int) (experiment.Observation, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var obs experiment.Observation
	var err error

	raw := field(experiment.ColumnDate)
	if obs.Date, err = ParseDate(raw); err != nil {
		return obs, &RowError{Column: experiment.ColumnDate, Value: raw, Err: err}
	}

	raw = field(experiment.ColumnVariant)
	if raw == "" {
		return obs, &RowError{Column: experiment.ColumnVariant, Value: raw, Err: errors.New("empty variant")}
	}
	obs.Variant = experiment.NormalizeVariant(raw)

	raw = field(experiment.ColumnRevenue)
	if obs.Revenue, err = parseRevenue(raw); err != nil {
		return obs, &RowError{Column: experiment.ColumnRevenue, Value: raw, Err: err}
	}

	raw = field(experiment.ColumnSessions)
	if obs.Sessions, err = parseSessions(raw); err != nil {
		return obs, &RowError{Column: experiment.ColumnSessions, Value: raw, Err: err}
	}

	return obs, nil
}

// ParseDate accepts the usual spreadsheet date renderings as well as Excel
// serial day numbers, and truncates the result to the calendar day.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return experiment.Day(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return experiment.Day(t), nil
	}
	return time.Time{}, errors.New("unrecognized date")
}

func parseRevenue(s string) (float64, error) {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, errors.New("must be a non-negative number")
	}
	return v, nil
}

func parseSessions(s string) (int, error) {
	// Spreadsheets often render integer cells as "120.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, errors.New("not an integer")
	}
	if f < 0 {
		return 0, errors.New("must not be negative")
	}
	return int(f), nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
