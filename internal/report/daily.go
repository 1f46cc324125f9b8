package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/stats"
)

// DailyRow is one collapsed (date, variant) RPV value.
type DailyRow struct {
	Date    string  `json:"date"`
	Variant string  `json:"variant"`
	RPV     float64 `json:"rpv"`
}

// DailyRows flattens both series, Control first, each in date order.
func DailyRows(rpv stats.RPV) []DailyRow {
	rows := make([]DailyRow, 0, rpv.Control.Len()+rpv.New.Len())
	for _, s := range []struct {
		label  string
		series stats.DailySeries
	}{
		{experiment.Control, rpv.Control},
		{experiment.New, rpv.New},
	} {
		for i, d := range s.series.Dates {
			rows = append(rows, DailyRow{
				Date:    d.Format(time.DateOnly),
				Variant: s.label,
				RPV:     s.series.Values[i],
			})
		}
	}
	return rows
}

// WriteDailyCSV writes the daily RPV table as CSV with a header row.
func WriteDailyCSV(out io.Writer, rpv stats.RPV) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"date", "variant", "rpv"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range DailyRows(rpv) {
		row := []string{
			r.Date,
			r.Variant,
			strconv.FormatFloat(r.RPV, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

type jsonExport struct {
	Days []DailyRow `json:"days"`
}

// WriteDailyJSON writes the daily RPV table as an indented JSON document.
func WriteDailyJSON(out io.Writer, rpv stats.RPV) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonExport{Days: DailyRows(rpv)})
}
