package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lf-pro/cro/internal/report"
	"github.com/lf-pro/cro/internal/stats"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the daily revenue per visit table",
		Long: `Export the daily revenue per visit of Control and New in CSV or JSON format.
This is the series every estimator works on: intraday rows are collapsed to
one value per day and variant.

Examples:
  cro export experiment.xlsx --format csv > daily.csv
  cro export experiment.csv --format json > daily.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("invalid format: must be 'csv' or 'json'")
			}

			table, err := readTable(args[0])
			if err != nil {
				return err
			}

			rpv, err := stats.DailyRPV(table)
			if err != nil {
				return fmt.Errorf("failed to compute daily RPV: %w", err)
			}
			opts.log.Debug().
				Int("control_days", rpv.Control.Len()).
				Int("new_days", rpv.New.Len()).
				Msg("daily RPV computed")

			if format == "csv" {
				return report.WriteDailyCSV(cmd.OutOrStdout(), rpv)
			}
			return report.WriteDailyJSON(cmd.OutOrStdout(), rpv)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv or json)")
	return cmd
}
