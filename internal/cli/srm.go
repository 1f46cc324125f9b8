package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/report"
	"github.com/lf-pro/cro/internal/stats"
)

func newSRMCmd(opts *rootOptions) *cobra.Command {
	var (
		control  int
		treatment int
		format   string
	)

	cmd := &cobra.Command{
		Use:   "srm",
		Short: "Check a session split for sample ratio mismatch",
		Long: `Run an exact binomial test of the Control/New session split against an even
allocation.

Example:
  cro srm --control 10000 --new 10400`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if control < 0 || treatment < 0 {
				return fmt.Errorf("session counts must not be negative")
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("invalid format: must be 'text' or 'json'")
			}

			result := stats.SRM(map[string]int{
				experiment.Control: control,
				experiment.New:     treatment,
			})
			opts.log.Debug().Float64("p_value", result.PValue).Bool("detected", result.Detected).Msg("srm computed")

			out := cmd.OutOrStdout()
			if format == "json" {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}

			if !result.Applicable {
				fmt.Fprintf(out, "SRM check not applicable: %s\n", result.Reason)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "TESTED VARIANT:\t%s\n", result.Variant)
			fmt.Fprintf(w, "SESSIONS:\t%s of %s\n", report.FormatNumber(result.Sessions), report.FormatNumber(result.TotalSessions))
			fmt.Fprintf(w, "OBSERVED RATIO:\t%s\n", report.FormatPercent(result.ObservedRatio))
			fmt.Fprintf(w, "EXPECTED RATIO:\t%s\n", report.FormatPercent(result.ExpectedRatio))
			fmt.Fprintf(w, "P-VALUE:\t%.6f\n", result.PValue)
			fmt.Fprintf(w, "VERDICT:\t%s\n", report.VerdictText(result.Verdict))
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&control, "control", 0, "sessions of the Control variant")
	cmd.Flags().IntVar(&treatment, "new", 0, "sessions of the New variant")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text or json)")
	cmd.MarkFlagRequired("control")
	cmd.MarkFlagRequired("new")

	return cmd
}
