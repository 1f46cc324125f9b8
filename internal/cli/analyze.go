package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lf-pro/cro/internal/analysis"
	"github.com/lf-pro/cro/internal/report"
)

var errAllFailed = errors.New("every selected analysis failed")

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		method  string
		format  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze an experiment file",
		Long: `Run the bootstrap, Bayesian and descriptive analyses on an experiment file.

Without --method, an interactive terminal offers a choice of analysis;
otherwise every analysis runs.

Examples:
  cro analyze experiment.csv
  cro analyze experiment.xlsx --method bootstrap,normal --seed 42
  cro analyze experiment.csv --format json > report.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			var methods []analysis.Method
			if !cmd.Flags().Changed("method") && interactive() {
				methods, err = promptMethods()
			} else {
				methods, err = analysis.ParseMethods(method)
			}
			if err != nil {
				return err
			}

			table, err := readTable(args[0])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("timeout") {
				timeout = opts.cfg.Timeout
			}

			rep, err := analysis.NewRunner(opts.log).Run(cmd.Context(), table, analysis.Options{
				Methods: methods,
				Seed:    opts.cfg.Seed,
				Timeout: timeout,
			})
			if err != nil {
				return err
			}

			if err := report.Write(cmd.OutOrStdout(), rep, f); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			if rep.Failed() {
				return errAllFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "all", "analyses to run: bootstrap, beta, normal, metrics (comma-separated) or all")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json or yaml)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort analyses that have not started after this long (0 = no limit)")

	return cmd
}

func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func promptMethods() ([]analysis.Method, error) {
	items := []string{"All analyses"}
	for _, m := range analysis.AllMethods {
		items = append(items, m.Title())
	}

	prompt := promptui.Select{
		Label: "Analysis",
		Items: items,
		Size:  len(items),
	}

	idx, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return nil, err
	}

	return methodsFromIndex(idx), nil
}

// methodsFromIndex maps a picker row to the methods it stands for. Row 0
// selects everything.
func methodsFromIndex(idx int) []analysis.Method {
	if idx <= 0 || idx > len(analysis.AllMethods) {
		return append([]analysis.Method(nil), analysis.AllMethods...)
	}
	return []analysis.Method{analysis.AllMethods[idx-1]}
}
