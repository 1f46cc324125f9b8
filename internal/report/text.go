package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lf-pro/cro/internal/analysis"
	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/stats"
)

var verdictText = map[stats.Verdict]string{
	stats.VerdictNewSuperior:         "New is superior: the 90% interval of the difference lies above zero",
	stats.VerdictNewInferior:         "New is inferior: the 90% interval of the difference lies below zero",
	stats.VerdictNewStronglySuperior: "New is very likely better than Control",
	stats.VerdictNewProbablySuperior: "New is probably better than Control",
	stats.VerdictNewStronglyInferior: "New is very likely worse than Control",
	stats.VerdictNewProbablyInferior: "New is probably worse than Control",
	stats.VerdictInconclusive:        "Inconclusive: no clear difference between the variants",
	stats.VerdictSRMDetected:         "Sample ratio mismatch detected: check the traffic split before trusting the results",
	stats.VerdictNoSRM:               "No sample ratio mismatch",
}

var recommendationText = map[stats.Recommendation]string{
	stats.RecommendImplementNew: "Implement New",
	stats.RecommendKeepTesting:  "Keep testing, the evidence is weak",
	stats.RecommendKeepControl:  "Keep Control",
}

// VerdictText is the sentence shown for a verdict.
func VerdictText(v stats.Verdict) string {
	if s, ok := verdictText[v]; ok {
		return s
	}
	return string(v)
}

// RecommendationText is the sentence shown for a recommendation.
func RecommendationText(r stats.Recommendation) string {
	if s, ok := recommendationText[r]; ok {
		return s
	}
	return string(r)
}

func writeText(out io.Writer, r *analysis.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "REPORT:\t%s\n", r.ID)
	fmt.Fprintf(w, "CREATED:\t%s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "ROWS:\t%s\n", FormatNumber(r.Rows))
	fmt.Fprintf(w, "SEED:\t%d\n", r.Seed)

	for _, m := range r.Methods {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "== %s ==\n", m.Title())

		if msg, failed := r.Errors[m]; failed {
			fmt.Fprintf(w, "ERROR: %s\n", msg)
			continue
		}

		switch m {
		case analysis.MethodBootstrap:
			writeBootstrap(w, r.Bootstrap)
		case analysis.MethodBeta:
			writeBayes(w, r.Beta)
		case analysis.MethodNormal:
			writeBayes(w, r.Normal)
		case analysis.MethodMetrics:
			writeMetrics(w, r.Metrics)
		}
	}

	return w.Flush()
}

func writeBootstrap(w io.Writer, b *stats.BootstrapResult) {
	if b == nil {
		return
	}
	fmt.Fprintf(w, "Daily RPV, %s resamples, 90%% interval\n", FormatNumber(stats.BootstrapReplicates))
	fmt.Fprintln(w, "\tMEAN\tLOWER\tUPPER\tDAYS")
	writeEstimate(w, experiment.Control, b.Control, fmt.Sprintf("%d", b.Days[0]))
	writeEstimate(w, experiment.New, b.New, fmt.Sprintf("%d", b.Days[1]))
	writeEstimate(w, "Difference", b.Difference, "")

	fmt.Fprintf(w, "P-value:\t%.4f\n", b.PValue)
	fmt.Fprintf(w, "P(New > Control):\t%s\n", FormatPercent(b.ProbNewBetter))
	fmt.Fprintf(w, "Lift:\t%s\n", FormatLift(b.Lift))
	fmt.Fprintf(w, "Verdict:\t%s\n", VerdictText(b.Verdict))
	fmt.Fprintf(w, "Recommendation:\t%s\n", RecommendationText(b.Recommendation))
}

func writeBayes(w io.Writer, b *stats.BayesResult) {
	if b == nil {
		return
	}
	if b.Scaled && b.Scale != nil {
		fmt.Fprintf(w, "Posterior of daily RPV rescaled to [0, 1] (0 = %.4f, 1 = %.4f)\n", b.Scale.Min, b.Scale.Max)
	} else {
		fmt.Fprintln(w, "Posterior of mean daily RPV")
	}
	fmt.Fprintln(w, "\tMEAN\tLOWER\tUPPER\t")
	writeEstimate(w, experiment.Control, b.Control, "")
	writeEstimate(w, experiment.New, b.New, "")

	fmt.Fprintf(w, "P(New > Control):\t%s\n", FormatPercent(b.ProbNewBetter))
	fmt.Fprintf(w, "Verdict:\t%s\n", VerdictText(b.Verdict))
}

func writeMetrics(w io.Writer, m *stats.MetricsResult) {
	if m == nil {
		return
	}
	fmt.Fprintln(w, "VARIANT\tREVENUE\tSESSIONS\tRPS\tCONVERSIONS\tCONV. RATE\t95% CI")
	for _, v := range m.Variants {
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%.4f\t%s\t%.2f%%\t[%.2f%%, %.2f%%]\n",
			v.Variant,
			v.Revenue,
			FormatNumber(v.Sessions),
			v.RPS,
			FormatNumber(v.Conversions),
			v.ConversionRate,
			v.ConversionLower,
			v.ConversionUpper,
		)
	}

	if c := m.Comparison; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "New vs Control:")
		fmt.Fprintf(w, "  RPS\t%s\n", FormatLift(c.RPS))
		fmt.Fprintf(w, "  Revenue\t%s\n", FormatLift(c.Revenue))
		fmt.Fprintf(w, "  Sessions\t%s\n", FormatLift(c.Sessions))
		fmt.Fprintf(w, "  Conversion rate\t%s\n", FormatLift(c.ConversionRate))
	}

	fmt.Fprintln(w)
	s := m.SRM
	if !s.Applicable {
		fmt.Fprintf(w, "SRM:\tnot applicable (%s)\n", s.Reason)
		return
	}
	fmt.Fprintf(w, "SRM:\t%s has %s of %s sessions (%s, expected %s), p = %.4f\n",
		s.Variant,
		FormatNumber(s.Sessions),
		FormatNumber(s.TotalSessions),
		FormatPercent(s.ObservedRatio),
		FormatPercent(s.ExpectedRatio),
		s.PValue,
	)
	fmt.Fprintf(w, "\t%s\n", VerdictText(s.Verdict))
}

func writeEstimate(w io.Writer, label string, e stats.Estimate, extra string) {
	fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%s\n", label, e.Mean, e.Lower, e.Upper, extra)
}

// FormatLift renders a percentage change with its sign.
func FormatLift(l *float64) string {
	if l == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *l)
}

// FormatPercent renders a [0, 1] rate as a percentage.
func FormatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

// FormatNumber renders n with thousands separators.
func FormatNumber(n int) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	if n < 1000000000 {
		return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
	}
	return fmt.Sprintf("%s,%03d,%03d,%03d", FormatNumber(n/1000000000), (n/1000000)%1000, (n/1000)%1000, n%1000)
}
