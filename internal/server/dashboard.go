package server

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/lf-pro/cro/internal/analysis"
	"github.com/lf-pro/cro/internal/dashboard"
	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/report"
	"github.com/lf-pro/cro/internal/stats"
)

// Dashboard template data structures
type layoutData struct {
	Title   string
	CSS     template.CSS
	Content template.HTML
}

type uploadData struct {
	Methods []methodOption
	Error   string
}

type methodOption struct {
	Value   string
	Title   string
	Checked bool
}

type reportData struct {
	ID       string
	Created  string
	Rows     string
	Seed     uint64
	Sections []sectionData
}

type sectionData struct {
	Title     string
	Error     string
	Note      string
	Estimates []estimateRow
	Variants  []variantRow
	Facts     []fact
	Verdict   string
}

type estimateRow struct {
	Label, Mean, Lower, Upper string
}

type variantRow struct {
	Variant, Revenue, Sessions, RPS, Conversions, Rate, CI string
}

type fact struct {
	Label, Value string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// Handle logout
	if r.URL.Query().Get("logout") == "1" {
		http.SetCookie(w, &http.Cookie{
			Name:   tokenCookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	s.renderDashboard(w, http.StatusOK, "Analyze", "upload.html", newUploadData(""))
}

func (s *Server) handleDashboardAnalyze(w http.ResponseWriter, r *http.Request) {
	fail := func(status int, msg string) {
		s.renderDashboard(w, status, "Analyze", "upload.html", newUploadData(msg))
	}

	if err := s.parseUploadForm(w, r); err != nil {
		var reqErr *requestError
		errors.As(err, &reqErr)
		fail(reqErr.status, reqErr.Error())
		return
	}

	methods := strings.Join(r.MultipartForm.Value["method"], ",")
	seed := strings.TrimSpace(r.FormValue("seed"))

	rep, err := s.analyzeUpload(w, r, methods, seed)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			fail(reqErr.status, reqErr.Error())
			return
		}
		fail(http.StatusInternalServerError, "analysis failed")
		return
	}

	status := http.StatusOK
	if rep.Failed() {
		status = http.StatusUnprocessableEntity
	}
	s.renderDashboard(w, status, "Report", "report.html", newReportData(rep))
}

func newUploadData(errMsg string) uploadData {
	data := uploadData{Error: errMsg}
	for _, m := range analysis.AllMethods {
		data.Methods = append(data.Methods, methodOption{
			Value:   string(m),
			Title:   m.Title(),
			Checked: true,
		})
	}
	return data
}

func newReportData(r *analysis.Report) reportData {
	data := reportData{
		ID:      r.ID.String(),
		Created: r.CreatedAt.Format("Jan 2, 2006 15:04"),
		Rows:    report.FormatNumber(r.Rows),
		Seed:    r.Seed,
	}

	for _, m := range r.Methods {
		section := sectionData{Title: m.Title()}
		if msg, failed := r.Errors[m]; failed {
			section.Error = msg
			data.Sections = append(data.Sections, section)
			continue
		}

		switch m {
		case analysis.MethodBootstrap:
			bootstrapSection(&section, r.Bootstrap)
		case analysis.MethodBeta:
			bayesSection(&section, r.Beta)
		case analysis.MethodNormal:
			bayesSection(&section, r.Normal)
		case analysis.MethodMetrics:
			metricsSection(&section, r.Metrics)
		}
		data.Sections = append(data.Sections, section)
	}
	return data
}

func bootstrapSection(sec *sectionData, b *stats.BootstrapResult) {
	if b == nil {
		return
	}
	sec.Note = fmt.Sprintf("Daily revenue per visit, %s resamples.", report.FormatNumber(stats.BootstrapReplicates))
	sec.Estimates = []estimateRow{
		newEstimateRow(experiment.Control, b.Control),
		newEstimateRow(experiment.New, b.New),
		newEstimateRow("Difference", b.Difference),
	}
	sec.Facts = []fact{
		{"P-value", fmt.Sprintf("%.4f", b.PValue)},
		{"P(New > Control)", report.FormatPercent(b.ProbNewBetter)},
		{"Lift", report.FormatLift(b.Lift)},
		{"Recommendation", report.RecommendationText(b.Recommendation)},
	}
	sec.Verdict = report.VerdictText(b.Verdict)
}

func bayesSection(sec *sectionData, b *stats.BayesResult) {
	if b == nil {
		return
	}
	if b.Scaled && b.Scale != nil {
		sec.Note = fmt.Sprintf("Daily revenue per visit rescaled to [0, 1], where 0 is %.4f and 1 is %.4f.", b.Scale.Min, b.Scale.Max)
	} else {
		sec.Note = "Posterior of the mean daily revenue per visit."
	}
	sec.Estimates = []estimateRow{
		newEstimateRow(experiment.Control, b.Control),
		newEstimateRow(experiment.New, b.New),
	}
	sec.Facts = []fact{
		{"P(New > Control)", report.FormatPercent(b.ProbNewBetter)},
	}
	sec.Verdict = report.VerdictText(b.Verdict)
}

func metricsSection(sec *sectionData, m *stats.MetricsResult) {
	if m == nil {
		return
	}
	for _, v := range m.Variants {
		sec.Variants = append(sec.Variants, variantRow{
			Variant:     v.Variant,
			Revenue:     fmt.Sprintf("%.2f", v.Revenue),
			Sessions:    report.FormatNumber(v.Sessions),
			RPS:         fmt.Sprintf("%.4f", v.RPS),
			Conversions: report.FormatNumber(v.Conversions),
			Rate:        fmt.Sprintf("%.2f%%", v.ConversionRate),
			CI:          fmt.Sprintf("[%.2f%%, %.2f%%]", v.ConversionLower, v.ConversionUpper),
		})
	}

	if c := m.Comparison; c != nil {
		sec.Facts = append(sec.Facts,
			fact{"RPS vs Control", report.FormatLift(c.RPS)},
			fact{"Revenue vs Control", report.FormatLift(c.Revenue)},
			fact{"Sessions vs Control", report.FormatLift(c.Sessions)},
			fact{"Conversion rate vs Control", report.FormatLift(c.ConversionRate)},
		)
	}

	srm := m.SRM
	if !srm.Applicable {
		sec.Facts = append(sec.Facts, fact{"SRM", "not applicable: " + srm.Reason})
		return
	}
	sec.Facts = append(sec.Facts,
		fact{"SRM p-value", fmt.Sprintf("%.4f", srm.PValue)},
		fact{"Observed share of " + srm.Variant, report.FormatPercent(srm.ObservedRatio)},
	)
	sec.Verdict = report.VerdictText(srm.Verdict)
}

func newEstimateRow(label string, e stats.Estimate) estimateRow {
	return estimateRow{
		Label: label,
		Mean:  fmt.Sprintf("%.4f", e.Mean),
		Lower: fmt.Sprintf("%.4f", e.Lower),
		Upper: fmt.Sprintf("%.4f", e.Upper),
	}
}

func (s *Server) renderDashboard(w http.ResponseWriter, status int, title, contentTemplate string, data interface{}) {
	cssBytes, err := dashboard.Assets.ReadFile("assets/style.css")
	if err != nil {
		http.Error(w, "Failed to load styles", http.StatusInternalServerError)
		return
	}

	var contentBuf bytes.Buffer
	if err := dashboard.Pages.ExecuteTemplate(&contentBuf, contentTemplate, data); err != nil {
		s.log.Error().Err(err).Str("template", contentTemplate).Msg("failed to render template")
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	var page bytes.Buffer
	err = dashboard.Pages.ExecuteTemplate(&page, "layout.html", layoutData{
		Title:   title,
		CSS:     template.CSS(cssBytes),
		Content: template.HTML(contentBuf.String()),
	})
	if err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(page.Bytes())
}
