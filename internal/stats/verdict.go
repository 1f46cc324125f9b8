package stats

// Verdict is the categorical outcome of an analysis.
type Verdict string

const (
	VerdictNewSuperior         Verdict = "new_superior"
	VerdictNewInferior         Verdict = "new_inferior"
	VerdictNewStronglySuperior Verdict = "new_strongly_superior"
	VerdictNewProbablySuperior Verdict = "new_probably_superior"
	VerdictNewStronglyInferior Verdict = "new_strongly_inferior"
	VerdictNewProbablyInferior Verdict = "new_probably_inferior"
	VerdictInconclusive        Verdict = "inconclusive"
	VerdictSRMDetected         Verdict = "srm_detected"
	VerdictNoSRM               Verdict = "no_srm"
)

// Recommendation is the action suggested by the bootstrap p-value.
type Recommendation string

const (
	RecommendImplementNew Recommendation = "implement_new"
	RecommendKeepTesting  Recommendation = "keep_testing"
	RecommendKeepControl  Recommendation = "keep_control"
)

// IntervalVerdict classifies a 90% interval of New minus Control.
func IntervalVerdict(diff Estimate) Verdict {
	switch {
	case diff.Lower > 0:
		return VerdictNewSuperior
	case diff.Upper < 0:
		return VerdictNewInferior
	default:
		return VerdictInconclusive
	}
}

// ProbabilityVerdict classifies P(New > Control).
func ProbabilityVerdict(p float64) Verdict {
	switch {
	case p > 0.95:
		return VerdictNewStronglySuperior
	case p > 0.90:
		return VerdictNewProbablySuperior
	case p < 0.05:
		return VerdictNewStronglyInferior
	case p < 0.10:
		return VerdictNewProbablyInferior
	default:
		return VerdictInconclusive
	}
}

// PValueRecommendation maps the one-sided bootstrap p-value to an action.
func PValueRecommendation(p float64) Recommendation {
	switch {
	case p < 0.05:
		return RecommendImplementNew
	case p < 0.10:
		return RecommendKeepTesting
	default:
		return RecommendKeepControl
	}
}
