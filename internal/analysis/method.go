package analysis

import (
	"fmt"
	"strings"
)

// Method names one analysis over an experiment table.
type Method string

const (
	MethodBootstrap Method = "bootstrap"
	MethodBeta      Method = "beta"
	MethodNormal    Method = "normal"
	MethodMetrics   Method = "metrics"
)

// AllMethods lists every method in report order. A method's position also
// offsets its random seed.
var AllMethods = []Method{MethodBootstrap, MethodBeta, MethodNormal, MethodMetrics}

var methodTitles = map[Method]string{
	MethodBootstrap: "Bootstrap",
	MethodBeta:      "Bayesian (Beta)",
	MethodNormal:    "Bayesian (Normal)",
	MethodMetrics:   "Metrics & SRM",
}

// Title is the human-readable name of the method.
func (m Method) Title() string {
	if t, ok := methodTitles[m]; ok {
		return t
	}
	return string(m)
}

func (m Method) offset() uint64 {
	for i, am := range AllMethods {
		if am == m {
			return uint64(i)
		}
	}
	return 0
}

// ParseMethods parses a comma-separated method list. An empty string or
// "all" selects every method; duplicates are dropped and the result keeps
// report order.
func ParseMethods(s string) ([]Method, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return append([]Method(nil), AllMethods...), nil
	}

	selected := make(map[Method]bool)
	for _, part := range strings.Split(s, ",") {
		m := Method(strings.TrimSpace(part))
		if m == "" {
			continue
		}
		if _, ok := methodTitles[m]; !ok {
			return nil, fmt.Errorf("unknown method %q (expected bootstrap, beta, normal, metrics or all)", m)
		}
		selected[m] = true
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no method selected")
	}

	var methods []Method
	for _, m := range AllMethods {
		if selected[m] {
			methods = append(methods, m)
		}
	}
	return methods, nil
}
