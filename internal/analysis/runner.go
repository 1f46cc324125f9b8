package analysis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/stats"
)

// Options selects what a run computes.
type Options struct {
	Methods []Method

	// Seed makes the run reproducible. Zero draws a random seed, which is
	// recorded in the report.
	Seed uint64

	// Timeout bounds the whole run when positive.
	Timeout time.Duration

	// Concurrency caps parallel methods; zero runs all at once.
	Concurrency int
}

// Report collects the results of one run. Exactly one of the result field
// or the Errors entry is set for every selected method.
type Report struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Seed      uint64    `json:"seed" yaml:"seed"`
	Methods   []Method  `json:"methods" yaml:"methods"`
	Rows      int       `json:"rows" yaml:"rows"`

	Bootstrap *stats.BootstrapResult `json:"bootstrap,omitempty" yaml:"bootstrap,omitempty"`
	Beta      *stats.BayesResult     `json:"beta,omitempty" yaml:"beta,omitempty"`
	Normal    *stats.BayesResult     `json:"normal,omitempty" yaml:"normal,omitempty"`
	Metrics   *stats.MetricsResult   `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	Errors map[Method]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Failed reports whether every selected method failed.
func (r *Report) Failed() bool {
	return len(r.Methods) > 0 && len(r.Errors) == len(r.Methods)
}

// Runner executes analyses against experiment tables.
type Runner struct {
	log zerolog.Logger
}

// NewRunner creates a runner logging through log.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log.With().Str("component", "runner").Logger()}
}

type outcome struct {
	value any
	err   error
}

// Run computes the selected methods concurrently on t. Each method draws
// from its own source derived from the seed, so results do not depend on
// scheduling. Method failures are recorded in Report.Errors; Run itself
// only fails on invalid options.
func (r *Runner) Run(ctx context.Context, t *experiment.Table, opts Options) (*Report, error) {
	if len(opts.Methods) == 0 {
		return nil, errors.New("no method selected")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	report := &Report{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Seed:      seed,
		Methods:   opts.Methods,
		Rows:      len(t.Rows),
	}
	analysisRows.Observe(float64(len(t.Rows)))

	outcomes := make([]outcome, len(opts.Methods))

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, m := range opts.Methods {
		g.Go(func() error {
			outcomes[i] = r.runMethod(ctx, t, m, seed)
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range opts.Methods {
		o := outcomes[i]
		if o.err != nil {
			if report.Errors == nil {
				report.Errors = make(map[Method]string)
			}
			report.Errors[m] = o.err.Error()
			continue
		}
		switch v := o.value.(type) {
		case *stats.BootstrapResult:
			report.Bootstrap = v
		case *stats.MetricsResult:
			report.Metrics = v
		case *stats.BayesResult:
			if m == MethodBeta {
				report.Beta = v
			} else {
				report.Normal = v
			}
		}
	}

	r.log.Info().
		Str("report_id", report.ID.String()).
		Int("rows", report.Rows).
		Int("methods", len(report.Methods)).
		Int("failed", len(report.Errors)).
		Msg("analysis finished")

	return report, nil
}

func (r *Runner) runMethod(ctx context.Context, t *experiment.Table, m Method, seed uint64) outcome {
	if err := ctx.Err(); err != nil {
		analysisRuns.WithLabelValues(string(m), "skipped").Inc()
		return outcome{err: fmt.Errorf("%s not started: %w", m, err)}
	}

	src := stats.NewSource(seed + m.offset())
	start := time.Now()

	var o outcome
	switch m {
	case MethodBootstrap:
		o.value, o.err = stats.Bootstrap(t, src)
	case MethodBeta:
		o.value, o.err = stats.BayesBeta(t, src)
	case MethodNormal:
		o.value, o.err = stats.BayesNormal(t, src)
	case MethodMetrics:
		o.value, o.err = stats.Metrics(t)
	default:
		o.err = fmt.Errorf("unknown method %q", m)
	}

	elapsed := time.Since(start)
	analysisDuration.WithLabelValues(string(m)).Observe(elapsed.Seconds())

	if o.err != nil {
		analysisRuns.WithLabelValues(string(m), "error").Inc()
		r.log.Warn().Err(o.err).Str("method", string(m)).Msg("analysis failed")
		return o
	}

	analysisRuns.WithLabelValues(string(m), "ok").Inc()
	r.log.Debug().Str("method", string(m)).Dur("duration", elapsed).Msg("analysis completed")
	return o
}
