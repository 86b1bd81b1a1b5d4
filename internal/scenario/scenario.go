package scenario

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"contendq/internal/check"
	"contendq/internal/stats"
	"contendq/internal/workflow"
)

// Outcome is the primary signal of one scenario run.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeConflict
	OutcomeNotFound
	OutcomeUnexpected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeConflict:
		return "conflict"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Counter is the counter the outcome is tallied under.
func (o Outcome) Counter() string {
	switch o {
	case OutcomeSuccess:
		return MetricSuccessfulOperations
	case OutcomeConflict:
		return MetricConflictOperations
	case OutcomeNotFound:
		return MetricNotFoundOperations
	default:
		return MetricUnexpectedOperations
	}
}

type Result struct {
	Scenario string
	Outcome  Outcome
	Steps    int
	Skipped  int
}

// Params tunes the scenario library for one run.
type Params struct {
	QuitProbability float64
	FixtureQuestion string
	FastThreshold   time.Duration
	Difficulties    []string
}

func DefaultParams() Params {
	return Params{
		QuitProbability: 0.3,
		FixtureQuestion: "Q123",
		FastThreshold:   3 * time.Second,
		Difficulties:    []string{"easy", "medium", "hard"},
	}
}

// Env is everything a scenario may touch. One Env belongs to one virtual
// user; ID changes every iteration.
type Env struct {
	ID      string
	Exec    workflow.Executor
	Metrics stats.Recorder
	Checks  *check.Engine
	Rand    *rand.Rand
	Logger  *zap.Logger
	Params  Params
}

func NewEnv(exec workflow.Executor, rec stats.Recorder, rng *rand.Rand, logger *zap.Logger, params Params) *Env {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Env{
		Exec:    exec,
		Metrics: rec,
		Checks:  check.NewEngine(rec),
		Rand:    rng,
		Logger:  logger,
		Params:  params,
	}
}

// Scenario is one named workflow. Run must not keep state between calls;
// everything per-iteration lives in env.
type Scenario interface {
	Name() string
	Weight() float64
	Run(ctx context.Context, env *Env) Result
}

type base struct {
	name   string
	weight float64
}

func (b base) Name() string    { return b.name }
func (b base) Weight() float64 { return b.weight }

func named(name string) base {
	return base{name: name, weight: 1}
}

type reweighted struct {
	Scenario
	weight float64
}

func (r reweighted) Weight() float64 { return r.weight }

// WithWeight returns s with a different selection weight.
func WithWeight(s Scenario, w float64) Scenario {
	if rw, ok := s.(reweighted); ok {
		s = rw.Scenario
	}
	return reweighted{Scenario: s, weight: w}
}

// trace runs the steps of one scenario instance and tallies its result.
type trace struct {
	env *Env
	res Result
}

func newTrace(env *Env, name string) *trace {
	return &trace{env: env, res: Result{Scenario: name}}
}

// do executes one step. Its response goes through the check engine and the
// aggregator exactly once, here.
func (t *trace) do(ctx context.Context, step string, req workflow.Request, expect []int, extra ...check.Definition) workflow.Response {
	env := t.env
	t.res.Steps++

	resp := env.Exec.Execute(ctx, req)

	m := env.Metrics
	m.Increment(MetricHTTPReqs)
	m.Record(TrendHTTPReqDuration, resp.Duration)
	m.Record(StepTrend(step), resp.Duration)
	m.Observe(RateSystemHealthy, resp.StatusCode >= 200 && resp.StatusCode < 500)
	m.Observe(RateFastOperations, !resp.TransportFailed() && resp.Duration < env.Params.FastThreshold)

	expected := statusIn(resp.StatusCode, expect)
	m.Observe(RateHTTPReqFailed, !expected)
	switch {
	case resp.TransportFailed():
		m.Increment(MetricTransportErrors)
	case resp.StatusCode >= 500:
		m.Increment(MetricServerErrors)
	}

	defs := make([]check.Definition, 0, len(extra)+1)
	defs = append(defs, check.StatusIn(step+" status", expect...))
	defs = append(defs, extra...)
	env.Checks.Run(resp, defs)

	if !expected {
		env.Logger.Debug("unexpected status",
			zap.String("scenario", t.res.Scenario),
			zap.String("step", step),
			zap.Int("status", resp.StatusCode),
			zap.Error(resp.Err),
		)
	}
	return resp
}

// skip accounts for dependent steps that will not run.
func (t *trace) skip(n int) {
	if n <= 0 {
		return
	}
	t.res.Skipped += n
	t.env.Metrics.Add(MetricStepsSkipped, int64(n))
}

func (t *trace) done(o Outcome) Result {
	t.res.Outcome = o
	return t.res
}

// outcomeOf maps a status onto an outcome given the statuses the step treats
// as sane.
func outcomeOf(status int, expect []int) Outcome {
	if !statusIn(status, expect) {
		return OutcomeUnexpected
	}
	switch status {
	case 200:
		return OutcomeSuccess
	case 404:
		return OutcomeNotFound
	default:
		return OutcomeConflict
	}
}

func statusIn(status int, codes []int) bool {
	for _, c := range codes {
		if status == c {
			return true
		}
	}
	return false
}

func sla(step string, limit time.Duration) check.Definition {
	return check.DurationUnder(step+" under "+limit.String(), limit)
}
