package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contendq/internal/check"
	"contendq/internal/idgen"
	"contendq/internal/scenario"
	"contendq/internal/stats"
	"contendq/internal/workflow"
)

type Runner struct {
	Cfg     Config
	Metrics *stats.Aggregator
	Suite   scenario.Suite
	Seed    idgen.RunSeed

	// Event Channel
	Updates StatsUpdateChan

	exec     workflow.Executor
	selector scenario.Selector
	logger   *zap.Logger

	users   []*VirtualUser
	start   time.Time
	claimed atomic.Int64
	active  atomic.Int64
}

type Option func(*Runner)

// WithExecutor replaces the HTTP executor, e.g. with a fake in tests.
func WithExecutor(exec workflow.Executor) Option {
	return func(r *Runner) { r.exec = exec }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func WithSeed(seed idgen.RunSeed) Option {
	return func(r *Runner) { r.Seed = seed }
}

func WithAggregator(agg *stats.Aggregator) Option {
	return func(r *Runner) { r.Metrics = agg }
}

func NewRunner(cfg Config, updates StatsUpdateChan, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	suite, err := scenario.LookupSuite(cfg.Suite)
	if err != nil {
		return nil, err
	}
	suite, err = suite.Reweight(cfg.Weights)
	if err != nil {
		return nil, err
	}
	sel, err := suite.Selector()
	if err != nil {
		return nil, err
	}

	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(StatsUpdateChan, 10)
	}

	r := &Runner{
		Cfg:      cfg,
		Suite:    suite,
		Seed:     idgen.NewRunSeed(),
		Updates:  updates,
		selector: sel,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exec == nil {
		r.exec = workflow.NewHTTPExecutor(cfg.BaseURL, time.Duration(cfg.TimeoutSec)*time.Second, cfg.Headers)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.Metrics == nil {
		r.Metrics = stats.NewAggregator()
	}
	r.Metrics.Register(scenario.Counters, append([]string{check.RateAll}, scenario.Rates...))
	return r, nil
}

// Run provisions the suite's fixtures, launches every virtual user and
// blocks until all of them have stopped. The returned snapshot is taken
// after that barrier. Cancelling ctx stops users at their next scenario
// boundary; a scenario in flight always completes.
func (r *Runner) Run(ctx context.Context) (stats.Snapshot, error) {
	log := r.logger.With(zap.String("suite", r.Suite.Name), zap.String("run", r.Seed.Tag()))

	if r.Suite.Setup != nil {
		if err := r.Suite.Setup(ctx, r.exec, r.Cfg.Params); err != nil {
			log.Error("fixture setup failed", zap.Error(err))
			return stats.Snapshot{}, fmt.Errorf("setup %s suite: %w", r.Suite.Name, err)
		}
		log.Info("fixtures provisioned")
	}

	r.users = make([]*VirtualUser, r.Cfg.NumUsers)
	for i := range r.users {
		r.users[i] = r.newUser(i)
	}

	log.Info("run starting",
		zap.Int("users", r.Cfg.NumUsers),
		zap.Duration("duration", r.Cfg.Duration),
		zap.Int("iterations", r.Cfg.Iterations),
	)

	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()

	r.start = time.Now()
	r.StartTickLoop(tickCtx, 200*time.Millisecond)

	var g errgroup.Group
	for _, vu := range r.users {
		g.Go(func() error {
			r.runUser(ctx, vu)
			return nil
		})
	}
	_ = g.Wait()
	stopTicks()

	elapsed := time.Since(r.start)
	r.sendUpdate(true)
	snap := r.Metrics.Snapshot()
	log.Info("run finished",
		zap.Duration("elapsed", elapsed),
		zap.Int64("operations", snap.Counter(scenario.MetricTotalOperations)),
		zap.Int64("unexpected", snap.Counter(scenario.MetricUnexpectedOperations)),
	)
	return snap, nil
}

func (r *Runner) newUser(i int) *VirtualUser {
	vu := &VirtualUser{
		ID:    uuid.NewString(),
		Index: i,
		ids:   idgen.New(r.Seed, i),
	}
	vu.env = scenario.NewEnv(r.exec, r.Metrics, r.Seed.Rand(i), r.logger, r.Cfg.Params)
	return vu
}

func (r *Runner) runUser(ctx context.Context, vu *VirtualUser) {
	vu.setState(Running)
	r.active.Add(1)
	defer func() {
		r.active.Add(-1)
		vu.setState(Stopped)
		r.logger.Debug("virtual user stopped", zap.Int("vu", vu.Index), zap.Int64("iterations", vu.Iterations()))
	}()

	// Scenarios are never interrupted; cancellation is only honored here.
	scenarioCtx := context.WithoutCancel(ctx)
	for r.proceed(ctx) {
		vu.env.ID = vu.ids.Next()
		sc := r.selector.Select(vu.env.Rand)
		res := sc.Run(scenarioCtx, vu.env)

		r.Metrics.Increment(scenario.MetricTotalOperations)
		r.Metrics.Increment(res.Outcome.Counter())
		vu.iterations.Add(1)
	}
}

// proceed decides at a scenario boundary whether the user runs another
// iteration. With an iteration quota it claims one slot of the shared quota.
func (r *Runner) proceed(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if r.Cfg.Duration > 0 {
		return time.Since(r.start) < r.Cfg.Duration
	}
	return r.claimed.Add(1) <= int64(r.Cfg.Iterations)
}

// StartTickLoop starts a goroutine that pushes stats updates
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate(false)
			}
		}
	}()
}

func (r *Runner) sendUpdate(done bool) {
	s := r.Progress()
	s.Done = done

	if done {
		// the final update must not be dropped
		select {
		case r.Updates <- s:
		case <-time.After(time.Second):
		}
		return
	}

	// Non-blocking send
	select {
	case r.Updates <- s:
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Progress builds an eventually-consistent view of the running test.
func (r *Runner) Progress() StatsSnapshot {
	snap := r.Metrics.Snapshot()
	elapsed := time.Duration(0)
	if !r.start.IsZero() {
		elapsed = time.Since(r.start)
	}
	lat := snap.Trends[scenario.TrendHTTPReqDuration]
	ops := snap.Counter(scenario.MetricTotalOperations)

	s := StatsSnapshot{
		Elapsed:         elapsed,
		ActiveUsers:     r.active.Load(),
		Operations:      ops,
		Successful:      snap.Counter(scenario.MetricSuccessfulOperations),
		Conflicts:       snap.Counter(scenario.MetricConflictOperations),
		NotFound:        snap.Counter(scenario.MetricNotFoundOperations),
		Unexpected:      snap.Counter(scenario.MetricUnexpectedOperations),
		Skipped:         snap.Counter(scenario.MetricStepsSkipped),
		HTTPReqs:        snap.Counter(scenario.MetricHTTPReqs),
		ServerErrors:    snap.Counter(scenario.MetricServerErrors),
		TransportErrors: snap.Counter(scenario.MetricTransportErrors),
		HealthyRate:     snap.Rate(scenario.RateSystemHealthy),
		ChecksRate:      snap.Rate(check.RateAll),
		P50Ms:           lat.P50Ms,
		P90Ms:           lat.P90Ms,
		P99Ms:           lat.P99Ms,
		MaxMs:           lat.MaxMs,
	}

	switch {
	case r.Cfg.Duration > 0:
		s.Progress = elapsed.Seconds() / r.Cfg.Duration.Seconds()
	case r.Cfg.Iterations > 0:
		s.Progress = float64(ops) / float64(r.Cfg.Iterations)
	}
	if s.Progress > 1 {
		s.Progress = 1
	}
	return s
}

// Users returns the run's virtual users. Empty before Run.
func (r *Runner) Users() []*VirtualUser {
	return r.users
}

func (r *Runner) ActiveUsers() int64 {
	return r.active.Load()
}
