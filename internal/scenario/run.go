package scenario

import (
	"context"
	"fmt"

	"github.com/zeusync/robonav/internal/core/engine"
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/movement"
	"github.com/zeusync/robonav/internal/core/observability/log"
	"github.com/zeusync/robonav/internal/core/physics"
	"github.com/zeusync/robonav/pkg/concurrent"
)

// ctxCheckInterval is how many ticks run between context checks.
const ctxCheckInterval = 256

// Result is the outcome of one scenario run.
type Result struct {
	Name        string       `json:"name"`
	Ticks       int          `json:"ticks"`
	Pose        physics.Pose `json:"pose"`
	Arrived     bool         `json:"arrived"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Err         error        `json:"-"`
}

// Passed reports whether the run met every expectation.
func (r Result) Passed() bool { return r.Err == nil }

// Runner executes scenarios on private engines.
type Runner struct {
	logger      log.Log
	noise       level.NoiseConfig
	engineOpts  []engine.Option
	concurrency int
}

type Option func(*Runner)

func WithLogger(l log.Log) Option {
	return func(r *Runner) { r.logger = l }
}

func WithNoise(n level.NoiseConfig) Option {
	return func(r *Runner) { r.noise = n }
}

// WithEngineOptions adds options applied to every engine the runner builds.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(r *Runner) { r.engineOpts = append(r.engineOpts, opts...) }
}

// WithConcurrency bounds how many scenarios RunAll runs at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{logger: log.NewNop(), noise: level.DefaultNoiseConfig()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(log.String("component", "scenario"))
	return r
}

// Run plays s to arrival or max_ticks and checks its expectations. The
// returned Result is filled in even when err is non-nil.
func (r *Runner) Run(ctx context.Context, s Scenario) (Result, error) {
	res := Result{Name: s.Name}
	if err := s.Validate(); err != nil {
		res.Err = err
		return res, err
	}

	e, err := r.newEngine(s)
	if err != nil {
		res.Err = err
		return res, err
	}
	if s.Movement != "" {
		if err = e.ChangeMovement(s.Movement); err != nil {
			res.Err = fmt.Errorf("%w: %s: %w", ErrInvalidScenario, s.Name, err)
			return res, res.Err
		}
	}
	if s.Obstacles {
		e.SetObstacleMode(true)
		res.Fingerprint = level.FormatFingerprint(e.Fingerprint())
	}
	e.SetTarget(s.Target)

	arrivalSq := movement.DefaultLimits().ArrivalDistanceSq
	for res.Ticks < s.MaxTicks {
		if res.Ticks%ctxCheckInterval == 0 {
			if err = ctx.Err(); err != nil {
				res.Err = err
				return res, err
			}
		}
		if e.Snapshot().Arrived(arrivalSq) {
			break
		}
		e.Update(s.Dt)
		res.Ticks++
	}

	snap := e.Snapshot()
	res.Pose = snap.Pose
	res.Arrived = snap.Arrived(arrivalSq)
	res.Err = check(s, res)

	r.logger.Debug("Scenario finished",
		log.String("scenario", s.Name),
		log.Int("ticks", res.Ticks),
		log.Bool("arrived", res.Arrived),
		log.Bool("passed", res.Err == nil))
	return res, res.Err
}

// RunAll runs the scenarios concurrently and returns their results in input
// order. One failing scenario does not stop the others.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []Result {
	outcomes := concurrent.MapAll(ctx, scenarios, r.concurrency, r.Run)
	results := make([]Result, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.Value
	}
	return results
}

func (r *Runner) newEngine(s Scenario) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithLogger(r.logger),
		engine.WithGenerator(level.NewGenerator(r.noise)),
		engine.WithSeed(s.Seed),
	}
	if s.Start != nil {
		opts = append(opts, engine.WithSpawn(*s.Start))
	}
	opts = append(opts, r.engineOpts...)
	e, err := engine.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidScenario, s.Name, err)
	}
	return e, nil
}

func check(s Scenario, res Result) error {
	if s.Expect.Arrive != nil && *s.Expect.Arrive != res.Arrived {
		return fmt.Errorf("%w: %s: arrived=%t after %d ticks, want %t (pose %s)",
			ErrExpectationFailed, s.Name, res.Arrived, res.Ticks, *s.Expect.Arrive, res.Pose)
	}
	if s.Expect.Fingerprint != "" && s.Expect.Fingerprint != res.Fingerprint {
		return fmt.Errorf("%w: %s: fingerprint %s, want %s",
			ErrExpectationFailed, s.Name, res.Fingerprint, s.Expect.Fingerprint)
	}
	return nil
}
