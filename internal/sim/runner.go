// Package sim runs variants end to end: it selects an integrator, applies the
// post-run invariant checks and fans parameter sweeps out over workers.
package sim

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/models"
)

type Mode string

const (
	Continuous Mode = "continuous"
	Discrete   Mode = "discrete"
)

// Request selects the integrator and output grid for one run.
type Request struct {
	Mode Mode

	// Continuous mode. Grid overrides Days and Points when set; otherwise the
	// grid is Points evenly spaced times over [0, Days] (Points 0 means one
	// per day).
	Solver    string
	Tolerance integrators.Tolerance
	MaxSteps  int
	Days      float64
	Points    int
	Grid      []float64

	// Discrete mode.
	Steps int

	// Substeps is the RK4 substep count in continuous mode and the Euler
	// substep count in discrete mode. 0 keeps the integrator default.
	Substeps int

	Timeout time.Duration

	// Permissive downgrades invariant violations to warnings.
	Permissive bool
	Limits     Limits
}

// DefaultRequest is a 160 day continuous run with the rk45 solver.
func DefaultRequest() Request {
	return Request{
		Mode:      Continuous,
		Solver:    "rk45",
		Tolerance: integrators.DefaultTolerance(),
		Days:      160,
		Steps:     161,
	}
}

// OutputGrid returns the continuous output grid the request describes.
func (r Request) OutputGrid() []float64 {
	if len(r.Grid) > 0 {
		return append([]float64(nil), r.Grid...)
	}
	points := r.Points
	if points == 0 {
		points = int(math.Floor(r.Days)) + 1
	}
	return epi.Linspace(0, r.Days, points)
}

func (r Request) validate(v epi.Variant) error {
	if r.Timeout < 0 {
		return epi.Configf(v, "timeout", "must not be negative (got %s)", r.Timeout)
	}
	if r.Substeps < 0 {
		return epi.Configf(v, "substeps", "must not be negative (got %d)", r.Substeps)
	}
	if r.MaxSteps < 0 {
		return epi.Configf(v, "max_steps", "must not be negative (got %d)", r.MaxSteps)
	}
	switch r.Mode {
	case Continuous:
		if len(r.Grid) == 0 {
			if !(r.Days >= 0) || math.IsInf(r.Days, 0) {
				return epi.Configf(v, "days", "must be finite and non-negative (got %g)", r.Days)
			}
			if r.Points < 0 || (r.Points == 1 && r.Days != 0) {
				return epi.Configf(v, "points", "need at least 2 points for a %g day horizon (got %d)", r.Days, r.Points)
			}
		}
	case Discrete:
		if r.Steps < 1 {
			return epi.Configf(v, "steps", "must be at least 1 (got %d)", r.Steps)
		}
	default:
		return epi.Configf(v, "mode", "unknown mode %q (want continuous or discrete)", r.Mode)
	}
	return nil
}

type Result struct {
	Model      epi.RateModel
	Trajectory *epi.Trajectory
	Mode       Mode
	Solver     string
	Stats      integrators.Stats
	// Warnings holds the invariant violations a permissive run let through.
	Warnings []error
	Elapsed  time.Duration
}

// Runner turns a parameter set and a request into a checked trajectory.
// It keeps no per-run state and is safe for concurrent use.
type Runner struct {
	log *slog.Logger
}

func NewRunner() *Runner {
	return &Runner{log: logging.New("sim")}
}

func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	return &Runner{log: l}
}

// Run builds the variant's model from p and integrates it.
func (r *Runner) Run(ctx context.Context, p epi.ParameterSet, req Request) (*Result, error) {
	m, err := models.New(p)
	if err != nil {
		return nil, err
	}
	return r.RunModel(ctx, m, req)
}

// RunModel integrates m from its initial state. Integration failures return
// no result. Invariant violations fail the run unless req.Permissive is set,
// in which case they are logged and attached to the result.
func (r *Runner) RunModel(ctx context.Context, m epi.RateModel, req Request) (*Result, error) {
	v := m.Variant()
	if err := req.validate(v); err != nil {
		return nil, err
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	log := r.log.With(slog.String("variant", string(v)), slog.String("mode", string(req.Mode)))
	start := time.Now()

	res := &Result{Model: m, Mode: req.Mode}
	var err error
	switch req.Mode {
	case Continuous:
		err = r.continuous(ctx, m, req, res)
	case Discrete:
		err = r.discrete(ctx, m, req, res)
	}
	res.Elapsed = time.Since(start)
	if err != nil {
		log.Debug("run failed", slog.Any("error", err))
		return nil, err
	}

	violations := Check(m, res.Trajectory, req.Mode, req.Limits)
	if len(violations) > 0 {
		if !req.Permissive {
			log.Debug("run rejected", slog.Int("violations", len(violations)))
			return nil, violations[0]
		}
		for _, vi := range violations {
			log.Warn("invariant violated", slog.Any("error", vi))
		}
		res.Warnings = violations
	}

	log.Debug("run finished",
		slog.String("solver", res.Solver),
		slog.Int("points", res.Trajectory.Len()),
		slog.Int("steps", res.Stats.Steps),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (r *Runner) continuous(ctx context.Context, m epi.RateModel, req Request, res *Result) error {
	tol := req.Tolerance
	if tol == (integrators.Tolerance{}) {
		tol = integrators.DefaultTolerance()
	}
	solver, err := integrators.NewSolver(req.Solver, tol)
	if err != nil {
		var ce *epi.ConfigError
		if errors.As(err, &ce) {
			ce.Variant = m.Variant()
		}
		return err
	}
	switch s := solver.(type) {
	case *integrators.RK45:
		if req.MaxSteps > 0 {
			s.MaxSteps = req.MaxSteps
		}
	case *integrators.RK4:
		if req.Substeps > 0 {
			s.Substeps = req.Substeps
		}
	}

	tr, stats, err := integrators.NewContinuous(solver).RunWithStats(ctx, m, m.Initial(), req.OutputGrid())
	if err != nil {
		return err
	}
	res.Trajectory = tr
	res.Stats = stats
	res.Solver = solver.Name()
	return nil
}

func (r *Runner) discrete(ctx context.Context, m epi.RateModel, req Request, res *Result) error {
	d := integrators.NewDiscrete()
	if req.Substeps > 0 {
		d.Substeps = req.Substeps
	}
	tr, err := d.Run(ctx, m, m.Initial(), req.Steps)
	if err != nil {
		return err
	}
	res.Trajectory = tr
	res.Stats = integrators.Stats{Steps: (req.Steps - 1) * d.Substeps, Evaluations: (req.Steps - 1) * d.Substeps}
	res.Solver = d.Name()
	return nil
}
