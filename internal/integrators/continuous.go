package integrators

import (
	"context"
	"errors"

	"github.com/san-kum/episim/internal/epi"
)

// Continuous drives an adaptive ODE solver over a requested output grid.
// grid[0] is the time of the initial condition.
type Continuous struct {
	solver Solver
}

func NewContinuous(s Solver) *Continuous {
	if s == nil {
		s = NewRK45()
	}
	return &Continuous{solver: s}
}

func (c *Continuous) Run(ctx context.Context, m epi.RateModel, x0 epi.State, grid []float64) (*epi.Trajectory, error) {
	tr, _, err := c.RunWithStats(ctx, m, x0, grid)
	return tr, err
}

// RunWithStats is Run plus the solver's work counters. No trajectory is
// returned on failure.
func (c *Continuous) RunWithStats(ctx context.Context, m epi.RateModel, x0 epi.State, grid []float64) (*epi.Trajectory, Stats, error) {
	if err := epi.CheckDimension(m, x0); err != nil {
		return nil, Stats{}, err
	}
	if err := epi.ValidateGrid(m.Variant(), grid); err != nil {
		return nil, Stats{}, err
	}
	if !x0.IsValid() {
		return nil, Stats{}, epi.Configf(m.Variant(), "initial", "initial state is not finite")
	}

	f := func(t float64, x epi.State) epi.State { return m.Derive(x, t) }
	rows, stats, err := c.solver.Solve(ctx, f, x0, grid)
	if err != nil {
		return nil, stats, c.annotate(m, err)
	}

	tr, err := epi.NewTrajectory(m.Variant(), m.Compartments(), grid, rows)
	return tr, stats, err
}

func (c *Continuous) annotate(m epi.RateModel, err error) error {
	var ie *epi.IntegrationError
	if errors.As(err, &ie) {
		ie.Variant = m.Variant()
		ie.Solver = c.solver.Name()
		return ie
	}
	var ce *epi.ConfigError
	if errors.As(err, &ce) && ce.Variant == "" {
		ce.Variant = m.Variant()
	}
	return err
}
