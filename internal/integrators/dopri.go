package integrators

import (
	"context"
	"math"

	"github.com/ready-steady/ode/dopri"

	"github.com/san-kum/episim/internal/epi"
)

// Dopri delegates to the Dormand-Prince integrator of ready-steady/ode, which
// interpolates its internal steps onto the requested grid.
//
// The library cannot be interrupted, so once ctx is done the derivative is
// forced to zero: the remaining integration finishes in a few large steps and
// its result is discarded.
type Dopri struct {
	Tol     Tolerance
	MaxStep float64
	TryStep float64
}

func NewDopri() *Dopri {
	return &Dopri{Tol: DefaultTolerance()}
}

func (d *Dopri) Name() string { return "dopri" }

func (d *Dopri) Solve(ctx context.Context, f Func, x0 epi.State, grid []float64) ([]epi.State, Stats, error) {
	var stats Stats
	if err := d.Tol.validate(); err != nil {
		return nil, stats, err
	}
	if len(grid) == 1 {
		return []epi.State{x0.Clone()}, stats, nil
	}

	cfg := dopri.DefaultConfig()
	cfg.AbsError = d.Tol.Abs
	cfg.RelError = d.Tol.Rel
	cfg.MaxStep = d.MaxStep
	cfg.TryStep = d.TryStep

	integrator, err := dopri.New(cfg)
	if err != nil {
		return nil, stats, epi.Configf("", "tolerance", "%v", err)
	}

	interrupted := false
	dydx := func(t float64, y, dy []float64) {
		if interrupted || ctx.Err() != nil {
			interrupted = true
			for i := range dy {
				dy[i] = 0
			}
			return
		}
		copy(dy, f(t, y))
	}

	ys, _, libStats, err := integrator.ComputeWithStats(dydx, x0, grid)
	if libStats != nil {
		stats = Stats{
			Steps:       int(libStats.Steps),
			Rejections:  int(libStats.Rejections),
			Evaluations: int(libStats.Evaluations),
		}
	}
	if interrupted {
		return nil, stats, failure(stats.Steps, math.NaN(), ctx.Err())
	}
	if err != nil {
		return nil, stats, failure(stats.Steps, math.NaN(), err)
	}

	nd := len(x0)
	if len(grid) == 2 {
		// Two points put the library in free-stepping mode: it reports every
		// internal step, the last of which is the end point.
		ys = append(append([]float64(nil), x0...), ys[len(ys)-nd:]...)
	}

	out := make([]epi.State, len(grid))
	for k := range out {
		out[k] = epi.State(ys[k*nd : (k+1)*nd]).Clone()
		if !out[k].IsValid() {
			return nil, stats, failure(stats.Steps, grid[k], ErrNonFinite)
		}
	}
	return out, stats, nil
}
