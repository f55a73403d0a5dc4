package integrators

import (
	"context"

	"github.com/san-kum/episim/internal/epi"
)

// RK4 is the classic fixed-step Runge-Kutta method. Each output interval is
// split into Substeps equal steps.
type RK4 struct {
	Substeps int
}

func NewRK4() *RK4 {
	return &RK4{Substeps: 10}
}

func (r *RK4) Name() string { return "rk4" }

type rk4Step struct {
	k1, k2, k3, k4 epi.State
	scratch        epi.State
}

func (r *rk4Step) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(epi.State, n)
		r.k2 = make(epi.State, n)
		r.k3 = make(epi.State, n)
		r.k4 = make(epi.State, n)
		r.scratch = make(epi.State, n)
	}
}

func (r *rk4Step) Step(f Func, x epi.State, t, dt float64) epi.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k1, f(t, x))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, f(t+dt*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, f(t+dt*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, f(t+dt, r.scratch))

	result := make(epi.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}

func (r *RK4) Solve(ctx context.Context, f Func, x0 epi.State, grid []float64) ([]epi.State, Stats, error) {
	var stats Stats
	substeps := r.Substeps
	if substeps < 1 {
		return nil, stats, epi.Configf("", "substeps", "must be at least 1 (got %d)", substeps)
	}

	out := make([]epi.State, len(grid))
	out[0] = x0.Clone()

	stepper := &rk4Step{}
	x := x0.Clone()
	for k := 1; k < len(grid); k++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, failure(stats.Steps, grid[k-1], err)
		}
		t0 := grid[k-1]
		dt := (grid[k] - t0) / float64(substeps)
		for j := 0; j < substeps; j++ {
			x = stepper.Step(f, x, t0+float64(j)*dt, dt)
			stats.Steps++
			stats.Evaluations += 4
		}
		if !x.IsValid() {
			return nil, stats, failure(stats.Steps, grid[k], ErrNonFinite)
		}
		out[k] = x.Clone()
	}

	return out, stats, nil
}
