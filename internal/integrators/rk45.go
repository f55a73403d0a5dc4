package integrators

import (
	"context"
	"math"

	"github.com/san-kum/episim/internal/epi"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an adaptive Dormand-Prince 5(4) solver. Steps are shortened to land
// exactly on every requested output time, so no interpolation is involved.
type RK45 struct {
	Tol Tolerance
	// MaxSteps bounds the accepted steps over a whole grid.
	MaxSteps int
	// InitialStep is the first trial step; 0 picks 1% of the first interval.
	InitialStep float64

	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		Tol:      DefaultTolerance(),
		MaxSteps: 1_000_000,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Name() string { return "rk45" }

// StepAdaptive takes one trial step of size dt. It returns the fifth-order
// solution, the error ratio (accept when <= 1) and the suggested next step.
func (r *RK45) StepAdaptive(f Func, x epi.State, t, dt float64) (epi.State, float64, float64) {
	n := len(x)

	k1 := f(t, x)

	x2 := make(epi.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2 := f(t+a2*dt, x2)

	x3 := make(epi.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := f(t+a3*dt, x3)

	x4 := make(epi.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := f(t+a4*dt, x4)

	x5 := make(epi.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := f(t+a5*dt, x5)

	x6 := make(epi.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := f(t+dt, x6)

	xNew := make(epi.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := f(t+dt, xNew)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := r.Tol.Abs + r.Tol.Rel*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}
	if !xNew.IsValid() || math.IsNaN(errMax) {
		return xNew, math.Inf(1), dt * r.minScale
	}

	var dtNew float64
	if errMax > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errMax, -0.25))
		dtNew = dt * scale
	} else {
		if errMax > 0 {
			scale := math.Min(r.maxScale, r.safety*math.Pow(errMax, -0.2))
			dtNew = dt * scale
		} else {
			dtNew = dt * r.maxScale
		}
	}

	return xNew, errMax, dtNew
}

func (r *RK45) Solve(ctx context.Context, f Func, x0 epi.State, grid []float64) ([]epi.State, Stats, error) {
	var stats Stats
	if err := r.Tol.validate(); err != nil {
		return nil, stats, err
	}

	out := make([]epi.State, len(grid))
	out[0] = x0.Clone()
	if len(grid) == 1 {
		return out, stats, nil
	}

	x := x0.Clone()
	t := grid[0]
	h := r.InitialStep
	if h <= 0 {
		h = 0.01 * (grid[1] - grid[0])
	}

	for k := 1; k < len(grid); k++ {
		target := grid[k]
		for t < target {
			if err := ctx.Err(); err != nil {
				return nil, stats, failure(stats.Steps, t, err)
			}
			if stats.Steps >= r.MaxSteps {
				return nil, stats, failure(stats.Steps, t, ErrStepBudget)
			}

			dt := h
			last := false
			if dt >= target-t {
				dt = target - t
				last = true
			}
			if dt < 16*epsilon(t) {
				return nil, stats, failure(stats.Steps, t, ErrStepTooSmall)
			}

			xNew, ratio, dtNew := r.StepAdaptive(f, x, t, dt)
			stats.Evaluations += 7

			if ratio > 1 {
				stats.Rejections++
				h = dtNew
				continue
			}

			x = xNew
			if last {
				t = target
				// keep a larger step that was only shortened to hit the grid
				h = math.Max(h, dtNew)
			} else {
				t += dt
				h = dtNew
			}
			stats.Steps++
		}
		out[k] = x.Clone()
	}

	return out, stats, nil
}

// epsilon is the spacing of float64 values around t.
func epsilon(t float64) float64 {
	t = math.Abs(t)
	if t == 0 {
		return math.SmallestNonzeroFloat64
	}
	return math.Nextafter(t, math.Inf(1)) - t
}
