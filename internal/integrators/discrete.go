package integrators

import (
	"context"

	"github.com/san-kum/episim/internal/epi"
)

// Discrete iterates a model over unit time steps:
// x[k+1] = x[k] + delta(x[k], k). The grid is 0, 1, ..., steps-1.
//
// This explicit scheme matches a daily reporting cadence. It is less accurate
// than Continuous and can drive compartments negative when rates are large;
// that is reported by the post-run checks, not corrected here.
type Discrete struct {
	// Substeps splits each day into equal Euler steps. Output stays on whole
	// days. Lagged models only support 1.
	Substeps int
	euler    *Euler
}

func NewDiscrete() *Discrete {
	return &Discrete{Substeps: 1, euler: NewEuler()}
}

func (d *Discrete) Name() string { return "euler" }

func (d *Discrete) Run(ctx context.Context, m epi.RateModel, x0 epi.State, steps int) (*epi.Trajectory, error) {
	if err := epi.CheckDimension(m, x0); err != nil {
		return nil, err
	}
	if steps < 1 {
		return nil, epi.Configf(m.Variant(), "steps", "must be at least 1 (got %d)", steps)
	}
	if d.Substeps < 1 {
		return nil, epi.Configf(m.Variant(), "substeps", "must be at least 1 (got %d)", d.Substeps)
	}
	if !x0.IsValid() {
		return nil, epi.Configf(m.Variant(), "initial", "initial state is not finite")
	}
	lagged, isLagged := m.(epi.LaggedModel)
	if isLagged && d.Substeps != 1 {
		return nil, epi.Configf(m.Variant(), "substeps", "lagged daily model requires whole-day steps (got %d substeps)", d.Substeps)
	}
	euler := d.euler
	if euler == nil {
		euler = NewEuler()
	}

	rows := make([]epi.State, steps)
	rows[0] = x0.Clone()

	x := x0.Clone()
	pending := 0.0
	h := 1.0 / float64(d.Substeps)
	for step := 0; step+1 < steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, d.fail(m, step, err)
		}

		if isLagged {
			dx := lagged.Delta(x, step, pending)
			// Carried into the next step: what today's state produced.
			pending = lagged.Pending(x)
			x = x.Add(dx)
		} else {
			for j := 0; j < d.Substeps; j++ {
				x = euler.Step(m, x, float64(step)+float64(j)*h, h)
			}
		}

		if !x.IsValid() {
			return nil, d.fail(m, step+1, ErrNonFinite)
		}
		rows[step+1] = x.Clone()
	}

	return epi.NewTrajectory(m.Variant(), m.Compartments(), epi.UnitGrid(steps), rows)
}

func (d *Discrete) fail(m epi.RateModel, step int, err error) error {
	return &epi.IntegrationError{
		Variant: m.Variant(),
		Solver:  d.Name(),
		Step:    step,
		Time:    float64(step),
		Err:     err,
	}
}
