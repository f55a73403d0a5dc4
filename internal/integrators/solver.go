package integrators

import (
	"context"
	"errors"

	"github.com/san-kum/episim/internal/epi"
)

var (
	// ErrStepBudget indicates the adaptive solver hit its step limit before the end of the grid.
	ErrStepBudget = errors.New("integrators: step budget exhausted")

	// ErrStepTooSmall indicates the adaptive step shrank below the representable minimum.
	ErrStepTooSmall = errors.New("integrators: adaptive step below minimum")

	// ErrNonFinite indicates the state became NaN or Inf.
	ErrNonFinite = errors.New("integrators: state is not finite")
)

// Func is the right-hand side dx/dt = f(t, x). It must not modify x.
type Func func(t float64, x epi.State) epi.State

// Solver integrates f from grid[0] and reports the state at every grid point.
// Failures are returned as *epi.IntegrationError with Step and Time set.
type Solver interface {
	Name() string
	Solve(ctx context.Context, f Func, x0 epi.State, grid []float64) ([]epi.State, Stats, error)
}

// Stats describes the work a solver did.
type Stats struct {
	Steps       int
	Rejections  int
	Evaluations int
}

// Tolerance is the local error control of adaptive solvers. A step is
// accepted when every component error is below Abs + Rel*|x|.
type Tolerance struct {
	Abs float64 `yaml:"abs" json:"abs"`
	Rel float64 `yaml:"rel" json:"rel"`
}

// DefaultTolerance keeps compartment sums conserved to well below 1e-6
// relative error over typical horizons.
func DefaultTolerance() Tolerance {
	return Tolerance{Abs: 1e-6, Rel: 1e-9}
}

func (t Tolerance) validate() error {
	if !(t.Abs > 0) {
		return epi.Configf("", "tolerance.abs", "must be positive (got %g)", t.Abs)
	}
	if !(t.Rel > 0) {
		return epi.Configf("", "tolerance.rel", "must be positive (got %g)", t.Rel)
	}
	return nil
}

func failure(step int, t float64, err error) error {
	return &epi.IntegrationError{Step: step, Time: t, Err: err}
}

// NewSolver returns a solver by name: rk45, dopri or rk4.
func NewSolver(name string, tol Tolerance) (Solver, error) {
	switch name {
	case "", "rk45":
		s := NewRK45()
		s.Tol = tol
		return s, nil
	case "dopri":
		s := NewDopri()
		s.Tol = tol
		return s, nil
	case "rk4":
		return NewRK4(), nil
	default:
		return nil, epi.Configf("", "solver", "unknown solver %q (want rk45, dopri or rk4)", name)
	}
}

// SolverNames lists the names accepted by NewSolver.
func SolverNames() []string {
	return []string{"rk45", "dopri", "rk4"}
}
