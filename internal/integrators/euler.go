package integrators

import "github.com/san-kum/episim/internal/epi"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(m epi.RateModel, x epi.State, t float64, dt float64) epi.State {
	dx := m.Derive(x, t)
	result := make(epi.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
