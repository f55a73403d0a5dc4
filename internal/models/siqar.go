package models

import (
	"math"

	"github.com/san-kum/episim/internal/epi"
)

var siqarCompartments = []string{epi.Susceptible, epi.Infected, epi.Quarantined, epi.Asymptomatic, epi.Recovered}

// carriers holds the two infection routes shared by every SIQAR variant:
// symptomatic carriers I and asymptomatic carriers A are both infectious.
type carriers struct {
	Beta1  float64
	Beta2  float64
	Gamma1 float64
	Gamma2 float64
}

func readCarriers(b *builder) carriers {
	return carriers{
		Beta1:  b.rate("beta1"),
		Beta2:  b.rate("beta2"),
		Gamma1: b.rate("gamma1"),
		Gamma2: b.rate("gamma2"),
	}
}

// infections returns the new symptomatic and asymptomatic infections.
func (c carriers) infections(s, i, a, n float64) (symptomatic, asymptomatic float64) {
	return massAction(c.Beta1, s, i+a, n), massAction(c.Beta2, s, i+a, n)
}

// SIQARTracing detects symptomatic carriers at rate Delta, capped by a daily
// tracing capacity. Asymptomatic carriers are never traced.
type SIQARTracing struct {
	base
	carriers
	Delta    float64
	Capacity float64
}

func NewSIQARTracing(p epi.ParameterSet) (*SIQARTracing, error) {
	b := newBuilder(p, epi.SIQARTracing)
	m := &SIQARTracing{
		carriers: readCarriers(b),
		Delta:    b.rate("delta"),
		Capacity: b.rate("tracing_capacity"),
	}
	m.base = b.base(siqarCompartments, susceptibleRemainder)
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Traced is the flow from I into Q: min(Delta*I, Capacity).
func (m *SIQARTracing) Traced(x epi.State) float64 {
	return math.Min(m.Delta*x[1], m.Capacity)
}

func (m *SIQARTracing) Derive(x epi.State, t float64) epi.State {
	s, i, q, a := x[0], x[1], x[2], x[3]

	newI, newA := m.infections(s, i, a, m.n)
	traced := m.Traced(x)

	return epi.State{
		-(newI + newA),
		newI - m.Gamma1*i - traced,
		traced - m.Gamma1*q,
		newA - m.Gamma2*a,
		m.Gamma1*(i+q) + m.Gamma2*a,
	}
}

// SIQARDetection detects both symptomatic (Delta1) and asymptomatic (Delta2)
// carriers without a capacity limit.
type SIQARDetection struct {
	base
	carriers
	Delta1 float64
	Delta2 float64
}

func NewSIQARDetection(p epi.ParameterSet) (*SIQARDetection, error) {
	b := newBuilder(p, epi.SIQARDetection)
	m := &SIQARDetection{
		carriers: readCarriers(b),
		Delta1:   b.rate("delta1"),
		Delta2:   b.rate("delta2"),
	}
	m.base = b.base(siqarCompartments, susceptibleRemainder)
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SIQARDetection) Derive(x epi.State, t float64) epi.State {
	s, i, q, a := x[0], x[1], x[2], x[3]

	newI, newA := m.infections(s, i, a, m.n)

	return epi.State{
		-(newI + newA),
		newI - (m.Gamma1+m.Delta1)*i,
		m.Delta1*i + m.Delta2*a - m.Gamma1*q,
		newA - (m.Gamma2+m.Delta2)*a,
		m.Gamma1*(i+q) + m.Gamma2*a,
	}
}
