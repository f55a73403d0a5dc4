package models

import "github.com/san-kum/episim/internal/epi"

var siqrCompartments = []string{epi.Susceptible, epi.Infected, epi.Quarantined, epi.Recovered}

// SIQR isolates infected individuals at rate Delta. Quarantined people are
// removed from mixing, so the contact denominator is S+I+R rather than N.
type SIQR struct {
	base
	Beta  float64
	Gamma float64
	Delta float64
}

func NewSIQR(p epi.ParameterSet) (*SIQR, error) {
	b := newBuilder(p, epi.SIQR)
	m := &SIQR{
		Beta:  b.rate("beta"),
		Gamma: b.rate("gamma"),
		Delta: b.rate("delta"),
	}
	m.base = b.base(siqrCompartments, susceptibleRemainder)
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SIQR) Derive(x epi.State, t float64) epi.State {
	s, i, q, r := x[0], x[1], x[2], x[3]

	infection := massAction(m.Beta, s, i, s+i+r)
	isolation := m.Delta * i

	return epi.State{
		-infection,
		infection - m.Gamma*i - isolation,
		isolation - m.Gamma*q,
		m.Gamma * (i + q),
	}
}
