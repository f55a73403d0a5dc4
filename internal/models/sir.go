package models

import "github.com/san-kum/episim/internal/epi"

var sirCompartments = []string{epi.Susceptible, epi.Infected, epi.Recovered}

// SIR is the classic susceptible-infected-recovered model.
type SIR struct {
	base
	Beta  float64
	Gamma float64
}

func NewSIR(p epi.ParameterSet) (*SIR, error) {
	b := newBuilder(p, epi.SIR)
	m := &SIR{
		Beta:  b.rate("beta"),
		Gamma: b.rate("gamma"),
	}
	m.base = b.base(sirCompartments, susceptibleRemainder)
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SIR) Derive(x epi.State, t float64) epi.State {
	s, i := x[0], x[1]

	infection := massAction(m.Beta, s, i, m.n)
	recovery := m.Gamma * i

	return epi.State{-infection, infection - recovery, recovery}
}

// SIRS adds waning immunity: recovered individuals return to S at rate Xi.
type SIRS struct {
	base
	Beta  float64
	Gamma float64
	Xi    float64
}

func NewSIRS(p epi.ParameterSet) (*SIRS, error) {
	b := newBuilder(p, epi.SIRS)
	m := &SIRS{
		Beta:  b.rate("beta"),
		Gamma: b.rate("gamma"),
		Xi:    b.rate("xi"),
	}
	m.base = b.base(sirCompartments, susceptibleRemainder)
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SIRS) Derive(x epi.State, t float64) epi.State {
	s, i, r := x[0], x[1], x[2]

	infection := massAction(m.Beta, s, i, m.n)
	recovery := m.Gamma * i
	waning := m.Xi * r

	return epi.State{-infection + waning, infection - recovery, recovery - waning}
}
