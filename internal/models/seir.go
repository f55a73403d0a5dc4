package models

import "github.com/san-kum/episim/internal/epi"

var seirCompartments = []string{epi.Susceptible, epi.Exposed, epi.Infected, epi.Recovered}

// SEIRLockdown is an SEIR model whose contact rate follows a step schedule,
// modelling a lockdown or similar sudden change in contact behaviour.
type SEIRLockdown struct {
	base
	Contact epi.ContactSchedule
	// Sigma is the inverse latent period.
	Sigma float64
	Gamma float64
}

func NewSEIRLockdown(p epi.ParameterSet) (*SEIRLockdown, error) {
	b := newBuilder(p, epi.SEIRLockdown)
	m := &SEIRLockdown{
		Contact: append(epi.ContactSchedule(nil), p.Schedule...),
		Sigma:   b.rate("sigma"),
		Gamma:   b.rate("gamma"),
	}
	b.fail(m.Contact.Validate(epi.SEIRLockdown))
	m.base = b.base(seirCompartments, susceptibleRemainder)
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SEIRLockdown) Derive(x epi.State, t float64) epi.State {
	s, e, i := x[0], x[1], x[2]

	infection := massAction(m.Contact.At(t), s, i, m.n)
	onset := m.Sigma * e
	recovery := m.Gamma * i

	return epi.State{-infection, infection - onset, onset - recovery, recovery}
}
