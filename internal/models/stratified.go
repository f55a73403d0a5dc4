package models

import (
	"github.com/san-kum/episim/internal/epi"
)

var stratifiedCompartments = []string{"S1", "S2", "I1", "I2", "R1", "R2"}

// StratifiedTesting splits the population into a group that accepts mass
// testing (share Acceptance) and one that does not. Tested positives in group
// 1 are isolated straight into R1. Mu is the fraction of contacts made across
// groups.
type StratifiedTesting struct {
	base
	Beta        float64
	Gamma       float64
	Mu          float64
	TestRate    float64
	Sensitivity float64
	Acceptance  float64
	// N1 and N2 are the group sizes Acceptance*N and (1-Acceptance)*N.
	N1, N2 float64
}

func NewStratifiedTesting(p epi.ParameterSet) (*StratifiedTesting, error) {
	b := newBuilder(p, epi.StratifiedTesting)
	m := &StratifiedTesting{
		Beta:        b.rate("beta"),
		Gamma:       b.rate("gamma"),
		Mu:          b.fraction("mu"),
		TestRate:    b.rate("testing_rate"),
		Sensitivity: b.fraction("sensitivity"),
		Acceptance:  b.fraction("acceptance"),
	}
	if b.err() == nil && (m.Acceptance == 0 || m.Acceptance == 1) {
		b.fail(epi.Configf(epi.StratifiedTesting, "acceptance", "must be strictly between 0 and 1 (got %g)", m.Acceptance))
	}
	m.base = b.base(stratifiedCompartments, map[string]float64{
		"S1": m.Acceptance,
		"S2": 1 - m.Acceptance,
	})
	m.N1 = m.Acceptance * m.n
	m.N2 = (1 - m.Acceptance) * m.n
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *StratifiedTesting) Subgroups() []epi.Subgroup {
	return []epi.Subgroup{
		{Name: "tested", Compartments: []string{"S1", "I1", "R1"}},
		{Name: "untested", Compartments: []string{"S2", "I2", "R2"}},
	}
}

// Tested is the daily flow of group 1 positives found by testing:
// Sensitivity*TestRate*N*I1/(S1+I1).
func (m *StratifiedTesting) Tested(x epi.State) float64 {
	s1, i1 := x[0], x[2]
	if s1+i1 == 0 {
		return 0
	}
	return m.Sensitivity * m.TestRate * m.n * i1 / (s1 + i1)
}

func (m *StratifiedTesting) Derive(x epi.State, t float64) epi.State {
	s1, s2, i1, i2 := x[0], x[1], x[2], x[3]

	within1 := massAction(m.Beta, s1, i1*(1-m.Mu*m.Acceptance), m.N1)
	across1 := massAction(m.Beta, s1, i2*m.Mu, m.N1)
	across2 := massAction(m.Beta, s2, i1*m.Mu*m.Acceptance, m.N2)
	within2 := massAction(m.Beta, s2, i2*(1-m.Mu), m.N2)

	new1 := within1 + across1
	new2 := across2 + within2
	tested := m.Tested(x)

	return epi.State{
		-new1,
		-new2,
		new1 - m.Gamma*i1 - tested,
		new2 - m.Gamma*i2,
		m.Gamma*i1 + tested,
		m.Gamma * i2,
	}
}
