package models

import "github.com/san-kum/episim/internal/epi"

var testingCompartments = []string{
	epi.Susceptible, epi.Infected, epi.Quarantined, epi.Asymptomatic, epi.Recovered, epi.RecoveredQuarantine,
}

// SIQARTesting splits a daily testing capacity between symptomatic and
// asymptomatic-contact testing. Background is the count of people with
// unrelated symptoms who compete for tests; it keeps the positive share
// I/(I+Background) finite at I=0. Recoveries out of quarantine are tracked
// separately in Rq.
//
// The continuous form moves Capacity*I/(2(A+Background)) into Q while A loses
// Capacity*I/(2(I+Background)), so its compartment sum is not conserved. The
// daily form routes contacts found through yesterday's positives out of A
// instead and is conserved.
type SIQARTesting struct {
	base
	carriers
	TraceRate  float64
	Capacity   float64
	Background float64
}

func NewSIQARTesting(p epi.ParameterSet) (*SIQARTesting, error) {
	b := newBuilder(p, epi.SIQARTesting)
	m := &SIQARTesting{
		carriers:   readCarriers(b),
		TraceRate:  b.rate("delta"),
		Capacity:   b.rate("testing_capacity"),
		Background: b.positive("background"),
	}
	m.base = b.base(testingCompartments, susceptibleRemainder)
	if err := b.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SIQARTesting) Closed() bool { return false }

// DeltaClosed reports that the daily form conserves the population.
func (m *SIQARTesting) DeltaClosed() bool { return true }

// Positives returns the symptomatic positives found in a day: half the
// capacity scaled by the positive share I/(I+Background). The halving and
// the one-day lag of contact tracing in Delta are kept exactly as the model
// was published; neither has been validated against data.
func (m *SIQARTesting) Positives(x epi.State) float64 {
	i := x[1]
	return m.Capacity * i / (2 * (i + m.Background))
}

func (m *SIQARTesting) Derive(x epi.State, t float64) epi.State {
	s, i, q, a := x[0], x[1], x[2], x[3]

	newI, newA := m.infections(s, i, a, m.n)
	positives := m.Positives(x)
	contacts := m.Capacity * i / (2 * (a + m.Background))

	return epi.State{
		-(newI + newA),
		newI - positives - m.Gamma1*i,
		positives + contacts - m.Gamma1*q,
		newA - positives - m.Gamma2*a,
		m.Gamma1*i + m.Gamma2*a,
		m.Gamma1 * q,
	}
}

// Delta is the daily update. pending is the positive count produced by the
// previous day; TraceRate of it are contacts traced out of A into Q today.
func (m *SIQARTesting) Delta(x epi.State, step int, pending float64) epi.State {
	s, i, q, a := x[0], x[1], x[2], x[3]

	newI, newA := m.infections(s, i, a, m.n)
	positives := m.Positives(x)
	traced := m.TraceRate * pending

	return epi.State{
		-(newI + newA),
		newI - positives - m.Gamma1*i,
		positives + traced - m.Gamma1*q,
		newA - traced - m.Gamma2*a,
		m.Gamma1*i + m.Gamma2*a,
		m.Gamma1 * q,
	}
}

// Pending is the lagged quantity produced by consuming x.
func (m *SIQARTesting) Pending(x epi.State) float64 {
	return m.Positives(x)
}
