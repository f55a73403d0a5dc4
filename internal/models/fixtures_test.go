package models

import "github.com/san-kum/episim/internal/epi"

const population = 1e6

func fixture(v epi.Variant) epi.ParameterSet {
	p := epi.ParameterSet{Variant: v, Population: population}
	switch v {
	case epi.SIR:
		p.Initial = map[string]float64{"I": 10}
		p.Rates = map[string]float64{"beta": 0.3, "gamma": 0.1}
	case epi.SIRS:
		p.Initial = map[string]float64{"I": 10, "R": 100}
		p.Rates = map[string]float64{"beta": 0.3, "gamma": 0.1, "xi": 0.01}
	case epi.SEIRLockdown:
		p.Initial = map[string]float64{"E": 10, "I": 5}
		p.Rates = map[string]float64{"sigma": 0.2, "gamma": 0.1}
		p.Schedule = epi.ContactSchedule{{Day: 0, Rate: 0.5}, {Day: 50, Rate: 0.1}}
	case epi.SIQR:
		p.Initial = map[string]float64{"I": 10}
		p.Rates = map[string]float64{"beta": 0.3, "gamma": 0.1, "delta": 0.05}
	case epi.SIQARTracing:
		p.Initial = map[string]float64{"I": 10, "A": 10}
		p.Rates = map[string]float64{
			"beta1": 0.2, "beta2": 0.15, "gamma1": 0.1, "gamma2": 0.12,
			"delta": 0.3, "tracing_capacity": 1000,
		}
	case epi.SIQARTesting:
		p.Initial = map[string]float64{"I": 10, "A": 10}
		p.Rates = map[string]float64{
			"beta1": 0.2, "beta2": 0.15, "gamma1": 0.1, "gamma2": 0.12,
			"delta": 0.5, "testing_capacity": 2000, "background": 1000,
		}
	case epi.SIQARDetection:
		p.Initial = map[string]float64{"I": 10, "A": 10}
		p.Rates = map[string]float64{
			"beta1": 0.2, "beta2": 0.15, "gamma1": 0.1, "gamma2": 0.12,
			"delta1": 0.2, "delta2": 0.05,
		}
	case epi.StratifiedTesting:
		p.Initial = map[string]float64{"I1": 10, "I2": 10}
		p.Rates = map[string]float64{
			"beta": 0.3, "gamma": 0.1, "mu": 0.2,
			"testing_rate": 0.01, "sensitivity": 0.9, "acceptance": 0.6,
		}
	}
	return p
}

// infectious lists the compartments to empty for a state with no
// transmission. SIRS also needs R empty, or waning immunity still moves
// people back to S.
var infectious = map[epi.Variant][]string{
	epi.SIR:               {"I"},
	epi.SIRS:              {"I", "R"},
	epi.SEIRLockdown:      {"E", "I"},
	epi.SIQR:              {"I", "Q"},
	epi.SIQARTracing:      {"I", "A"},
	epi.SIQARTesting:      {"I", "A"},
	epi.SIQARDetection:    {"I", "A"},
	epi.StratifiedTesting: {"I1", "I2"},
}

// recovered lists the cumulative recovered compartments of variants
// without waning immunity.
var recovered = map[epi.Variant][]string{
	epi.SIR:               {"R"},
	epi.SEIRLockdown:      {"R"},
	epi.SIQR:              {"R"},
	epi.SIQARTracing:      {"R"},
	epi.SIQARTesting:      {"R", "Rq"},
	epi.SIQARDetection:    {"R"},
	epi.StratifiedTesting: {"R1", "R2"},
}

// midEpidemic returns a state with every compartment populated.
func midEpidemic(m epi.RateModel) epi.State {
	x := make(epi.State, len(m.Compartments()))
	for i := range x {
		x[i] = 1000 * float64(i+1)
	}
	x[0] = m.Population() - x[1:].Sum()
	return x
}
