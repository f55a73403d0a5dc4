package models

import (
	"fmt"

	"github.com/san-kum/episim/internal/epi"
)

// Info describes a variant for listings and configuration help.
type Info struct {
	Variant      epi.Variant
	Description  string
	Compartments []string
	Rates        []string
	// Schedule reports whether the variant reads a contact schedule.
	Schedule bool
}

type constructor func(epi.ParameterSet) (epi.RateModel, error)

type entry struct {
	info  Info
	build constructor
}

func wrap[M epi.RateModel](fn func(epi.ParameterSet) (M, error)) constructor {
	return func(p epi.ParameterSet) (epi.RateModel, error) {
		m, err := fn(p)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

var registry = map[epi.Variant]entry{
	epi.SIR: {
		info: Info{Description: "susceptible-infected-recovered", Compartments: sirCompartments,
			Rates: []string{"beta", "gamma"}},
		build: wrap(NewSIR),
	},
	epi.SIRS: {
		info: Info{Description: "SIR with waning immunity", Compartments: sirCompartments,
			Rates: []string{"beta", "gamma", "xi"}},
		build: wrap(NewSIRS),
	},
	epi.SEIRLockdown: {
		info: Info{Description: "SEIR with a step contact-rate schedule", Compartments: seirCompartments,
			Rates: []string{"sigma", "gamma"}, Schedule: true},
		build: wrap(NewSEIRLockdown),
	},
	epi.SIQR: {
		info: Info{Description: "SIR with quarantine of infected", Compartments: siqrCompartments,
			Rates: []string{"beta", "gamma", "delta"}},
		build: wrap(NewSIQR),
	},
	epi.SIQARTracing: {
		info: Info{Description: "symptomatic tracing with a daily capacity, asymptomatic untraced",
			Compartments: siqarCompartments,
			Rates:        []string{"beta1", "beta2", "gamma1", "gamma2", "delta", "tracing_capacity"}},
		build: wrap(NewSIQARTracing),
	},
	epi.SIQARTesting: {
		info: Info{Description: "daily testing capacity split between symptomatic and contact testing",
			Compartments: testingCompartments,
			Rates:        []string{"beta1", "beta2", "gamma1", "gamma2", "delta", "testing_capacity", "background"}},
		build: wrap(NewSIQARTesting),
	},
	epi.SIQARDetection: {
		info: Info{Description: "detection of symptomatic and asymptomatic carriers",
			Compartments: siqarCompartments,
			Rates:        []string{"beta1", "beta2", "gamma1", "gamma2", "delta1", "delta2"}},
		build: wrap(NewSIQARDetection),
	},
	epi.StratifiedTesting: {
		info: Info{Description: "two groups with and without access to mass testing",
			Compartments: stratifiedCompartments,
			Rates:        []string{"beta", "gamma", "mu", "testing_rate", "sensitivity", "acceptance"}},
		build: wrap(NewStratifiedTesting),
	},
}

// New builds the rate model selected by p.Variant.
func New(p epi.ParameterSet) (epi.RateModel, error) {
	e, ok := registry[p.Variant]
	if !ok {
		return nil, &epi.ConfigError{
			Variant: p.Variant,
			Field:   "variant",
			Reason:  fmt.Sprintf("unknown variant %q", p.Variant),
			Err:     epi.ErrUnknownVariant,
		}
	}
	return e.build(p)
}

// Describe returns the registry entry of a variant.
func Describe(v epi.Variant) (Info, error) {
	e, ok := registry[v]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", epi.ErrUnknownVariant, v)
	}
	info := e.info
	info.Variant = v
	return info, nil
}

// List returns every registered variant in epi.Variants order.
func List() []Info {
	out := make([]Info, 0, len(epi.Variants))
	for _, v := range epi.Variants {
		if info, err := Describe(v); err == nil {
			out = append(out, info)
		}
	}
	return out
}
