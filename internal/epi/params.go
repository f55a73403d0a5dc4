package epi

import (
	"maps"
	"math"
	"slices"
	"sort"
)

// ParameterSet is the complete input of one model: every constant a rate
// model reads must be present here. Treat it as immutable; use With to derive
// variations.
type ParameterSet struct {
	Variant    Variant
	Population float64
	// Initial holds compartment counts by name. Omitted susceptible
	// compartments absorb the remainder of the population.
	Initial map[string]float64
	// Rates holds the named rate and capacity constants.
	Rates map[string]float64
	// Schedule is the time-dependent contact rate, for variants that use one.
	Schedule ContactSchedule
}

func (p ParameterSet) Clone() ParameterSet {
	c := p
	c.Initial = maps.Clone(p.Initial)
	c.Rates = maps.Clone(p.Rates)
	c.Schedule = slices.Clone(p.Schedule)
	return c
}

// With returns a copy with one rate constant replaced.
func (p ParameterSet) With(name string, value float64) ParameterSet {
	c := p.Clone()
	if c.Rates == nil {
		c.Rates = make(map[string]float64)
	}
	c.Rates[name] = value
	return c
}

// Rate returns a required non-negative constant.
func (p ParameterSet) Rate(name string) (float64, error) {
	v, ok := p.Rates[name]
	if !ok {
		return 0, Configf(p.Variant, name, "missing rate constant")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, Configf(p.Variant, name, "must be finite (got %v)", v)
	}
	if v < 0 {
		return 0, Configf(p.Variant, name, "must be non-negative (got %g)", v)
	}
	return v, nil
}

// Positive returns a required constant that must be strictly positive.
func (p ParameterSet) Positive(name string) (float64, error) {
	v, err := p.Rate(name)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, Configf(p.Variant, name, "must be positive")
	}
	return v, nil
}

// Fraction returns a required constant in [0, 1].
func (p ParameterSet) Fraction(name string) (float64, error) {
	v, err := p.Rate(name)
	if err != nil {
		return 0, err
	}
	if v > 1 {
		return 0, Configf(p.Variant, name, "must be within [0, 1] (got %g)", v)
	}
	return v, nil
}

// CheckPopulation validates N and the explicitly given initial counts.
func (p ParameterSet) CheckPopulation() error {
	if math.IsNaN(p.Population) || math.IsInf(p.Population, 0) || p.Population <= 0 {
		return Configf(p.Variant, "population", "must be a positive finite number (got %v)", p.Population)
	}
	total := 0.0
	for _, name := range slices.Sorted(maps.Keys(p.Initial)) {
		v := p.Initial[name]
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Configf(p.Variant, "initial."+name, "must be a non-negative finite count (got %v)", v)
		}
		total += v
	}
	if total > p.Population*(1+1e-12) {
		return Configf(p.Variant, "initial", "counts sum to %g, more than the population %g", total, p.Population)
	}
	return nil
}

// Breakpoint switches the contact rate to Rate from Day onwards.
type Breakpoint struct {
	Day  float64 `yaml:"day" json:"day"`
	Rate float64 `yaml:"rate" json:"rate"`
}

// ContactSchedule is a piecewise-constant contact rate. The first breakpoint
// starts at day 0 and days strictly increase.
type ContactSchedule []Breakpoint

func (s ContactSchedule) Validate(v Variant) error {
	if len(s) == 0 {
		return Configf(v, "contact_schedule", "at least one (day, rate) pair is required")
	}
	if s[0].Day != 0 {
		return Configf(v, "contact_schedule", "first threshold must be day 0 (got %g)", s[0].Day)
	}
	for i, bp := range s {
		if math.IsNaN(bp.Rate) || math.IsInf(bp.Rate, 0) || bp.Rate < 0 {
			return Configf(v, "contact_schedule", "rate at index %d must be non-negative and finite (got %v)", i, bp.Rate)
		}
		if i > 0 && !(bp.Day > s[i-1].Day) {
			return Configf(v, "contact_schedule", "thresholds must strictly increase (index %d: %g after %g)", i, bp.Day, s[i-1].Day)
		}
	}
	return nil
}

// At returns the contact rate in effect at elapsed time t. A threshold day
// belongs to the rate that starts there.
func (s ContactSchedule) At(t float64) float64 {
	i := sort.Search(len(s), func(i int) bool { return s[i].Day > t })
	if i == 0 {
		return s[0].Rate
	}
	return s[i-1].Rate
}
