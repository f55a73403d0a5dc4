package epi

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Compartment names shared across variants.
const (
	Susceptible         = "S"
	Exposed             = "E"
	Infected            = "I"
	Quarantined         = "Q"
	Asymptomatic        = "A"
	Recovered           = "R"
	RecoveredQuarantine = "Rq"
)

var displayNames = map[string]string{
	Susceptible:         "Susceptible",
	Exposed:             "Exposed",
	Infected:            "Infected",
	Quarantined:         "Quarantined",
	Asymptomatic:        "Asymptomatic",
	Recovered:           "Recovered",
	RecoveredQuarantine: "Recovered from quarantine",
}

// DisplayName returns a human readable label for a compartment. Subgroup
// compartments such as "I2" are labelled "Infected (group 2)".
func DisplayName(name string) string {
	if d, ok := displayNames[name]; ok {
		return d
	}
	if len(name) > 1 {
		base, group := name[:len(name)-1], name[len(name)-1:]
		if d, ok := displayNames[base]; ok && strings.ContainsAny(group, "0123456789") {
			return fmt.Sprintf("%s (group %s)", d, group)
		}
	}
	return name
}

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Sum() float64 {
	return floats.Sum(s)
}

func (s State) Add(other State) State {
	result := s.Clone()
	floats.Add(result, other)
	return result
}

// AddScaled returns s + alpha*other.
func (s State) AddScaled(alpha float64, other State) State {
	result := s.Clone()
	floats.AddScaled(result, alpha, other)
	return result
}

func (s State) Scale(factor float64) State {
	result := s.Clone()
	floats.Scale(factor, result)
	return result
}

// Variant identifies a model family.
type Variant string

const (
	SIR               Variant = "sir"
	SIRS              Variant = "sirs"
	SEIRLockdown      Variant = "seir_lockdown"
	SIQR              Variant = "siqr"
	SIQARTracing      Variant = "siqar_tracing"
	SIQARTesting      Variant = "siqar_testing"
	SIQARDetection    Variant = "siqar_detection"
	StratifiedTesting Variant = "stratified_testing"
)

// Variants lists every supported variant in a stable order.
var Variants = []Variant{
	SIR, SIRS, SEIRLockdown, SIQR, SIQARTracing, SIQARTesting, SIQARDetection, StratifiedTesting,
}

func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variants {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// RateModel is the rate-equation definition of one variant. Derive must be
// free of side effects and return a vector of the same dimension as x.
type RateModel interface {
	Variant() Variant
	Compartments() []string
	// Initial returns the initial compartment values.
	Initial() State
	Population() float64
	// Closed reports whether the compartment sum is a conserved quantity.
	Closed() bool
	Derive(x State, t float64) State
}

// LaggedModel is a variant whose daily form differs from a unit Euler step of
// Derive because part of an inflow is reported one day late. The carried
// quantity is explicit: Pending computes it from the state a step consumed,
// and Delta receives the value produced by the previous step.
type LaggedModel interface {
	RateModel
	Delta(x State, step int, pending float64) State
	Pending(x State) float64
	// DeltaClosed reports whether Delta conserves the compartment sum.
	DeltaClosed() bool
}

// Subgroup names compartments whose sum is conserved on its own.
type Subgroup struct {
	Name         string
	Compartments []string
}

// Stratified models preserve per-subgroup totals.
type Stratified interface {
	Subgroups() []Subgroup
}
