package models

import (
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/episim/internal/epi"
)

type base struct {
	variant epi.Variant
	names   []string
	n       float64
	x0      epi.State
}

func (b *base) Variant() epi.Variant   { return b.variant }
func (b *base) Compartments() []string { return slices.Clone(b.names) }
func (b *base) Initial() epi.State     { return b.x0.Clone() }
func (b *base) Population() float64    { return b.n }
func (b *base) Closed() bool           { return true }

// builder reads constants out of a ParameterSet and keeps the first error,
// so constructors can read every field before checking once.
type builder struct {
	p     epi.ParameterSet
	first error
}

func newBuilder(p epi.ParameterSet, v epi.Variant) *builder {
	b := &builder{p: p}
	if p.Variant != "" && p.Variant != v {
		b.first = epi.Configf(v, "variant", "parameter set is for %s", p.Variant)
		return b
	}
	b.p.Variant = v
	b.fail(b.p.CheckPopulation())
	return b
}

func (b *builder) fail(err error) {
	if b.first == nil && err != nil {
		b.first = err
	}
}

func (b *builder) rate(name string) float64 {
	v, err := b.p.Rate(name)
	b.fail(err)
	return v
}

func (b *builder) positive(name string) float64 {
	v, err := b.p.Positive(name)
	b.fail(err)
	return v
}

func (b *builder) fraction(name string) float64 {
	v, err := b.p.Fraction(name)
	b.fail(err)
	return v
}

// base assembles the initial state. Compartments listed in remainder that the
// configuration omits share what is left of the population in the given
// proportions.
func (b *builder) base(names []string, remainder map[string]float64) base {
	out := base{variant: b.p.Variant, names: names, n: b.p.Population}
	x0 := make(epi.State, len(names))
	given := 0.0
	for _, key := range slices.Sorted(maps.Keys(b.p.Initial)) {
		i := slices.Index(names, key)
		if i < 0 {
			b.fail(&epi.ConfigError{
				Variant: b.p.Variant,
				Field:   "initial." + key,
				Reason:  fmt.Sprintf("not a compartment of this variant (have %v)", names),
				Err:     epi.ErrUnknownCompartment,
			})
			continue
		}
		x0[i] = b.p.Initial[key]
		given += x0[i]
	}
	left := b.p.Population - given
	if left < 0 {
		left = 0
	}
	for i, name := range names {
		share, ok := remainder[name]
		if _, set := b.p.Initial[name]; ok && !set {
			x0[i] = share * left
		}
	}
	out.x0 = x0
	return out
}

func (b *builder) err() error { return b.first }

// massAction is the mixing term rate*S*X/N, zero for an empty denominator.
func massAction(rate, s, x, n float64) float64 {
	if n == 0 {
		return 0
	}
	return rate * s * x / n
}

var susceptibleRemainder = map[string]float64{epi.Susceptible: 1}
