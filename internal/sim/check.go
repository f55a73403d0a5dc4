package sim

import (
	"math"

	"github.com/san-kum/episim/internal/epi"
)

// Limits are the post-run check tolerances. Zero fields take the defaults.
type Limits struct {
	// Negative is how far below zero a compartment may dip, as a fraction
	// of the population.
	Negative float64
	// Continuous and Discrete bound the relative drift of conserved totals.
	Continuous float64
	Discrete   float64
}

func DefaultLimits() Limits {
	return Limits{Negative: 1e-9, Continuous: 1e-6, Discrete: 1e-3}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.Negative > 0 {
		d.Negative = l.Negative
	}
	if l.Continuous > 0 {
		d.Continuous = l.Continuous
	}
	if l.Discrete > 0 {
		d.Discrete = l.Discrete
	}
	return d
}

// Check runs the post-run invariant checks against a trajectory of m and
// returns at most one violation per kind and subgroup, the earliest found.
//
// Conservation is checked against the population N, and only for models whose
// form in the given mode is closed. Subgroup totals are checked against their
// values at the first grid point.
func Check(m epi.RateModel, tr *epi.Trajectory, mode Mode, lim Limits) []error {
	lim = lim.withDefaults()
	if tr == nil || tr.Len() == 0 {
		return nil
	}
	var out []error
	if v := checkNegative(m, tr, lim.Negative); v != nil {
		out = append(out, v)
	}

	drift := lim.Continuous
	if mode == Discrete {
		drift = lim.Discrete
	}
	if conserved(m, mode) {
		if v := checkTotal(m, tr, drift); v != nil {
			out = append(out, v)
		}
	}
	if s, ok := m.(epi.Stratified); ok {
		for _, g := range s.Subgroups() {
			if v := checkSubgroup(m, tr, g, drift); v != nil {
				out = append(out, v)
			}
		}
	}
	return out
}

func conserved(m epi.RateModel, mode Mode) bool {
	if lm, ok := m.(epi.LaggedModel); ok && mode == Discrete {
		return lm.DeltaClosed()
	}
	return m.Closed()
}

func checkNegative(m epi.RateModel, tr *epi.Trajectory, frac float64) error {
	limit := frac * math.Max(m.Population(), 1)
	names := tr.CompartmentNames()
	for i := 0; i < tr.Len(); i++ {
		x := tr.StateAt(i)
		for j, v := range x {
			if v < -limit {
				return &epi.InvariantViolation{
					Variant:     m.Variant(),
					Kind:        epi.InvariantNegative,
					Compartment: names[j],
					Index:       i,
					Time:        tr.Time(i),
					Value:       v,
					Limit:       limit,
				}
			}
		}
	}
	return nil
}

func checkTotal(m epi.RateModel, tr *epi.Trajectory, limit float64) error {
	totals := tr.Totals()
	ref := m.Population()
	if ref == 0 {
		ref = totals[0]
	}
	if i, d := firstDrift(totals, ref, limit); i >= 0 {
		return &epi.InvariantViolation{
			Variant: m.Variant(),
			Kind:    epi.InvariantConservation,
			Index:   i,
			Time:    tr.Time(i),
			Value:   d,
			Limit:   limit,
		}
	}
	return nil
}

func checkSubgroup(m epi.RateModel, tr *epi.Trajectory, g epi.Subgroup, limit float64) error {
	sums := make([]float64, tr.Len())
	for _, name := range g.Compartments {
		s, err := tr.SeriesFor(name)
		if err != nil {
			continue
		}
		for i, v := range s {
			sums[i] += v
		}
	}
	if i, d := firstDrift(sums, sums[0], limit); i >= 0 {
		return &epi.InvariantViolation{
			Variant:     m.Variant(),
			Kind:        epi.InvariantSubgroup,
			Compartment: g.Name,
			Index:       i,
			Time:        tr.Time(i),
			Value:       d,
			Limit:       limit,
		}
	}
	return nil
}

// firstDrift returns the first index whose relative distance from ref
// exceeds limit, or -1. A zero reference is compared absolutely.
func firstDrift(totals []float64, ref, limit float64) (int, float64) {
	scale := math.Abs(ref)
	if scale == 0 {
		scale = 1
	}
	for i, t := range totals {
		d := math.Abs(t-ref) / scale
		if d > limit || math.IsNaN(d) {
			return i, d
		}
	}
	return -1, 0
}
