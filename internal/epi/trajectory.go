package epi

import (
	"fmt"
	"slices"
)

// Trajectory is the immutable result of one integrator run: a strictly
// increasing time grid and one value per compartment at every grid point.
// Accessors return copies.
type Trajectory struct {
	variant Variant
	names   []string
	index   map[string]int
	times   []float64
	rows    []State
}

// NewTrajectory copies its inputs. rows[i] is the state at times[i].
func NewTrajectory(v Variant, names []string, times []float64, rows []State) (*Trajectory, error) {
	if len(times) != len(rows) {
		return nil, fmt.Errorf("%w: %d time points but %d states", ErrDimensionMismatch, len(times), len(rows))
	}
	tr := &Trajectory{
		variant: v,
		names:   slices.Clone(names),
		index:   make(map[string]int, len(names)),
		times:   slices.Clone(times),
		rows:    make([]State, len(rows)),
	}
	for i, n := range names {
		if _, dup := tr.index[n]; dup {
			return nil, Configf(v, "compartments", "duplicate compartment %q", n)
		}
		tr.index[n] = i
	}
	for i, r := range rows {
		if len(r) != len(names) {
			return nil, fmt.Errorf("%w: state %d has %d values for %d compartments", ErrDimensionMismatch, i, len(r), len(names))
		}
		tr.rows[i] = r.Clone()
	}
	return tr, nil
}

func (tr *Trajectory) Variant() Variant { return tr.variant }

// Len is the number of time points.
func (tr *Trajectory) Len() int { return len(tr.times) }

func (tr *Trajectory) TimeGrid() []float64 { return slices.Clone(tr.times) }

func (tr *Trajectory) CompartmentNames() []string { return slices.Clone(tr.names) }

func (tr *Trajectory) Has(name string) bool {
	_, ok := tr.index[name]
	return ok
}

// SeriesFor returns the values of one compartment aligned with TimeGrid.
func (tr *Trajectory) SeriesFor(name string) ([]float64, error) {
	j, ok := tr.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no compartment %q", ErrUnknownCompartment, tr.variant, name)
	}
	out := make([]float64, len(tr.rows))
	for i, r := range tr.rows {
		out[i] = r[j]
	}
	return out, nil
}

// StateAt returns the full state at grid index i.
func (tr *Trajectory) StateAt(i int) State { return tr.rows[i].Clone() }

// Time returns grid point i.
func (tr *Trajectory) Time(i int) float64 { return tr.times[i] }

// Final returns the last state.
func (tr *Trajectory) Final() State { return tr.rows[len(tr.rows)-1].Clone() }

// Totals returns the compartment sum at every grid point.
func (tr *Trajectory) Totals() []float64 {
	out := make([]float64, len(tr.rows))
	for i, r := range tr.rows {
		out[i] = r.Sum()
	}
	return out
}
