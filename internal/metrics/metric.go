package metrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/episim/internal/epi"
)

// Metric accumulates a scalar summary over the states of a trajectory.
type Metric interface {
	Name() string
	// Bind resolves compartment names against a trajectory's ordering.
	Bind(compartments []string) error
	Observe(x epi.State, t float64)
	Value() float64
	Reset()
}

// Evaluate feeds every state of tr to each metric and returns the values by
// name.
func Evaluate(tr *epi.Trajectory, ms ...Metric) (map[string]float64, error) {
	names := tr.CompartmentNames()
	for _, m := range ms {
		if err := m.Bind(names); err != nil {
			return nil, fmt.Errorf("metric %s: %w", m.Name(), err)
		}
		m.Reset()
	}
	for i := 0; i < tr.Len(); i++ {
		x, t := tr.StateAt(i), tr.Time(i)
		for _, m := range ms {
			m.Observe(x, t)
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out, nil
}

// selection is a sum over some compartments.
type selection struct {
	names []string
	index []int
}

func (s *selection) bind(compartments []string) error {
	s.index = s.index[:0]
	for _, n := range s.names {
		j := -1
		for k, c := range compartments {
			if c == n {
				j = k
				break
			}
		}
		if j < 0 {
			return fmt.Errorf("%w: %q", epi.ErrUnknownCompartment, n)
		}
		s.index = append(s.index, j)
	}
	return nil
}

func (s *selection) sum(x epi.State) float64 {
	total := 0.0
	for _, j := range s.index {
		total += x[j]
	}
	return total
}

func (s *selection) label() string { return strings.Join(s.names, "+") }

// Peak is the largest value the summed compartments reach.
type Peak struct {
	sel  selection
	peak float64
	seen bool
}

func NewPeak(compartments ...string) *Peak {
	return &Peak{sel: selection{names: compartments}}
}

func (p *Peak) Name() string                     { return "peak_" + p.sel.label() }
func (p *Peak) Bind(compartments []string) error { return p.sel.bind(compartments) }

func (p *Peak) Observe(x epi.State, t float64) {
	if v := p.sel.sum(x); !p.seen || v > p.peak {
		p.peak, p.seen = v, true
	}
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() {
	p.peak, p.seen = 0, false
}

// PeakTime is the first time the summed compartments reach their peak.
type PeakTime struct {
	Peak
	at float64
}

func NewPeakTime(compartments ...string) *PeakTime {
	return &PeakTime{Peak: Peak{sel: selection{names: compartments}}}
}

func (p *PeakTime) Name() string { return "peak_time_" + p.sel.label() }

func (p *PeakTime) Observe(x epi.State, t float64) {
	if v := p.sel.sum(x); !p.seen || v > p.peak {
		p.peak, p.seen, p.at = v, true, t
	}
}

func (p *PeakTime) Value() float64 { return p.at }

func (p *PeakTime) Reset() {
	p.Peak.Reset()
	p.at = 0
}

// FinalSize is the share of the population in the summed compartments at the
// last observed state, e.g. everyone ever recovered.
type FinalSize struct {
	sel        selection
	population float64
	last       float64
}

func NewFinalSize(population float64, compartments ...string) *FinalSize {
	return &FinalSize{sel: selection{names: compartments}, population: population}
}

func (f *FinalSize) Name() string                     { return "final_size" }
func (f *FinalSize) Bind(compartments []string) error { return f.sel.bind(compartments) }
func (f *FinalSize) Observe(x epi.State, t float64)   { f.last = f.sel.sum(x) }

func (f *FinalSize) Value() float64 {
	if f.population == 0 {
		return 0
	}
	return f.last / f.population
}

func (f *FinalSize) Reset() { f.last = 0 }

// MaxDrift is the largest relative change of the compartment total from its
// first observed value.
type MaxDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewMaxDrift() *MaxDrift { return &MaxDrift{} }

func (d *MaxDrift) Name() string                     { return "max_drift" }
func (d *MaxDrift) Bind(compartments []string) error { return nil }

func (d *MaxDrift) Observe(x epi.State, t float64) {
	total := x.Sum()
	if d.samples == 0 {
		d.initial = total
	}
	d.samples++
	if d.initial == 0 {
		return
	}
	d.maxDrift = math.Max(d.maxDrift, math.Abs(total-d.initial)/math.Abs(d.initial))
}

func (d *MaxDrift) Value() float64 { return d.maxDrift }

func (d *MaxDrift) Reset() {
	d.initial, d.maxDrift, d.samples = 0, 0, 0
}

// NegativeShare is the fraction of states with any compartment below zero.
type NegativeShare struct {
	negative int
	samples  int
}

func NewNegativeShare() *NegativeShare { return &NegativeShare{} }

func (n *NegativeShare) Name() string                     { return "negative_share" }
func (n *NegativeShare) Bind(compartments []string) error { return nil }

func (n *NegativeShare) Observe(x epi.State, t float64) {
	n.samples++
	for _, v := range x {
		if v < 0 {
			n.negative++
			return
		}
	}
}

func (n *NegativeShare) Value() float64 {
	if n.samples == 0 {
		return 0
	}
	return float64(n.negative) / float64(n.samples)
}

func (n *NegativeShare) Reset() {
	n.negative, n.samples = 0, 0
}

// Standard returns the summary shown for every run: infected peak and its
// time, final recovered size and population drift.
func Standard(m epi.RateModel) []Metric {
	var infected, removed []string
	for _, c := range m.Compartments() {
		switch {
		case strings.HasPrefix(c, epi.Infected):
			infected = append(infected, c)
		case strings.HasPrefix(c, epi.Recovered):
			removed = append(removed, c)
		}
	}
	return []Metric{
		NewPeak(infected...),
		NewPeakTime(infected...),
		NewFinalSize(m.Population(), removed...),
		NewMaxDrift(),
	}
}
