package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/metrics"
)

// Series is one labelled line aligned with a time grid.
type Series struct {
	Name   string
	Times  []float64
	Values []float64
}

// Transform derives a display series from a trajectory.
type Transform func(tr *epi.Trajectory) (Series, error)

// Build applies every transform to tr.
func Build(tr *epi.Trajectory, ts ...Transform) ([]Series, error) {
	out := make([]Series, 0, len(ts))
	for _, t := range ts {
		s, err := t(tr)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Compartments returns one series per compartment in state order.
func Compartments(tr *epi.Trajectory) []Series {
	names := tr.CompartmentNames()
	out := make([]Series, 0, len(names))
	for _, name := range names {
		s, _ := Compartment(name)(tr)
		out = append(out, s)
	}
	return out
}

func Compartment(name string) Transform {
	return func(tr *epi.Trajectory) (Series, error) {
		values, err := tr.SeriesFor(name)
		if err != nil {
			return Series{}, err
		}
		return Series{Name: epi.DisplayName(name), Times: tr.TimeGrid(), Values: values}, nil
	}
}

// Sum adds compartments point by point, e.g. Sum("I", "A") for all carriers.
func Sum(names ...string) Transform {
	return func(tr *epi.Trajectory) (Series, error) {
		if len(names) == 0 {
			return Series{}, fmt.Errorf("viz: sum of no compartments")
		}
		total := make([]float64, tr.Len())
		for _, name := range names {
			values, err := tr.SeriesFor(name)
			if err != nil {
				return Series{}, err
			}
			for i, v := range values {
				total[i] += v
			}
		}
		return Series{Name: strings.Join(names, "+"), Times: tr.TimeGrid(), Values: total}, nil
	}
}

// Ratio divides two derived series. Points where the denominator is zero
// are reported as zero.
func Ratio(num, den Transform) Transform {
	return func(tr *epi.Trajectory) (Series, error) {
		n, err := num(tr)
		if err != nil {
			return Series{}, err
		}
		d, err := den(tr)
		if err != nil {
			return Series{}, err
		}
		values := make([]float64, len(n.Values))
		for i := range values {
			if d.Values[i] != 0 {
				values[i] = n.Values[i] / d.Values[i]
			}
		}
		return Series{Name: n.Name + "/" + d.Name, Times: n.Times, Values: values}, nil
	}
}

// Scaled multiplies a series by a constant, e.g. 1/N for population fractions.
func Scaled(t Transform, factor float64) Transform {
	return func(tr *epi.Trajectory) (Series, error) {
		s, err := t(tr)
		if err != nil {
			return Series{}, err
		}
		values := epi.State(s.Values).Scale(factor)
		return Series{Name: fmt.Sprintf("%s x %g", s.Name, factor), Times: s.Times, Values: values}, nil
	}
}

// Daily replaces a series by its day-over-day increase.
func Daily(t Transform) Transform {
	return func(tr *epi.Trajectory) (Series, error) {
		s, err := t(tr)
		if err != nil {
			return Series{}, err
		}
		return Series{Name: "daily " + s.Name, Times: s.Times, Values: metrics.DailyIncrease(s.Values)}, nil
	}
}

// Labelled renames the series t produces.
func Labelled(t Transform, name string) Transform {
	return func(tr *epi.Trajectory) (Series, error) {
		s, err := t(tr)
		if err != nil {
			return Series{}, err
		}
		s.Name = name
		return s, nil
	}
}

func Positivity(background float64) Transform {
	return func(tr *epi.Trajectory) (Series, error) {
		values, err := metrics.PositivityRate(tr, background)
		if err != nil {
			return Series{}, err
		}
		return Series{Name: "positivity", Times: tr.TimeGrid(), Values: values}, nil
	}
}

func NewPositives(capacity, background float64) Transform {
	return func(tr *epi.Trajectory) (Series, error) {
		values, err := metrics.NewPositives(tr, capacity, background)
		if err != nil {
			return Series{}, err
		}
		return Series{Name: "new positives", Times: tr.TimeGrid(), Values: values}, nil
	}
}

// Select keeps the named series, matched by display name or compartment.
func Select(series []Series, names ...string) []Series {
	if len(names) == 0 {
		return series
	}
	var out []Series
	for _, s := range series {
		for _, n := range names {
			if s.Name == n || s.Name == epi.DisplayName(n) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
