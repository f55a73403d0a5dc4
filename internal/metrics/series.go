// Package metrics derives display quantities from a finished trajectory.
// Nothing here modifies the trajectory it reads.
package metrics

import (
	"github.com/san-kum/episim/internal/epi"
)

// PositivityRate is I/(I+background) at every grid point: the share of
// symptomatic people who would test positive when background people with
// unrelated symptoms also present for tests.
func PositivityRate(tr *epi.Trajectory, background float64) ([]float64, error) {
	if !(background > 0) {
		return nil, epi.Configf(tr.Variant(), "background", "must be positive (got %g)", background)
	}
	inf, err := tr.SeriesFor(epi.Infected)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(inf))
	for i, v := range inf {
		out[i] = v / (v + background)
	}
	return out, nil
}

// NewPositives is the daily count of positives found by a testing capacity
// split between symptomatic and contact testing:
// capacity*I/(2(I+background)) + capacity*I/(2(A+background)).
func NewPositives(tr *epi.Trajectory, capacity, background float64) ([]float64, error) {
	if capacity < 0 {
		return nil, epi.Configf(tr.Variant(), "testing_capacity", "must be non-negative (got %g)", capacity)
	}
	if !(background > 0) {
		return nil, epi.Configf(tr.Variant(), "background", "must be positive (got %g)", background)
	}
	inf, err := tr.SeriesFor(epi.Infected)
	if err != nil {
		return nil, err
	}
	asym, err := tr.SeriesFor(epi.Asymptomatic)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(inf))
	for k := range inf {
		i, a := inf[k], asym[k]
		out[k] = capacity*i/(2*(i+background)) + capacity*i/(2*(a+background))
	}
	return out, nil
}

// DailyIncrease is the first difference of a series. The first element is 0.
func DailyIncrease(series []float64) []float64 {
	out := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		out[i] = series[i] - series[i-1]
	}
	return out
}
