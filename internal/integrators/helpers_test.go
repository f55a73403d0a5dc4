package integrators

import (
	"testing"

	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/models"
)

func decay(t float64, x epi.State) epi.State {
	return epi.State{-x[0], -2 * x[1]}
}

func newModel(t testing.TB, p epi.ParameterSet) epi.RateModel {
	t.Helper()
	m, err := models.New(p)
	if err != nil {
		t.Fatalf("models.New(%s): %v", p.Variant, err)
	}
	return m
}

func sirModel(t testing.TB) epi.RateModel {
	return newModel(t, epi.ParameterSet{
		Variant:    epi.SIR,
		Population: 1000,
		Initial:    map[string]float64{epi.Infected: 1},
		Rates:      map[string]float64{"beta": 0.3, "gamma": 0.1},
	})
}

func testingModel(t testing.TB, delta float64) epi.RateModel {
	return newModel(t, epi.ParameterSet{
		Variant:    epi.SIQARTesting,
		Population: 1e8,
		Initial:    map[string]float64{epi.Infected: 500, epi.Asymptomatic: 500},
		Rates: map[string]float64{
			"beta1": 0.25, "beta2": 0.25, "gamma1": 0.1, "gamma2": 0.1,
			"delta": delta, "testing_capacity": 2000, "background": 1000,
		},
	})
}
