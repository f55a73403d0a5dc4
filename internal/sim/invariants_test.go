package sim_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/sim"
)

const horizon = 100

func defaultParams(g *gomega.WithT, v epi.Variant) epi.ParameterSet {
	cfg := config.GetPreset(string(v), config.DefaultPresets[string(v)])
	g.Expect(cfg).NotTo(gomega.BeNil(), string(v))
	p, err := cfg.ParameterSet()
	g.Expect(err).NotTo(gomega.HaveOccurred())
	return p
}

func requests() map[sim.Mode]sim.Request {
	return map[sim.Mode]sim.Request{
		sim.Continuous: {Mode: sim.Continuous, Solver: "rk45", Days: horizon},
		sim.Discrete:   {Mode: sim.Discrete, Steps: horizon + 1},
	}
}

func run(g *gomega.WithT, p epi.ParameterSet, req sim.Request) *sim.Result {
	res, err := sim.NewRunner().WithLogger(logging.Discard()).Run(context.Background(), p, req)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(res.Warnings).To(gomega.BeEmpty())
	g.Expect(res.Trajectory.Len()).To(gomega.Equal(horizon + 1))
	return res
}

func TestRecoveredNeverDecreases(t *testing.T) {
	for _, v := range epi.Variants {
		if v == epi.SIRS {
			// Immunity wanes back into S.
			continue
		}
		for mode, req := range requests() {
			t.Run(fmt.Sprintf("%s/%s", v, mode), func(t *testing.T) {
				g := gomega.NewWithT(t)
				p := defaultParams(g, v)
				tr := run(g, p, req).Trajectory

				slack := 1e-9 * p.Population
				checked := 0
				for _, name := range tr.CompartmentNames() {
					if !strings.HasPrefix(name, epi.Recovered) {
						continue
					}
					series, err := tr.SeriesFor(name)
					g.Expect(err).NotTo(gomega.HaveOccurred())
					for i := 1; i < len(series); i++ {
						g.Expect(series[i]).To(gomega.BeNumerically(">=", series[i-1]-slack),
							"%s fell on day %g", name, tr.Time(i))
					}
					checked++
				}
				g.Expect(checked).To(gomega.BeNumerically(">", 0))
			})
		}
	}
}

func TestNoInfectionIsAFixedPoint(t *testing.T) {
	for _, v := range epi.Variants {
		for mode, req := range requests() {
			t.Run(fmt.Sprintf("%s/%s", v, mode), func(t *testing.T) {
				g := gomega.NewWithT(t)
				p := defaultParams(g, v)
				// Everyone starts susceptible.
				p.Initial = map[string]float64{}
				res := run(g, p, req)

				x0 := res.Model.Initial()
				g.Expect(x0.Sum()).To(gomega.BeNumerically("~", p.Population, 1e-6))
				for i := 0; i < res.Trajectory.Len(); i++ {
					g.Expect(res.Trajectory.StateAt(i)).To(gomega.Equal(x0), "day %g", res.Trajectory.Time(i))
				}
			})
		}
	}
}

func TestUnderfilledPopulationFailsConservation(t *testing.T) {
	g := gomega.NewWithT(t)

	p := defaultParams(g, epi.SIR)
	p.Initial = map[string]float64{epi.Susceptible: 900, epi.Infected: 1}
	_, err := sim.NewRunner().WithLogger(logging.Discard()).Run(context.Background(), p, requests()[sim.Continuous])
	g.Expect(err).To(gomega.MatchError(epi.ErrInvariant))

	var v *epi.InvariantViolation
	g.Expect(errors.As(err, &v)).To(gomega.BeTrue())
	g.Expect(v.Kind).To(gomega.Equal(epi.InvariantConservation))
	g.Expect(v.Index).To(gomega.Equal(0))
	g.Expect(v.Value).To(gomega.BeNumerically("~", 99.0/1000, 1e-12))
}
