package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/models"
)

func sirParams(beta, gamma float64) epi.ParameterSet {
	return epi.ParameterSet{
		Variant:    epi.SIR,
		Population: 1000,
		Initial:    map[string]float64{epi.Infected: 1},
		Rates:      map[string]float64{"beta": beta, "gamma": gamma},
	}
}

func newTestRunner() *Runner {
	return NewRunner().WithLogger(logging.Discard())
}

func TestRunContinuousConservesPopulation(t *testing.T) {
	g := gomega.NewWithT(t)

	req := DefaultRequest()
	req.Days = 160
	res, err := newTestRunner().Run(context.Background(), sirParams(0.3, 0.1), req)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(res.Warnings).To(gomega.BeEmpty())
	g.Expect(res.Solver).To(gomega.Equal("rk45"))
	g.Expect(res.Trajectory.Len()).To(gomega.Equal(161))

	for _, total := range res.Trajectory.Totals() {
		g.Expect(total).To(gomega.BeNumerically("~", 1000, 1000*1e-6))
	}
}

func TestRunDiscreteScenarioA(t *testing.T) {
	g := gomega.NewWithT(t)

	req := Request{Mode: Discrete, Steps: 3}
	res, err := newTestRunner().Run(context.Background(), sirParams(0.3, 0.1), req)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(res.Trajectory.TimeGrid()).To(gomega.Equal([]float64{0, 1, 2}))

	x := res.Trajectory.StateAt(1)
	g.Expect(x[0]).To(gomega.BeNumerically("~", 998.7003, 1e-4))
	g.Expect(x[1]).To(gomega.BeNumerically("~", 1.1997, 1e-4))
	g.Expect(x[2]).To(gomega.BeNumerically("~", 0.1, 1e-4))
}

func TestRunRejectsNegativeCompartments(t *testing.T) {
	g := gomega.NewWithT(t)

	// beta=5 overshoots S below zero on the fifth day.
	req := Request{Mode: Discrete, Steps: 6}
	_, err := newTestRunner().Run(context.Background(), sirParams(5, 0.1), req)
	g.Expect(errors.Is(err, epi.ErrInvariant)).To(gomega.BeTrue())

	var v *epi.InvariantViolation
	g.Expect(errors.As(err, &v)).To(gomega.BeTrue())
	g.Expect(v.Kind).To(gomega.Equal(epi.InvariantNegative))
	g.Expect(v.Compartment).To(gomega.Equal(epi.Susceptible))
	g.Expect(v.Index).To(gomega.Equal(5))
	g.Expect(v.Variant).To(gomega.Equal(epi.SIR))
}

func TestRunPermissiveKeepsTrajectory(t *testing.T) {
	g := gomega.NewWithT(t)

	req := Request{Mode: Discrete, Steps: 6, Permissive: true}
	res, err := newTestRunner().Run(context.Background(), sirParams(5, 0.1), req)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(res.Trajectory.Len()).To(gomega.Equal(6))
	g.Expect(res.Warnings).To(gomega.HaveLen(1))
	g.Expect(errors.Is(res.Warnings[0], epi.ErrInvariant)).To(gomega.BeTrue())
}

func TestRunCancelledContext(t *testing.T) {
	g := gomega.NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestRunner().Run(ctx, sirParams(0.3, 0.1), DefaultRequest())
	g.Expect(res).To(gomega.BeNil())
	g.Expect(errors.Is(err, epi.ErrIntegration)).To(gomega.BeTrue())
	g.Expect(errors.Is(err, context.Canceled)).To(gomega.BeTrue())

	var ie *epi.IntegrationError
	g.Expect(errors.As(err, &ie)).To(gomega.BeTrue())
	g.Expect(ie.Variant).To(gomega.Equal(epi.SIR))
	g.Expect(ie.Solver).To(gomega.Equal("rk45"))
}

func TestRunStepBudget(t *testing.T) {
	g := gomega.NewWithT(t)

	req := DefaultRequest()
	req.MaxSteps = 1
	_, err := newTestRunner().Run(context.Background(), sirParams(0.3, 0.1), req)
	g.Expect(errors.Is(err, epi.ErrIntegration)).To(gomega.BeTrue())
	g.Expect(errors.Is(err, integrators.ErrStepBudget)).To(gomega.BeTrue())
}

func TestRunRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"unknown mode", Request{Mode: "hourly"}, "mode"},
		{"zero steps", Request{Mode: Discrete}, "steps"},
		{"negative days", Request{Mode: Continuous, Days: -1}, "days"},
		{"single point horizon", Request{Mode: Continuous, Days: 10, Points: 1}, "points"},
		{"unknown solver", Request{Mode: Continuous, Days: 10, Solver: "leapfrog"}, "solver"},
		{"negative substeps", Request{Mode: Discrete, Steps: 3, Substeps: -1}, "substeps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gomega.NewWithT(t)

			_, err := newTestRunner().Run(context.Background(), sirParams(0.3, 0.1), tt.req)
			g.Expect(errors.Is(err, epi.ErrConfiguration)).To(gomega.BeTrue())

			var ce *epi.ConfigError
			g.Expect(errors.As(err, &ce)).To(gomega.BeTrue())
			g.Expect(ce.Field).To(gomega.Equal(tt.field))
			g.Expect(ce.Variant).To(gomega.Equal(epi.SIR))
		})
	}
}

func TestRunUnknownVariant(t *testing.T) {
	g := gomega.NewWithT(t)

	p := sirParams(0.3, 0.1)
	p.Variant = "sird"
	_, err := newTestRunner().Run(context.Background(), p, DefaultRequest())
	g.Expect(errors.Is(err, epi.ErrUnknownVariant)).To(gomega.BeTrue())
}

func TestRunSolversAgree(t *testing.T) {
	g := gomega.NewWithT(t)

	var finals []epi.State
	for _, solver := range integrators.SolverNames() {
		req := DefaultRequest()
		req.Solver = solver
		req.Days = 100
		req.Substeps = 50
		res, err := newTestRunner().Run(context.Background(), sirParams(0.3, 0.1), req)
		g.Expect(err).NotTo(gomega.HaveOccurred(), solver)
		g.Expect(res.Solver).To(gomega.Equal(solver))
		finals = append(finals, res.Trajectory.Final())
	}
	for _, f := range finals[1:] {
		for j := range f {
			g.Expect(f[j]).To(gomega.BeNumerically("~", finals[0][j], 1e-2))
		}
	}
}

func TestRunStratifiedKeepsSubgroups(t *testing.T) {
	g := gomega.NewWithT(t)

	p := epi.ParameterSet{
		Variant:    epi.StratifiedTesting,
		Population: 1e6,
		Initial:    map[string]float64{"I1": 10, "I2": 10},
		Rates: map[string]float64{
			"beta": 0.3, "gamma": 0.1, "mu": 0.2,
			"testing_rate": 0.01, "sensitivity": 0.9, "acceptance": 0.6,
		},
	}
	req := DefaultRequest()
	req.Days = 120
	res, err := newTestRunner().Run(context.Background(), p, req)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(res.Warnings).To(gomega.BeEmpty())
}

func TestCheckReportsDrift(t *testing.T) {
	g := gomega.NewWithT(t)

	m, err := models.New(sirParams(0.3, 0.1))
	g.Expect(err).NotTo(gomega.HaveOccurred())

	rows := []epi.State{{999, 1, 0}, {999, 1, 0.5}, {999, 1, 2}}
	tr, err := epi.NewTrajectory(epi.SIR, m.Compartments(), []float64{0, 1, 2}, rows)
	g.Expect(err).NotTo(gomega.HaveOccurred())

	// 0.5 in 1000 passes the discrete limit, 2 in 1000 does not.
	vs := Check(m, tr, Discrete, Limits{})
	g.Expect(vs).To(gomega.HaveLen(1))

	var v *epi.InvariantViolation
	g.Expect(errors.As(vs[0], &v)).To(gomega.BeTrue())
	g.Expect(v.Kind).To(gomega.Equal(epi.InvariantConservation))
	g.Expect(v.Index).To(gomega.Equal(2))
	g.Expect(v.Value).To(gomega.BeNumerically("~", 2e-3, 1e-12))

	// The continuous limit is tighter and trips at the first drift.
	vs = Check(m, tr, Continuous, Limits{})
	g.Expect(vs).To(gomega.HaveLen(1))
	g.Expect(errors.As(vs[0], &v)).To(gomega.BeTrue())
	g.Expect(v.Index).To(gomega.Equal(1))
}

func TestCheckSkipsOpenModels(t *testing.T) {
	g := gomega.NewWithT(t)

	p := epi.ParameterSet{
		Variant:    epi.SIQARTesting,
		Population: 1e8,
		Initial:    map[string]float64{epi.Infected: 100},
		Rates: map[string]float64{
			"beta1": 0.2, "beta2": 0.2, "gamma1": 0.1, "gamma2": 0.1,
			"delta": 0.5, "testing_capacity": 2000, "background": 1000,
		},
	}
	// A can be drained below zero by this form, so only the drift check is
	// of interest here.
	req := DefaultRequest()
	req.Days = 100
	req.Permissive = true
	res, err := newTestRunner().Run(context.Background(), p, req)
	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(res.Model.Closed()).To(gomega.BeFalse())
	for _, w := range res.Warnings {
		var v *epi.InvariantViolation
		g.Expect(errors.As(w, &v)).To(gomega.BeTrue())
		g.Expect(v.Kind).NotTo(gomega.Equal(epi.InvariantConservation))
	}
}
