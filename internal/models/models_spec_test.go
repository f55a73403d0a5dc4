package models

import (
	"errors"
	"math"
	"slices"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/epi"
)

func mustBuild(p epi.ParameterSet) epi.RateModel {
	m, err := New(p)
	gomega.ExpectWithOffset(1, err).NotTo(gomega.HaveOccurred())
	return m
}

var _ = ginkgo.Describe("Registry", func() {
	ginkgo.It("lists every variant in order", func() {
		infos := List()
		gomega.Expect(infos).To(gomega.HaveLen(len(epi.Variants)))
		for i, info := range infos {
			gomega.Expect(info.Variant).To(gomega.Equal(epi.Variants[i]))
			gomega.Expect(info.Compartments).NotTo(gomega.BeEmpty())
			gomega.Expect(info.Rates).NotTo(gomega.BeEmpty())
		}
	})

	ginkgo.It("reports the schedule requirement", func() {
		info, err := Describe(epi.SEIRLockdown)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(info.Schedule).To(gomega.BeTrue())
	})

	ginkgo.It("rejects unknown variants", func() {
		_, err := New(epi.ParameterSet{Variant: "sird", Population: 10})
		gomega.Expect(errors.Is(err, epi.ErrUnknownVariant)).To(gomega.BeTrue())
		gomega.Expect(errors.Is(err, epi.ErrConfiguration)).To(gomega.BeTrue())

		_, err = Describe("sird")
		gomega.Expect(errors.Is(err, epi.ErrUnknownVariant)).To(gomega.BeTrue())
	})

	ginkgo.It("reads every listed rate", func() {
		for _, info := range List() {
			for _, rate := range info.Rates {
				p := fixture(info.Variant)
				delete(p.Rates, rate)
				_, err := New(p)

				var ce *epi.ConfigError
				gomega.Expect(errors.As(err, &ce)).To(gomega.BeTrue(), "%s without %s", info.Variant, rate)
				gomega.Expect(ce.Field).To(gomega.Equal(rate))
				gomega.Expect(ce.Variant).To(gomega.Equal(info.Variant))
			}
		}
	})
})

var _ = ginkgo.Describe("Rate models", func() {
	for _, v := range epi.Variants {
		ginkgo.Context(string(v), func() {
			var m epi.RateModel

			ginkgo.BeforeEach(func() {
				m = mustBuild(fixture(v))
			})

			ginkgo.It("matches its registry entry", func() {
				info, err := Describe(v)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(m.Variant()).To(gomega.Equal(v))
				gomega.Expect(m.Compartments()).To(gomega.Equal(info.Compartments))
			})

			ginkgo.It("starts at the configured population", func() {
				x0 := m.Initial()
				gomega.Expect(x0).To(gomega.HaveLen(len(m.Compartments())))
				gomega.Expect(x0.Sum()).To(gomega.BeNumerically("~", population, 1e-6))
				for _, c := range x0 {
					gomega.Expect(c).To(gomega.BeNumerically(">=", 0))
				}
			})

			ginkgo.It("returns a derivative of the state's dimension", func() {
				dx := m.Derive(midEpidemic(m), 3)
				gomega.Expect(dx).To(gomega.HaveLen(len(m.Compartments())))
				gomega.Expect(dx.IsValid()).To(gomega.BeTrue())
			})

			ginkgo.It("does not modify its input", func() {
				x := midEpidemic(m)
				before := x.Clone()
				m.Derive(x, 10)
				gomega.Expect(x).To(gomega.Equal(before))
			})

			ginkgo.It("has no spontaneous epidemic", func() {
				x := m.Initial()
				for _, name := range infectious[v] {
					x[slices.Index(m.Compartments(), name)] = 0
				}
				for _, t := range []float64{0, 25, 75} {
					for _, d := range m.Derive(x, t) {
						gomega.Expect(d).To(gomega.BeZero())
					}
				}
			})

			ginkgo.It("conserves the population when closed", func() {
				if !m.Closed() {
					ginkgo.Skip("open variant")
				}
				dx := m.Derive(midEpidemic(m), 10)
				gomega.Expect(dx.Sum()).To(gomega.BeNumerically("~", 0, 1e-6))
			})

			ginkgo.It("never un-recovers without waning immunity", func() {
				names, ok := recovered[v]
				if !ok {
					ginkgo.Skip("waning immunity")
				}
				dx := m.Derive(midEpidemic(m), 10)
				for _, name := range names {
					gomega.Expect(dx[slices.Index(m.Compartments(), name)]).To(gomega.BeNumerically(">=", 0), name)
				}
			})
		})
	}
})

var _ = ginkgo.Describe("Initial state", func() {
	ginkgo.It("gives the remainder to S", func() {
		p := fixture(epi.SIR)
		p.Population = 1000
		p.Initial = map[string]float64{"I": 1}
		gomega.Expect(mustBuild(p).Initial()).To(gomega.Equal(epi.State{999, 1, 0}))
	})

	ginkgo.It("keeps an explicit S", func() {
		p := fixture(epi.SIR)
		p.Population = 1000
		p.Initial = map[string]float64{"S": 500, "I": 1}
		gomega.Expect(mustBuild(p).Initial()).To(gomega.Equal(epi.State{500, 1, 0}))
	})

	ginkgo.It("splits the stratified remainder by acceptance", func() {
		m := mustBuild(fixture(epi.StratifiedTesting)).(*StratifiedTesting)
		x0 := m.Initial()
		left := population - 20
		gomega.Expect(x0[0]).To(gomega.BeNumerically("~", 0.6*left, 1e-6))
		gomega.Expect(x0[1]).To(gomega.BeNumerically("~", 0.4*left, 1e-6))
		gomega.Expect(m.N1).To(gomega.BeNumerically("~", 0.6*population, 1e-6))
		gomega.Expect(m.N2).To(gomega.BeNumerically("~", 0.4*population, 1e-6))
	})

	ginkgo.It("rejects unknown compartments", func() {
		p := fixture(epi.SIR)
		p.Initial = map[string]float64{"Q": 1}
		_, err := New(p)
		gomega.Expect(errors.Is(err, epi.ErrUnknownCompartment)).To(gomega.BeTrue())
	})

	ginkgo.It("rejects counts above the population", func() {
		p := fixture(epi.SIR)
		p.Initial = map[string]float64{"I": 2 * population}
		_, err := New(p)
		gomega.Expect(errors.Is(err, epi.ErrConfiguration)).To(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("Parameter validation", func() {
	ginkgo.DescribeTable("rejects",
		func(v epi.Variant, edit func(*epi.ParameterSet)) {
			p := fixture(v)
			edit(&p)
			m, err := New(p)
			gomega.Expect(m).To(gomega.BeNil())
			gomega.Expect(errors.Is(err, epi.ErrConfiguration)).To(gomega.BeTrue())
		},
		ginkgo.Entry("a negative rate", epi.SIR, func(p *epi.ParameterSet) { p.Rates["gamma"] = -0.1 }),
		ginkgo.Entry("a NaN rate", epi.SIRS, func(p *epi.ParameterSet) { p.Rates["xi"] = math.NaN() }),
		ginkgo.Entry("a missing schedule", epi.SEIRLockdown, func(p *epi.ParameterSet) { p.Schedule = nil }),
		ginkgo.Entry("a schedule starting late", epi.SEIRLockdown, func(p *epi.ParameterSet) {
			p.Schedule = epi.ContactSchedule{{Day: 5, Rate: 0.5}}
		}),
		ginkgo.Entry("a zero background", epi.SIQARTesting, func(p *epi.ParameterSet) { p.Rates["background"] = 0 }),
		ginkgo.Entry("a sensitivity above one", epi.StratifiedTesting, func(p *epi.ParameterSet) { p.Rates["sensitivity"] = 1.2 }),
		ginkgo.Entry("full acceptance", epi.StratifiedTesting, func(p *epi.ParameterSet) { p.Rates["acceptance"] = 1 }),
		ginkgo.Entry("no acceptance", epi.StratifiedTesting, func(p *epi.ParameterSet) { p.Rates["acceptance"] = 0 }),
		ginkgo.Entry("a zero population", epi.SIQR, func(p *epi.ParameterSet) { p.Population = 0 }),
	)

	ginkgo.It("rejects a parameter set for another variant", func() {
		p := fixture(epi.SIR)
		p.Variant = epi.SIRS
		m, err := NewSIR(p)
		gomega.Expect(m).To(gomega.BeNil())
		gomega.Expect(errors.Is(err, epi.ErrConfiguration)).To(gomega.BeTrue())
	})
})

var _ = ginkgo.Describe("SIQAR tracing cap", func() {
	ginkgo.It("clamps traced flow at capacity", func() {
		p := fixture(epi.SIQARTracing)
		p.Rates["delta"] = 1
		p.Rates["tracing_capacity"] = 1000
		m := mustBuild(p).(*SIQARTracing)

		x := epi.State{population - 2000, 2000, 0, 0, 0}
		gomega.Expect(m.Traced(x)).To(gomega.Equal(1000.0))
		gomega.Expect(m.Derive(x, 0)[2]).To(gomega.Equal(1000.0))
	})

	ginkgo.It("traces delta*I below capacity", func() {
		p := fixture(epi.SIQARTracing)
		p.Rates["delta"] = 0.25
		m := mustBuild(p).(*SIQARTracing)

		x := epi.State{population - 2000, 2000, 0, 0, 0}
		gomega.Expect(m.Traced(x)).To(gomega.Equal(500.0))
	})

	ginkgo.It("never traces asymptomatic carriers", func() {
		m := mustBuild(fixture(epi.SIQARTracing))
		x := epi.State{population - 500, 0, 0, 500, 0}
		gomega.Expect(m.Derive(x, 0)[2]).To(gomega.BeZero())
	})
})

var _ = ginkgo.Describe("SEIR lockdown", func() {
	ginkgo.It("switches the contact rate exactly at day 50", func() {
		m := mustBuild(fixture(epi.SEIRLockdown))
		x := epi.State{population / 2, 0, population / 2, 0}
		force := func(t float64) float64 { return -m.Derive(x, t)[0] / (x[0] * x[2] / population) }

		gomega.Expect(force(0)).To(gomega.BeNumerically("~", 0.5, 1e-12))
		gomega.Expect(force(49.999)).To(gomega.BeNumerically("~", 0.5, 1e-12))
		gomega.Expect(force(50)).To(gomega.BeNumerically("~", 0.1, 1e-12))
		gomega.Expect(force(120)).To(gomega.BeNumerically("~", 0.1, 1e-12))
	})

	ginkgo.It("does not share the caller's schedule", func() {
		p := fixture(epi.SEIRLockdown)
		m := mustBuild(p).(*SEIRLockdown)
		p.Schedule[1].Rate = 0.9
		gomega.Expect(m.Contact.At(60)).To(gomega.Equal(0.1))
	})
})

var _ = ginkgo.Describe("SIQAR testing", func() {
	var m *SIQARTesting

	ginkgo.BeforeEach(func() {
		m = mustBuild(fixture(epi.SIQARTesting)).(*SIQARTesting)
	})

	ginkgo.It("is open in continuous form and closed daily", func() {
		gomega.Expect(m.Closed()).To(gomega.BeFalse())
		gomega.Expect(m.DeltaClosed()).To(gomega.BeTrue())
	})

	ginkgo.It("splits capacity by the positive share", func() {
		x := epi.State{population - 2000, 1000, 0, 1000, 0, 0}
		// 2000*1000/(2*(1000+1000))
		gomega.Expect(m.Positives(x)).To(gomega.Equal(500.0))
		gomega.Expect(m.Pending(x)).To(gomega.Equal(500.0))
	})

	ginkgo.It("keeps a finite share with no infections", func() {
		x := epi.State{population, 0, 0, 0, 0, 0}
		gomega.Expect(m.Positives(x)).To(gomega.BeZero())
	})

	ginkgo.It("traces yesterday's positives out of A", func() {
		x := midEpidemic(m)
		today := m.Delta(x, 5, 0)
		withPending := m.Delta(x, 5, 400)

		gomega.Expect(withPending[2] - today[2]).To(gomega.BeNumerically("~", 200, 1e-9))
		gomega.Expect(withPending[3] - today[3]).To(gomega.BeNumerically("~", -200, 1e-9))
		gomega.Expect(withPending.Sum()).To(gomega.BeNumerically("~", 0, 1e-6))
	})

	ginkgo.It("tracks recoveries from quarantine separately", func() {
		x := epi.State{population - 300, 0, 300, 0, 0, 0}
		dx := m.Derive(x, 0)
		gomega.Expect(dx[5]).To(gomega.BeNumerically("~", m.Gamma1*300, 1e-12))
		gomega.Expect(dx[4]).To(gomega.BeZero())
	})
})

var _ = ginkgo.Describe("Stratified testing", func() {
	var m *StratifiedTesting

	ginkgo.BeforeEach(func() {
		m = mustBuild(fixture(epi.StratifiedTesting)).(*StratifiedTesting)
	})

	ginkgo.It("conserves each subgroup", func() {
		dx := m.Derive(midEpidemic(m), 0)
		for _, g := range m.Subgroups() {
			sum := 0.0
			for _, name := range g.Compartments {
				sum += dx[slices.Index(m.Compartments(), name)]
			}
			gomega.Expect(sum).To(gomega.BeNumerically("~", 0, 1e-6), g.Name)
		}
	})

	ginkgo.It("moves tested positives straight to R1", func() {
		x := epi.State{500000, 400000, 10000, 10000, 0, 0}
		want := 0.9 * 0.01 * population * 10000 / (500000 + 10000)
		gomega.Expect(m.Tested(x)).To(gomega.BeNumerically("~", want, 1e-9))

		dx := m.Derive(x, 0)
		gomega.Expect(dx[4]).To(gomega.BeNumerically("~", m.Gamma*10000+want, 1e-9))
		gomega.Expect(dx[5]).To(gomega.BeNumerically("~", m.Gamma*10000, 1e-9))
	})

	ginkgo.It("guards an empty tested group", func() {
		x := epi.State{0, 400000, 0, 10000, 0, 0}
		gomega.Expect(m.Tested(x)).To(gomega.BeZero())
	})
})
