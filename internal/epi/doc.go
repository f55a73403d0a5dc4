// Package epi provides the core types of the compartmental simulation
// engine.
//
// A closed population is split into mutually exclusive compartments
// (susceptible, infected, quarantined, recovered, ...). Each model variant
// is a [RateModel] that maps a [State] and a time to a derivative:
//
//   - [State]: compartment values in the variant's fixed order
//   - [RateModel]: rate equations for one variant (dX/dt = f(X, t))
//   - [LaggedModel]: variants whose daily form carries a one-step delay
//   - [ParameterSet]: population, initial counts, named rate constants
//   - [ContactSchedule]: piecewise-constant contact rate over time
//   - [Trajectory]: immutable time grid plus one series per compartment
//
// # Example
//
//	model, _ := models.New(params)
//	tr, _ := integrators.NewContinuous(integrators.NewRK45()).Run(ctx, model, model.Initial(), epi.Linspace(0, 100, 101))
//	infected, _ := tr.SeriesFor(epi.Infected)
//
// # Thread Safety
//
// Rate models are stateless after construction and safe for concurrent
// use. Trajectories never hand out their backing slices.
package epi
