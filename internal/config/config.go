// Package config loads run scenarios from YAML and turns them into the
// parameter set and run request the simulator consumes.
package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/sim"
)

const (
	DefaultPopulation = 1000.0
	DefaultDays       = 160.0
	DefaultSolver     = "rk45"
)

// Config is one scenario. Rates and initial counts are keyed by the names the
// variant documents; every constant a model reads must be listed.
type Config struct {
	Name       string                 `yaml:"name,omitempty" json:"name,omitempty"`
	Variant    string                 `yaml:"variant" json:"variant"`
	Mode       string                 `yaml:"mode" json:"mode"`
	Solver     string                 `yaml:"solver,omitempty" json:"solver,omitempty"`
	Population float64                `yaml:"population" json:"population"`
	Days       float64                `yaml:"days,omitempty" json:"days,omitempty"`
	Points     int                    `yaml:"points,omitempty" json:"points,omitempty"`
	Steps      int                    `yaml:"steps,omitempty" json:"steps,omitempty"`
	Substeps   int                    `yaml:"substeps,omitempty" json:"substeps,omitempty"`
	MaxSteps   int                    `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`
	Initial    map[string]float64     `yaml:"initial,omitempty" json:"initial,omitempty"`
	Rates      map[string]float64     `yaml:"rates" json:"rates"`
	Schedule   epi.ContactSchedule    `yaml:"contact_schedule,omitempty" json:"contact_schedule,omitempty"`
	Tolerance  *integrators.Tolerance `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	Permissive bool                   `yaml:"permissive,omitempty" json:"permissive,omitempty"`
	Timeout    string                 `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// DefaultConfig is the textbook SIR outbreak: N=1000, one case, beta=0.3,
// gamma=0.1, integrated for 160 days.
func DefaultConfig() *Config {
	return &Config{
		Name:       "default",
		Variant:    string(epi.SIR),
		Mode:       string(sim.Continuous),
		Solver:     DefaultSolver,
		Population: DefaultPopulation,
		Days:       DefaultDays,
		Initial:    map[string]float64{epi.Infected: 1},
		Rates:      map[string]float64{"beta": 0.3, "gamma": 0.1},
	}
}

// Load reads a scenario file. Scalars missing from the file keep their
// defaults; rates, initial counts and the schedule come only from the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Name = ""
	cfg.Initial, cfg.Rates, cfg.Schedule = nil, nil, nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	out.Initial = maps.Clone(c.Initial)
	out.Rates = maps.Clone(c.Rates)
	out.Schedule = slices.Clone(c.Schedule)
	if c.Tolerance != nil {
		tol := *c.Tolerance
		out.Tolerance = &tol
	}
	return &out
}

// Validate checks the fields that do not depend on the variant's equations.
// Rates and initial counts are checked when the model is built.
func (c *Config) Validate() error {
	v, err := epi.ParseVariant(c.Variant)
	if err != nil {
		return &epi.ConfigError{Field: "variant", Reason: err.Error(), Err: epi.ErrUnknownVariant}
	}
	switch sim.Mode(c.Mode) {
	case sim.Continuous, sim.Discrete:
	default:
		return epi.Configf(v, "mode", "unknown mode %q (want continuous or discrete)", c.Mode)
	}
	if _, err := c.timeout(v); err != nil {
		return err
	}
	return nil
}

func (c *Config) timeout(v epi.Variant) (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, epi.Configf(v, "timeout", "%v", err)
	}
	return d, nil
}

// ParameterSet returns the model inputs of the scenario.
func (c *Config) ParameterSet() (epi.ParameterSet, error) {
	v, err := epi.ParseVariant(c.Variant)
	if err != nil {
		return epi.ParameterSet{}, &epi.ConfigError{Field: "variant", Reason: err.Error(), Err: epi.ErrUnknownVariant}
	}
	return epi.ParameterSet{
		Variant:    v,
		Population: c.Population,
		Initial:    maps.Clone(c.Initial),
		Rates:      maps.Clone(c.Rates),
		Schedule:   slices.Clone(c.Schedule),
	}, nil
}

// Request returns the integrator settings of the scenario. A discrete run
// without a step count covers Days+1 whole days.
func (c *Config) Request() (sim.Request, error) {
	if err := c.Validate(); err != nil {
		return sim.Request{}, err
	}
	v, _ := epi.ParseVariant(c.Variant)
	timeout, _ := c.timeout(v)

	req := sim.Request{
		Mode:       sim.Mode(c.Mode),
		Solver:     c.Solver,
		Tolerance:  integrators.DefaultTolerance(),
		MaxSteps:   c.MaxSteps,
		Days:       c.Days,
		Points:     c.Points,
		Steps:      c.Steps,
		Substeps:   c.Substeps,
		Timeout:    timeout,
		Permissive: c.Permissive,
	}
	if c.Tolerance != nil {
		req.Tolerance = *c.Tolerance
	}
	if req.Mode == sim.Discrete && req.Steps == 0 {
		req.Steps = int(c.Days) + 1
	}
	return req, nil
}
