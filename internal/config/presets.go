package config

import (
	"slices"
	"sort"

	"github.com/san-kum/episim/internal/epi"
)

// Presets reproduce the published scenarios per variant. Grids follow the
// published runs, which sample T points over [0, T].
var Presets = map[string]map[string]*Config{
	"sir": {
		"textbook": {
			Variant: "sir", Mode: "continuous", Solver: "rk45", Population: 1000, Days: 160,
			Initial: map[string]float64{"I": 1},
			Rates:   map[string]float64{"beta": 0.3, "gamma": 0.1},
		},
		"daily": {
			Variant: "sir", Mode: "discrete", Population: 1e8, Steps: 100,
			Initial: map[string]float64{"I": 1},
			Rates:   map[string]float64{"beta": 0.25, "gamma": 0.2},
		},
	},
	"sirs": {
		"waning": {
			Variant: "sirs", Mode: "continuous", Solver: "rk45", Population: 1e8, Days: 500, Points: 500,
			Initial: map[string]float64{"I": 100},
			Rates:   map[string]float64{"beta": 0.3, "gamma": 0.2, "xi": 0.01},
		},
	},
	"seir_lockdown": {
		"lockdown": {
			Variant: "seir_lockdown", Mode: "continuous", Solver: "rk45", Population: 1e8, Days: 100, Points: 100,
			Initial:  map[string]float64{"E": 10000},
			Rates:    map[string]float64{"sigma": 0.5, "gamma": 0.2},
			Schedule: epi.ContactSchedule{{Day: 0, Rate: 0.5}, {Day: 50, Rate: 0.1}},
		},
	},
	"siqr": {
		"quarantine": {
			Variant: "siqr", Mode: "continuous", Solver: "rk45", Population: 1e8, Days: 1000, Points: 1000,
			Initial: map[string]float64{"I": 10000},
			Rates:   map[string]float64{"beta": 0.35, "gamma": 0.25, "delta": 0.03},
		},
	},
	"siqar_tracing": {
		"capped": {
			Variant: "siqar_tracing", Mode: "continuous", Solver: "rk45", Population: 1e8, Days: 100, Points: 100,
			Initial: map[string]float64{"I": 100},
			Rates: map[string]float64{
				"beta1": 0.25, "beta2": 0.25, "gamma1": 0.2, "gamma2": 0.2,
				"delta": 1, "tracing_capacity": 1000,
			},
		},
	},
	"siqar_testing": {
		"daily": {
			Variant: "siqar_testing", Mode: "discrete", Population: 1e8, Steps: 50,
			Initial: map[string]float64{"A": 500},
			Rates: map[string]float64{
				"beta1": 0.25, "beta2": 0.25, "gamma1": 0.2, "gamma2": 0.2,
				"delta": 1, "testing_capacity": 700, "background": 1000,
			},
		},
		// The continuous form has no lag, so delta is read but unused.
		"continuous": {
			Variant: "siqar_testing", Mode: "continuous", Solver: "rk45", Population: 1e8, Days: 40, Points: 40,
			Initial: map[string]float64{"A": 4000},
			Rates: map[string]float64{
				"beta1": 0.25, "beta2": 0.25, "gamma1": 0.2, "gamma2": 0.2,
				"delta": 0.01, "testing_capacity": 2000, "background": 1000,
			},
			Permissive: true,
		},
	},
	"siqar_detection": {
		"detection": {
			Variant: "siqar_detection", Mode: "continuous", Solver: "rk45", Population: 1e8, Days: 100, Points: 100,
			Initial: map[string]float64{"A": 100},
			Rates: map[string]float64{
				"beta1": 0.25, "beta2": 0.25, "gamma1": 0.2, "gamma2": 0.2,
				"delta1": 0.3, "delta2": 0.3,
			},
		},
	},
	"stratified_testing": {
		"mass_testing": {
			Variant: "stratified_testing", Mode: "continuous", Solver: "rk45", Population: 1e8, Days: 500, Points: 500,
			Initial: map[string]float64{"I1": 100, "I2": 100},
			Rates: map[string]float64{
				"beta": 0.3, "gamma": 0.15, "mu": 0.1,
				"testing_rate": 0.3, "sensitivity": 1, "acceptance": 0.8,
			},
		},
	},
}

// DefaultPresets names the scenario each variant runs when no preset or
// config file is given.
var DefaultPresets = map[string]string{
	"sir":                "textbook",
	"sirs":               "waning",
	"seir_lockdown":      "lockdown",
	"siqr":               "quarantine",
	"siqar_tracing":      "capped",
	"siqar_testing":      "daily",
	"siqar_detection":    "detection",
	"stratified_testing": "mass_testing",
}

// GetPreset returns a copy of a preset, or nil.
func GetPreset(variant, preset string) *Config {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	cfg, ok := variantPresets[preset]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	out.Name = variant + "/" + preset
	return out
}

// ListPresets returns the preset names of a variant in sorted order, or nil.
func ListPresets(variant string) []string {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(variantPresets))
	for name := range variantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetVariants lists the variants that have presets.
func PresetVariants() []string {
	out := make([]string, 0, len(Presets))
	for v := range Presets {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
