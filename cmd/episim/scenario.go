package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/sim"
)

// scenario is a resolved configuration ready to run.
type scenario struct {
	cfg    *config.Config
	params epi.ParameterSet
	req    sim.Request
}

// loadScenario picks the config file, the named preset or the variant's
// default preset, in that order, and applies the flags the user changed.
func loadScenario(cmd *cobra.Command, args []string) (*scenario, error) {
	variant := ""
	if len(args) > 0 {
		variant = args[0]
	}

	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if variant != "" && variant != loaded.Variant {
			return nil, fmt.Errorf("%s describes variant %s, not %s", configFile, loaded.Variant, variant)
		}
		cfg = loaded
	default:
		if variant == "" {
			variant = string(epi.SIR)
		}
		if _, err := epi.ParseVariant(variant); err != nil {
			return nil, err
		}
		name := preset
		if name == "" {
			name = config.DefaultPresets[variant]
		}
		cfg = config.GetPreset(variant, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q for %s (available: %v)", name, variant, config.ListPresets(variant))
		}
	}

	if err := applyOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	p, err := cfg.ParameterSet()
	if err != nil {
		return nil, err
	}
	req, err := cfg.Request()
	if err != nil {
		return nil, err
	}
	return &scenario{cfg: cfg, params: p, req: req}, nil
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Mode = mode
	}
	if f.Changed("solver") {
		cfg.Solver = solver
	}
	if f.Changed("days") {
		cfg.Days = days
		if !f.Changed("points") {
			cfg.Points = 0
		}
		if !f.Changed("steps") {
			cfg.Steps = 0
		}
	}
	if f.Changed("points") {
		cfg.Points = points
	}
	if f.Changed("steps") {
		cfg.Steps = steps
	}
	if f.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if f.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if f.Changed("permissive") {
		cfg.Permissive = permissive
	}
	if f.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if cfg.Mode == string(sim.Continuous) {
		if cfg.Solver == "" {
			cfg.Solver = config.DefaultSolver
		}
		// Daily presets only give a record count.
		if cfg.Days == 0 && cfg.Steps > 1 {
			cfg.Days = float64(cfg.Steps - 1)
		}
	}

	var err error
	if cfg.Rates, err = mergeValues(cfg.Rates, rates, "set"); err != nil {
		return err
	}
	if cfg.Initial, err = mergeValues(cfg.Initial, initial, "initial"); err != nil {
		return err
	}
	return nil
}

func mergeValues(dst map[string]float64, src map[string]string, flag string) (map[string]float64, error) {
	if len(src) == 0 {
		return dst, nil
	}
	if dst == nil {
		dst = make(map[string]float64, len(src))
	}
	for k, raw := range src {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("--%s %s=%s: %w", flag, k, raw, err)
		}
		dst[k] = v
	}
	return dst, nil
}
