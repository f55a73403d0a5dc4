package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/models"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/viz"
)

func listVariants(cmd *cobra.Command, args []string) error {
	t := newTable("variant", "description", "compartments", "rates")
	for _, info := range models.List() {
		rates := strings.Join(info.Rates, ", ")
		if info.Schedule {
			rates += " + contact_schedule"
		}
		t.AppendRow(string(info.Variant), info.Description, strings.Join(info.Compartments, " "), rates)
	}
	fmt.Println(t.Render())
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	variants := config.PresetVariants()
	if len(args) > 0 {
		if _, err := epi.ParseVariant(args[0]); err != nil {
			return err
		}
		variants = args[:1]
	}

	t := newTable("variant", "preset", "mode", "population", "horizon", "")
	for _, v := range variants {
		for _, name := range config.ListPresets(v) {
			cfg := config.GetPreset(v, name)
			horizon := fmt.Sprintf("%g days", cfg.Days)
			if cfg.Mode == "discrete" {
				horizon = fmt.Sprintf("%d steps", cfg.Steps)
			}
			def := ""
			if config.DefaultPresets[v] == name {
				def = "default"
			}
			t.AppendRow(v, name, cfg.Mode, fmt.Sprintf("%g", cfg.Population), horizon, def)
		}
	}
	fmt.Println(t.Render())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	t := newTable("id", "scenario", "mode", "solver", "points", "time", "warnings")
	for _, run := range runs {
		t.AppendRow(run.ID, run.Scenario, run.Mode, run.Solver, run.Points,
			run.Timestamp.Format("2006-01-02 15:04:05"), len(run.Warnings))
	}
	t.AlignRight(5, 7)
	fmt.Println(t.Render())
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	series, err := displaySeries(meta.Variant, meta.Rates, tr)
	if err != nil {
		return err
	}
	if len(only) > 0 {
		for _, name := range only {
			if !tr.Has(name) && len(viz.Select(series, name)) == 0 {
				return fmt.Errorf("%w: %s has no compartment or series %q", epi.ErrUnknownCompartment, meta.Variant, name)
			}
		}
		series = viz.Select(series, only...)
	}
	title := fmt.Sprintf("%s (%s)", meta.ID, meta.Scenario)

	if chartPath != "" {
		if err := writeChart(chartPath, title, series); err != nil {
			return err
		}
		fmt.Printf("chart written to %s\n", chartPath)
		return nil
	}

	opts := viz.DefaultPlotOptions()
	opts.Caption = title
	opts.Separate = separate
	out, err := viz.Plot(series, opts)
	if err != nil {
		return err
	}
	fmt.Println(out)
	if len(meta.Metrics) > 0 {
		fmt.Println()
		fmt.Println(metricTable(meta.Metrics))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error {
		return storage.ExportJSON(w, *meta, tr)
	})
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, tr, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return withOutput(func(w io.Writer) error {
		return storage.WriteCSV(w, tr)
	})
}

// withOutput writes to --out, or stdout when it is empty.
func withOutput(write func(io.Writer) error) error {
	if outPath == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := write(f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported to %s\n", outPath)
	return nil
}

func viewRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	title := meta.ID
	if meta.Scenario != "" {
		title += "  " + meta.Scenario
	}
	return viz.NewBrowser(title, tr).Run()
}
