package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/episim/internal/epi"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/sim"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/viz"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	log := logging.New("cli")

	fmt.Printf("running %s (%s)...\n", sc.cfg.Name, sc.req.Mode)
	res, err := sim.NewRunner().Run(cmd.Context(), sc.params, sc.req)
	if err != nil {
		return err
	}

	summary, err := summarize(res)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v (%d steps, %d evaluations)\n", res.Elapsed, res.Stats.Steps, res.Stats.Evaluations)
	printWarnings(res.Warnings)
	fmt.Println()
	fmt.Println(metricTable(summary))

	if save {
		st := storage.New(dataDir)
		meta := storage.Describe(sc.cfg.Name, sc.params, res)
		meta.Metrics = summary
		runID, err := st.Save(meta, res.Trajectory)
		if err != nil {
			return err
		}
		log.Debug("run stored", "dir", filepath.Join(st.Dir(), runID))
		fmt.Printf("run id: %s\n", runID)
	}

	series, err := displaySeries(sc.params.Variant, sc.params.Rates, res.Trajectory)
	if err != nil {
		return err
	}
	if plot {
		out, err := viz.Plot(series, viz.PlotOptions{Width: 80, Height: 15, Caption: sc.cfg.Name, Theme: viz.CurrentTheme})
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(out)
	}
	if chartPath != "" {
		if err := writeChart(chartPath, sc.cfg.Name, series); err != nil {
			return err
		}
		fmt.Printf("chart written to %s\n", chartPath)
	}
	return nil
}

func summarize(res *sim.Result) (map[string]float64, error) {
	ms := append(metrics.Standard(res.Model), metrics.NewNegativeShare())
	return metrics.Evaluate(res.Trajectory, ms...)
}

// displaySeries is every compartment followed by the derived series plotted
// for the variant.
func displaySeries(v epi.Variant, rates map[string]float64, tr *epi.Trajectory) ([]viz.Series, error) {
	names := tr.CompartmentNames()
	transforms := make([]viz.Transform, 0, len(names)+4)
	for _, name := range names {
		transforms = append(transforms, viz.Compartment(name))
	}
	transforms = append(transforms, derivedSeries(v, rates)...)
	return viz.Build(tr, transforms...)
}

func derivedSeries(v epi.Variant, rates map[string]float64) []viz.Transform {
	switch v {
	case epi.SEIRLockdown:
		return []viz.Transform{
			viz.Labelled(viz.Scaled(viz.Compartment(epi.Exposed), rates["sigma"]), "new positives"),
		}
	case epi.SIQARTracing, epi.SIQARDetection:
		detected := viz.Ratio(viz.Compartment(epi.Quarantined), viz.Sum(epi.Infected, epi.Quarantined, epi.Asymptomatic))
		return []viz.Transform{viz.Labelled(detected, "detection rate")}
	case epi.SIQARTesting:
		confirmed := viz.Sum(epi.Quarantined, epi.RecoveredQuarantine)
		return []viz.Transform{
			viz.Labelled(viz.Sum(epi.Infected, epi.Asymptomatic), "carriers"),
			viz.Labelled(confirmed, "confirmed positives"),
			viz.Labelled(viz.Daily(confirmed), "daily confirmed"),
			viz.NewPositives(rates["testing_capacity"], rates["background"]),
			viz.Positivity(rates["background"]),
		}
	case epi.StratifiedTesting:
		return []viz.Transform{viz.Labelled(viz.Sum("I1", "I2"), "infected")}
	}
	return nil
}

func writeChart(path, title string, series []viz.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := viz.DefaultChartOptions()
	opts.Title = title
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		err = viz.WriteSVG(f, series, opts)
	} else {
		err = viz.WritePNG(f, series, opts)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func printWarnings(warnings []error) {
	for _, w := range warnings {
		fmt.Println(viz.WarningText.Render("warning:"), w)
	}
}

// compareModes runs the daily difference equations and the continuous
// solver on the same whole-day grid and reports the largest gap per
// compartment.
func compareModes(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	n := sc.req.Steps
	if sc.req.Mode == sim.Continuous || n == 0 {
		n = int(math.Floor(sc.req.Days)) + 1
	}
	if n < 2 {
		return fmt.Errorf("compare needs at least two days (got %d)", n)
	}

	disc := sc.req
	disc.Mode = sim.Discrete
	disc.Steps = n

	cont := sc.req
	cont.Mode = sim.Continuous
	cont.Grid = epi.UnitGrid(n)
	cont.Days = float64(n - 1)
	if cont.Solver == "" {
		cont.Solver = "rk45"
	}
	if cont.Solver != "rk4" {
		cont.Substeps = 0
	}

	outcomes, err := sim.NewRunner().Batch(cmd.Context(), []sim.Job{
		{Name: "discrete", Params: sc.params, Request: disc},
		{Name: "continuous", Params: sc.params, Request: cont},
	}, 2)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err != nil {
			return fmt.Errorf("%s run: %w", o.Job.Name, o.Err)
		}
		printWarnings(o.Result.Warnings)
	}

	a, b := outcomes[0].Result.Trajectory, outcomes[1].Result.Trajectory
	t := newTable("compartment", "max |discrete - continuous|", "day", "share of N")
	for _, name := range a.CompartmentNames() {
		da, _ := a.SeriesFor(name)
		db, _ := b.SeriesFor(name)
		gap := floats.Distance(da, db, math.Inf(1))
		day := 0.0
		for i := range da {
			if math.Abs(da[i]-db[i]) == gap {
				day = a.Time(i)
				break
			}
		}
		t.AppendRow(epi.DisplayName(name), fmt.Sprintf("%.4g", gap), fmt.Sprintf("%g", day), fmt.Sprintf("%.3e", gap/sc.params.Population))
	}
	fmt.Printf("%s over %d days (%s)\n\n", sc.cfg.Name, n, cont.Solver)
	fmt.Println(t.Render())
	return nil
}

func sweepRates(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	outcomes, err := sim.NewRunner().Sweep(cmd.Context(), sc.params, sc.req, sweepParam, sweepVals, parallel)
	if err != nil {
		return err
	}

	summaries := make([]map[string]float64, len(outcomes))
	var columns []string
	for i, o := range outcomes {
		if o.Err != nil {
			continue
		}
		if summaries[i], err = summarize(o.Result); err != nil {
			return err
		}
		if columns == nil {
			for k := range summaries[i] {
				columns = append(columns, k)
			}
			sort.Strings(columns)
		}
	}

	target := minimize
	if target == "" {
		for _, c := range columns {
			if strings.HasPrefix(c, "peak_") && !strings.HasPrefix(c, "peak_time_") {
				target = c
				break
			}
		}
	}
	best := sim.Best(outcomes, func(r *sim.Result) float64 {
		for i, o := range outcomes {
			if o.Result == r {
				if v, ok := summaries[i][target]; ok {
					return v
				}
			}
		}
		return math.Inf(1)
	})

	header := append([]string{"", sweepParam}, columns...)
	header = append(header, "error")
	t := newTable(header...)
	for i, o := range outcomes {
		mark := ""
		if i == best {
			mark = "*"
		}
		cells := []any{mark, fmt.Sprintf("%g", sweepVals[i])}
		for _, c := range columns {
			if summaries[i] == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, fmt.Sprintf("%.6g", summaries[i][c]))
		}
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		t.AppendRow(append(cells, errText)...)
	}
	fmt.Println(t.Render())
	if best >= 0 {
		fmt.Printf("\nlowest %s at %s=%g\n", target, sweepParam, sweepVals[best])
	}
	return nil
}
