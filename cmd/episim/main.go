package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/viz"
)

var (
	dataDir string
	verbose bool
	theme   string
	// Scenario selection
	configFile string
	preset     string
	// Overrides
	mode       string
	solver     string
	days       float64
	points     int
	steps      int
	substeps   int
	maxSteps   int
	permissive bool
	timeout    string
	rates      map[string]string
	initial    map[string]string
	// Output
	save       bool
	plot       bool
	chartPath  string
	outPath    string
	only       []string
	separate   bool
	sweepParam string
	sweepVals  []float64
	parallel   int
	minimize   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "episim",
		Short:         "compartmental epidemic simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logging.SetLevel(slog.LevelDebug)
			}
			viz.CurrentTheme = viz.GetTheme(theme)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", storage.DefaultDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeCyberpunk.Name, "color theme")

	runCmd := &cobra.Command{
		Use:   "run [variant]",
		Short: "run a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot compartments in the terminal")
	runCmd.Flags().StringVar(&chartPath, "png", "", "write a chart image (.png or .svg)")

	variantsCmd := &cobra.Command{
		Use:   "variants",
		Short: "list model variants",
		Args:  cobra.NoArgs,
		RunE:  listVariants,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [variant]",
		Short: "list presets, for one variant or all",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&only, "compartments", nil, "compartments to plot (default all)")
	plotCmd.Flags().BoolVar(&separate, "separate", false, "one graph per compartment")
	plotCmd.Flags().StringVar(&chartPath, "png", "", "write a chart image (.png or .svg) instead")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored trajectory as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare [variant]",
		Short: "compare the discrete and continuous forms of a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareModes,
	}
	scenarioFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [variant]",
		Short: "run a scenario over several values of one rate",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepRates,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "rate to vary")
	sweepCmd.Flags().Float64SliceVar(&sweepVals, "values", nil, "comma separated values")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (default GOMAXPROCS)")
	sweepCmd.Flags().StringVar(&minimize, "minimize", "", "metric used to pick the best value (default infected peak)")
	_ = sweepCmd.MarkFlagRequired("param")
	_ = sweepCmd.MarkFlagRequired("values")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "browse a stored run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}

	rootCmd.AddCommand(runCmd, variantsCmd, presetsCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, compareCmd, sweepCmd, viewCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, viz.WarningText.Render("error:"), err)
		stop()
		os.Exit(1)
	}
}

// scenarioFlags registers the flags that pick and override a scenario.
func scenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "scenario file (yaml)")
	f.StringVar(&preset, "preset", "", "named preset of the variant")
	f.StringVar(&mode, "mode", "", "continuous or discrete")
	f.StringVar(&solver, "solver", "", "continuous solver (rk45, dopri, rk4)")
	f.Float64Var(&days, "days", 0, "horizon in days (continuous)")
	f.IntVar(&points, "points", 0, "output grid points (continuous)")
	f.IntVar(&steps, "steps", 0, "daily records (discrete)")
	f.IntVar(&substeps, "substeps", 0, "sub-steps per day or rk4 interval")
	f.IntVar(&maxSteps, "max-steps", 0, "adaptive step budget")
	f.BoolVar(&permissive, "permissive", false, "report invariant violations as warnings")
	f.StringVar(&timeout, "timeout", "", "abort the run after this duration")
	f.StringToStringVar(&rates, "set", nil, "override rates, e.g. --set beta=0.4")
	f.StringToStringVar(&initial, "initial", nil, "override initial counts, e.g. --initial I=10")
}
