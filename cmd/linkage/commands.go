package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/automation"
	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/experiment"
	"github.com/san-kum/linkage/internal/scenario"
	"github.com/san-kum/linkage/internal/storage"
	"github.com/san-kum/linkage/internal/viz"
	"github.com/san-kum/linkage/internal/worker"
	"github.com/spf13/cobra"
)

const commandQueue = 16

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// launcher starts a worker for each selection made in the live views. Every
// launch copies cfg so a switch in one session never leaks into the next.
func launcher(cfg *config.Config, cmd *cobra.Command) (viz.Launcher, func(), error) {
	logger, closeLog, err := newLogger(true)
	if err != nil {
		return nil, nil, err
	}

	launch := func(name scenario.Name, v engine.Variant) (viz.Model, error) {
		c := *cfg
		c.Scenario = name.String()
		c.Solver = v.String()

		eng, err := c.NewEngine(logger)
		if err != nil {
			return viz.Model{}, err
		}

		commands := make(chan worker.Command, commandQueue)
		w := worker.Start(cmd.Context(), eng, commands,
			worker.WithInterval(c.Interval()),
			worker.WithBuffer(c.SnapshotBuffer),
			worker.WithBuilder(c.Rebuild),
			worker.WithLogger(logger),
		)
		return viz.NewModel(w, commands, name, v), nil
	}
	return launch, closeLog, nil
}

func applyTheme() error {
	if theme == "" {
		return nil
	}
	for _, name := range viz.ThemeNames() {
		if name == theme {
			viz.SetTheme(theme)
			return nil
		}
	}
	return fmt.Errorf("unknown theme: %s (available: %s)", theme, strings.Join(viz.ThemeNames(), ", "))
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := applyTheme(); err != nil {
		return err
	}

	launch, closeLog, err := launcher(cfg, cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	return viz.RunInteractive(launch)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := applyTheme(); err != nil {
		return err
	}

	launch, closeLog, err := launcher(cfg, cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	name, _ := cfg.ScenarioName()
	variant, _ := cfg.Variant()
	m, err := launch(name, variant)
	if err != nil {
		return err
	}
	return viz.RunLive(m)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := interruptContext()
	defer cancel()

	exp := experiment.New(cfg, logger)
	for _, m := range experiment.DefaultMetrics() {
		exp.AddMetric(m)
	}

	fmt.Printf("running %s with %s...\n", cfg.Scenario, cfg.Solver)
	result, err := exp.Run(ctx)
	if err != nil {
		var tickErr *engine.TickError
		if result == nil || !errors.As(err, &tickErr) {
			return err
		}
		fmt.Printf("stopped early: %v\n", err)
	}

	st := storage.New(cfg.DataDir)
	runID, err := st.Save(result)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	fmt.Printf("completed in %v\n", result.WallTime.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", len(result.Times))
	printMetrics(result.Metrics)

	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, m[name])
	}
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	names := args[1:]
	if len(names) == 0 {
		for _, v := range engine.Variants() {
			names = append(names, v.String())
		}
	}

	cfgs := make([]*config.Config, len(names))
	for i, name := range names {
		c := *cfg
		c.Solver = name
		if err := c.Validate(); err != nil {
			return err
		}
		cfgs[i] = &c
	}

	ctx, cancel := interruptContext()
	defer cancel()

	fmt.Printf("comparing solvers for %s (dt=%.4f, ticks=%d)\n\n", cfg.Scenario, cfg.TimeStep, cfg.Ticks)
	results, runErr := experiment.RunAll(ctx, cfgs, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tDRIFT\tVIOLATION\tMAX_VIOLATION\tSOLVE_MS\tTICKS")
	for i, r := range results {
		if r == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\n", names[i])
			continue
		}
		fmt.Fprintf(w, "%s\t%.3e\t%.3e\t%.3e\t%.4f\t%d\n",
			names[i],
			r.Metrics["energy_drift"],
			r.Metrics["violation"],
			r.Metrics["max_violation"],
			r.Metrics["solve_ms"],
			len(r.Times),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return runErr
}

func sweepTimeStep(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := interruptContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.TimeStepSweep{
		Scenario: args[0],
		Solver:   sweepSolver,
		MinDt:    sweepMin,
		MaxDt:    sweepMax,
		NumSteps: sweepSteps,
		Duration: sweepTime,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DT\tDRIFT\tVIOLATION\tSOLVE_MS")
	for _, r := range results {
		fmt.Fprintf(w, "%.5f\t%.3e\t%.3e\t%.4f\n", r.TimeStep, r.Drift, r.Violation, r.SolveMs)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tSOLVER\tTIME\tTICKS\tDT\tWALL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%.2fs\n",
			run.ID,
			run.Scenario,
			run.Solver,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Dt,
			run.WallTime,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s)\n", meta.Scenario, meta.Solver)
	fmt.Printf("samples: %d\n\n", len(series.Rows))

	columns := []string{"total", "violation"}
	if plotColumn != "" {
		columns = []string{plotColumn}
	}

	for _, name := range columns {
		data := series.Column(name)
		if len(data) == 0 {
			return fmt.Errorf("no column %q in run %s (have %s)", name, runID, strings.Join(series.Header, ", "))
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSONTo(os.Stdout, result)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := series.Column(specColumn)
	if len(data) < 4 {
		return fmt.Errorf("not enough %q samples in run %s", specColumn, runID)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s)\n\n", meta.Scenario, meta.Solver)

	spectrum := analysis.PowerSpectrum(data)
	plotData := spectrum[1:]
	if len(plotData) > 100 {
		plotData = plotData[:100]
	}

	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+specColumn+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, meta.Dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if bodyIndex < 0 || bodyIndex >= meta.Bodies {
		return fmt.Errorf("body %d out of range (run has %d bodies)", bodyIndex, meta.Bodies)
	}

	result, err := st.LoadResult(runID)
	if err != nil {
		return err
	}

	fmt.Printf("path plot: %s\n", meta.ID)
	fmt.Printf("scenario: %s, body %d\n\n", meta.Scenario, bodyIndex)
	fmt.Println(analysis.Trace(result.Positions, bodyIndex).ToASCII(80, 30))

	return nil
}

func divergeRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	div, err := analysis.MeasureDivergence(cfg, bodyIndex, 1e-8, logger)
	if err != nil {
		return err
	}

	logSep := make([]float64, len(div.Separations))
	for i, s := range div.Separations {
		logSep[i] = math.Log10(math.Max(s, 1e-300))
	}

	fmt.Printf("divergence: %s (%s), body %d\n\n", cfg.Scenario, cfg.Solver, bodyIndex)
	fmt.Println(asciigraph.Plot(logSep,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("log10 separation"),
	))
	fmt.Printf("\nexponent: %.4f /s\n", div.Exponent)
	if div.Exponent > 0.1 {
		fmt.Println("trajectories separate exponentially")
	}

	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	base, err := resolveConfig(cmd, nil)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := interruptContext()
	defer cancel()

	fmt.Printf("running script %s (%d steps)\n", script.Name, len(script.Steps))
	results, err := automation.RunScript(ctx, script, base, storage.New(base.DataDir), logger)
	for i, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Printf("  %d. %s/%s drift=%.3e violation=%.3e run=%s\n",
			i+1, r.Result.Scenario, r.Result.Variant,
			r.Result.Metrics["energy_drift"], r.Result.Metrics["violation"], id)
	}
	return err
}

func listScenarios(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tDESCRIPTION")
	for _, e := range experiment.Scenarios() {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Description)
	}
	return w.Flush()
}

func listSolvers(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tDESCRIPTION")
	for _, e := range experiment.Solvers() {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Description)
	}
	return w.Flush()
}
