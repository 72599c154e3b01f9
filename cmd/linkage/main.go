package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/san-kum/linkage/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	logFile    string
	configFile string
	preset     string
	solver     string
	dt         float64
	ticks      int
	tickMillis int
	gravityOff bool
	plotColumn string
	specColumn string
	bodyIndex  int
	theme      string

	// dt sweep
	sweepSolver string
	sweepMin    float64
	sweepMax    float64
	sweepSteps  int
	sweepTime   float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "linkage",
		Short:         "constraint dynamics sandbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "run archive directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.Flags().StringVar(&theme, "theme", "", "live view theme")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario headless and archive the series",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "watch a scenario in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().IntVar(&tickMillis, "tick", config.DefaultTickMillis, "worker tick interval in milliseconds")
	liveCmd.Flags().StringVar(&theme, "theme", "", "live view theme")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [solver...]",
		Short: "run several solvers on the same scenario in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareSolvers,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", config.DefaultTimeStep, "time step in seconds")
	compareCmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")
	compareCmd.Flags().BoolVar(&gravityOff, "gravity-off", false, "disable gravity")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "measure drift and violation across time steps",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepTimeStep,
	}
	sweepCmd.Flags().StringVar(&sweepSolver, "solver", "hybrid_v3", "solver variant")
	sweepCmd.Flags().Float64Var(&sweepMin, "min-dt", 1.0/480, "smallest time step")
	sweepCmd.Flags().Float64Var(&sweepMax, "max-dt", 1.0/30, "largest time step")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 8, "number of time steps")
	sweepCmd.Flags().Float64Var(&sweepTime, "time", 10, "simulated seconds per point")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and violation of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "", "plot only this series column")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "print every series of a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum of a run's energy series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&specColumn, "column", "kinetic", "series column to analyze")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "plot one body's path",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&bodyIndex, "body", 0, "body index")

	divergeCmd := &cobra.Command{
		Use:   "diverge [scenario]",
		Short: "measure sensitivity to a tiny velocity nudge",
		Args:  cobra.MaximumNArgs(1),
		RunE:  divergeRun,
	}
	addSceneFlags(divergeCmd)
	divergeCmd.Flags().IntVar(&ticks, "ticks", 1200, "number of ticks")
	divergeCmd.Flags().IntVar(&bodyIndex, "body", 0, "body to nudge")

	scriptCmd := &cobra.Command{
		Use:   "script [file.yaml]",
		Short: "run an automation script",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios",
		RunE:  listScenarios,
	}

	solversCmd := &cobra.Command{
		Use:   "solvers",
		Short: "list solver variants",
		RunE:  listSolvers,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, compareCmd, sweepCmd, listCmd, plotCmd, exportCmd, exportJSONCmd,
		analyzeCmd, phaseCmd, divergeCmd, scriptCmd, scenariosCmd, solversCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&solver, "solver", "", "solver variant")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultTimeStep, "time step in seconds")
	cmd.Flags().BoolVar(&gravityOff, "gravity-off", false, "disable gravity")
	cmd.Flags().StringVar(&preset, "preset", "", "use a preset of the scenario")
}

// newLogger builds the process logger. Terminal UIs pass quiet so that
// logging does not draw over the screen unless a log file was given.
func newLogger(quiet bool) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	var (
		out     io.Writer = os.Stderr
		closeFn           = func() {}
	)
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		out, closeFn = f, func() { f.Close() }
	case quiet:
		out = io.Discard
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeFn, nil
}

// resolveConfig layers defaults, preset, config file and flags, later ones
// winning.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	scene := cfg.Scenario
	if len(args) > 0 {
		scene = args[0]
	}

	if preset != "" {
		p := config.GetPreset(scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scene))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}
	if flags.Changed("solver") {
		cfg.Solver = solver
	}
	if flags.Changed("dt") {
		cfg.TimeStep = dt
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("tick") {
		cfg.TickMillis = tickMillis
	}
	if gravityOff {
		cfg.Gravity = &[2]float64{0, 0}
	}
	if cmd.Flags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}

	return cfg, cfg.Validate()
}
