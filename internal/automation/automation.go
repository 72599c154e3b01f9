package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/linkage/internal/body"
	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/experiment"
	"github.com/san-kum/linkage/internal/storage"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

// Script is a scripted sequence of headless runs.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step overrides the base config for one run. Zero fields keep the base
// value. A preset of the step's scenario, when named, replaces the base
// before the other fields apply.
type Step struct {
	Preset   string      `yaml:"preset"`
	Scenario string      `yaml:"scenario"`
	Solver   string      `yaml:"solver"`
	Ticks    int         `yaml:"ticks"`
	TimeStep float64     `yaml:"time_step"`
	Gravity  *[2]float64 `yaml:"gravity"`
	Save     bool        `yaml:"save"`
}

type StepResult struct {
	Result *experiment.Result
	RunID  string // empty unless the step was saved
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("%s: script has no steps", path)
	}

	return &script, nil
}

func (s Step) apply(base *config.Config) (*config.Config, error) {
	cfg := *base
	if s.Preset != "" {
		scene := s.Scenario
		if scene == "" {
			scene = base.Scenario
		}
		preset := config.GetPreset(scene, s.Preset)
		if preset == nil {
			return nil, fmt.Errorf("unknown preset %q for scenario %s", s.Preset, scene)
		}
		cfg = *preset
	}
	if s.Scenario != "" {
		cfg.Scenario = s.Scenario
	}
	if s.Solver != "" {
		cfg.Solver = s.Solver
	}
	if s.Ticks > 0 {
		cfg.Ticks = s.Ticks
	}
	if s.TimeStep > 0 {
		cfg.TimeStep = s.TimeStep
	}
	if s.Gravity != nil {
		g := *s.Gravity
		cfg.Gravity = &g
	}
	return &cfg, cfg.Validate()
}

// RunScript executes every step in order. Steps marked save are written to
// store, which may be nil when no step saves.
func RunScript(ctx context.Context, script *Script, base *config.Config, store *storage.Store, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(script.Steps))

	for i, step := range script.Steps {
		cfg, err := step.apply(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("running step", "step", i+1, "of", len(script.Steps),
			"scenario", cfg.Scenario, "solver", cfg.Solver, "ticks", cfg.Ticks)

		exp := experiment.New(cfg, logger)
		for _, m := range experiment.DefaultMetrics() {
			exp.AddMetric(m)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Result: result}
		if step.Save {
			if store == nil {
				return results, fmt.Errorf("step %d: save requested without a store", i+1)
			}
			if sr.RunID, err = store.Save(result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// TimeStepSweep runs one scene across evenly spaced time steps for the same
// simulated duration.
type TimeStepSweep struct {
	Scenario string
	Solver   string
	MinDt    float64
	MaxDt    float64
	NumSteps int
	Duration float64 // seconds
}

type SweepResult struct {
	TimeStep  float64
	Drift     float64
	Violation float64
	SolveMs   float64
}

func RunSweep(ctx context.Context, sweep *TimeStepSweep, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 || !(sweep.MaxDt > sweep.MinDt) || sweep.MinDt <= 0 {
		return nil, errors.New("automation: sweep needs at least two steps over a positive dt range")
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	stride := (sweep.MaxDt - sweep.MinDt) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		dt := sweep.MinDt + float64(i)*stride

		cfg := config.DefaultConfig()
		cfg.Scenario = sweep.Scenario
		cfg.Solver = sweep.Solver
		cfg.TimeStep = dt
		cfg.Ticks = max(1, int(sweep.Duration/dt))

		exp := experiment.New(cfg, logger)
		for _, m := range experiment.DefaultMetrics() {
			exp.AddMetric(m)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("dt=%g: %w", dt, err)
		}

		results = append(results, SweepResult{
			TimeStep:  dt,
			Drift:     result.Metrics["energy_drift"],
			Violation: result.Metrics["violation"],
			SolveMs:   result.Metrics["solve_ms"],
		})

		logger.Debug("sweep point", "index", i+1, "of", sweep.NumSteps, "dt", dt)
	}

	return results, nil
}

// MonteCarloConfig perturbs every body's initial velocity uniformly within
// ±Perturbation on each axis.
type MonteCarloConfig struct {
	Scenario     string
	Solver       string
	Perturbation float64
	NumTrials    int
	Ticks        int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID   int
	Drift     float64
	Violation float64
	Stable    bool // positions stayed finite and bounded for every tick
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, logger *slog.Logger) ([]MonteCarloResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]MonteCarloResult, 0, mc.NumTrials)

	rng := rand.New(rand.NewSource(mc.Seed))
	if mc.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for trial := 0; trial < mc.NumTrials; trial++ {
		cfg := config.DefaultConfig()
		cfg.Scenario = mc.Scenario
		cfg.Solver = mc.Solver
		cfg.Ticks = mc.Ticks

		exp := experiment.New(cfg, logger)
		for _, m := range experiment.DefaultMetrics() {
			exp.AddMetric(m)
		}
		exp.AddHook(func(eng *engine.Engine) {
			perturb(eng, rng, mc.Perturbation)
		})

		result, err := exp.Run(ctx)
		if err != nil {
			var te *engine.TickError
			if !errors.As(err, &te) {
				return results, err
			}
			logger.Warn("trial failed", "trial", trial, "err", err)
		}

		results = append(results, MonteCarloResult{
			TrialID:   trial,
			Drift:     result.Metrics["energy_drift"],
			Violation: result.Metrics["violation"],
			Stable:    err == nil && result.Metrics["stability"] == 1,
		})

		if (trial+1)%10 == 0 {
			logger.Info("monte carlo progress", "done", trial+1, "of", mc.NumTrials)
		}
	}

	return results, nil
}

func perturb(eng *engine.Engine, rng *rand.Rand, amount float64) {
	dt := eng.TimeStep()
	for i := 0; i < eng.Bodies().Len(); i++ {
		b := eng.Body(body.Handle(i))
		dv := r2.Vec{
			X: (rng.Float64() - 0.5) * 2 * amount,
			Y: (rng.Float64() - 0.5) * 2 * amount,
		}
		b.Velocity = r2.Add(b.Velocity, dv)
		b.Previous = r2.Sub(b.Previous, r2.Scale(dt, dv))
	}
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
