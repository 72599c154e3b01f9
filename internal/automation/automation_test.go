package automation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/storage"
)

const script = `name: tour
description: two quick runs
steps:
  - scenario: simple
    solver: pbd
    ticks: 30
  - scenario: rope
    preset: weightless
    ticks: 20
    save: true
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScript(t *testing.T) {
	s, err := LoadScript(writeScript(t, script))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Name != "tour" || len(s.Steps) != 2 {
		t.Fatalf("unexpected script %+v", s)
	}
	if !s.Steps[1].Save || s.Steps[1].Preset != "weightless" {
		t.Errorf("unexpected second step %+v", s.Steps[1])
	}

	if _, err := LoadScript(writeScript(t, "name: empty\n")); err == nil {
		t.Error("expected error for a script without steps")
	}
}

func TestRunScript(t *testing.T) {
	s, err := LoadScript(writeScript(t, script))
	if err != nil {
		t.Fatal(err)
	}

	store := storage.New(t.TempDir())
	results, err := RunScript(context.Background(), s, config.DefaultConfig(), store, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Result.Variant != "pbd" || len(results[0].Result.Times) != 30 {
		t.Errorf("first step ran %s for %d ticks", results[0].Result.Variant, len(results[0].Result.Times))
	}
	if results[0].RunID != "" {
		t.Error("unsaved step has a run id")
	}

	second := results[1]
	if second.Result.Scenario != "rope" || second.Result.Variant != "pbd" {
		t.Errorf("preset not applied: %s/%s", second.Result.Scenario, second.Result.Variant)
	}
	if _, err := store.Load(second.RunID); err != nil {
		t.Errorf("saved run not found: %v", err)
	}
}

func TestRunScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		step Step
	}{
		{"unknown preset", Step{Scenario: "simple", Preset: "missing"}},
		{"unknown solver", Step{Solver: "rk4"}},
		{"save without store", Step{Ticks: 1, Save: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Script{Steps: []Step{tt.step}}
			if _, err := RunScript(context.Background(), s, config.DefaultConfig(), nil, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunSweep(t *testing.T) {
	results, err := RunSweep(context.Background(), &TimeStepSweep{
		Scenario: "simple",
		Solver:   "hybrid_v3",
		MinDt:    1.0 / 240,
		MaxDt:    1.0 / 60,
		NumSteps: 3,
		Duration: 0.5,
	}, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 points, got %d", len(results))
	}
	if results[0].TimeStep != 1.0/240 || math.Abs(results[2].TimeStep-1.0/60) > 1e-12 {
		t.Errorf("unexpected dt range %f..%f", results[0].TimeStep, results[2].TimeStep)
	}

	if _, err := RunSweep(context.Background(), &TimeStepSweep{NumSteps: 1}, nil); err == nil {
		t.Error("expected error for a degenerate sweep")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	results, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
		Scenario:     "double",
		Solver:       "hybrid_v3",
		Perturbation: 0.1,
		NumTrials:    4,
		Ticks:        60,
		Seed:         7,
	}, nil)
	if err != nil {
		t.Fatalf("monte carlo failed: %v", err)
	}

	stable, unstable := MonteCarloStats(results)
	if stable+unstable != 4 {
		t.Fatalf("expected 4 trials, got %d", stable+unstable)
	}
	if unstable != 0 {
		t.Errorf("expected every small perturbation to stay bounded, %d did not", unstable)
	}
}
