package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/engine"
)

func testConfig(scenario, solver string, ticks int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scenario = scenario
	cfg.Solver = solver
	cfg.Ticks = ticks
	return cfg
}

func TestRunRecordsEveryTick(t *testing.T) {
	exp := New(testConfig("simple", "hybrid_v3", 120), nil)
	for _, m := range DefaultMetrics() {
		exp.AddMetric(m)
	}

	var observed int
	exp.AddObserver(func(engine.Snapshot) { observed++ })

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(res.Times) != 120 || len(res.Total) != 120 || len(res.Positions) != 120 {
		t.Fatalf("expected 120 samples, got %d", len(res.Times))
	}
	if observed != 120 {
		t.Errorf("observer saw %d snapshots", observed)
	}
	if math.Abs(res.Times[119]-1.0) > 1e-9 {
		t.Errorf("expected final time 1s, got %f", res.Times[119])
	}
	if len(res.Elastic) != 0 {
		t.Error("rigid scenario recorded elastic energy")
	}
	if res.Scenario != "simple" || res.Variant != "hybrid_v3" {
		t.Errorf("unexpected labels %s/%s", res.Scenario, res.Variant)
	}
	if res.Metrics["stability"] != 1 {
		t.Errorf("expected stable run, got %f", res.Metrics["stability"])
	}
}

func TestRunElasticSeries(t *testing.T) {
	res, err := New(testConfig("bridge_soft", "hybrid_v3", 10), nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Elastic) != 10 {
		t.Errorf("expected 10 elastic samples, got %d", len(res.Elastic))
	}
}

func TestRunInvalidConfig(t *testing.T) {
	if _, err := New(testConfig("nope", "hybrid_v3", 1), nil).Run(context.Background()); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(testConfig("double", "pbd", 100), nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(res.Times) != 0 {
		t.Errorf("expected no samples, got %d", len(res.Times))
	}
}

func TestRunAllKeepsOrder(t *testing.T) {
	var cfgs []*config.Config
	for _, v := range engine.Variants() {
		cfgs = append(cfgs, testConfig("double", v.String(), 60))
	}

	results, err := RunAll(context.Background(), cfgs, nil)
	if err != nil {
		t.Fatalf("run all failed: %v", err)
	}
	for i, v := range engine.Variants() {
		if results[i].Variant != v.String() {
			t.Errorf("result %d is %s, want %s", i, results[i].Variant, v)
		}
		if _, ok := results[i].Metrics["energy_drift"]; !ok {
			t.Errorf("%s missing default metrics", v)
		}
	}
}

func TestRegistry(t *testing.T) {
	if got := len(Scenarios()); got != 10 {
		t.Errorf("expected 10 scenarios, got %d", got)
	}
	if got := len(Solvers()); got != 9 {
		t.Errorf("expected 9 solvers, got %d", got)
	}
	for _, e := range append(Scenarios(), Solvers()...) {
		if e.Description == "" {
			t.Errorf("%s has no description", e.Name)
		}
	}
}
