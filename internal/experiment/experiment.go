package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/metrics"
	"gonum.org/v1/gonum/spatial/r2"
)

// Result holds the per-tick series of one headless run.
type Result struct {
	Scenario string
	Variant  string
	TimeStep float64

	Times     []float64
	Kinetic   []float64
	Potential []float64
	Elastic   []float64 // empty unless the scenario has springs
	Total     []float64
	Violation []float64
	Positions [][]r2.Vec

	Metrics  map[string]float64
	WallTime time.Duration
}

// Observer is called with every snapshot of a run.
type Observer func(s engine.Snapshot)

// Hook runs once on the freshly built engine, before the first tick.
type Hook func(eng *engine.Engine)

type Experiment struct {
	cfg       *config.Config
	metrics   []metrics.Metric
	observers []Observer
	hooks     []Hook
	logger    *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Experiment{cfg: cfg, logger: logger}
}

func (e *Experiment) AddMetric(m metrics.Metric) { e.metrics = append(e.metrics, m) }
func (e *Experiment) AddObserver(o Observer)     { e.observers = append(e.observers, o) }
func (e *Experiment) AddHook(h Hook)             { e.hooks = append(e.hooks, h) }

// Run builds a fresh engine from the config and steps it cfg.Ticks times.
// On a solve failure the partial result is returned with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	eng, err := e.cfg.NewEngine(e.logger)
	if err != nil {
		return nil, err
	}
	for _, h := range e.hooks {
		h(eng)
	}

	ticks := e.cfg.Ticks
	result := &Result{
		Scenario:  eng.Scenario(),
		Variant:   eng.Variant().String(),
		TimeStep:  eng.TimeStep(),
		Times:     make([]float64, 0, ticks),
		Kinetic:   make([]float64, 0, ticks),
		Potential: make([]float64, 0, ticks),
		Total:     make([]float64, 0, ticks),
		Violation: make([]float64, 0, ticks),
		Positions: make([][]r2.Vec, 0, ticks),
		Metrics:   make(map[string]float64),
	}

	for _, m := range e.metrics {
		m.Reset()
	}

	start := time.Now()
	defer func() { result.WallTime = time.Since(start) }()

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := eng.Solve(); err != nil {
			e.finish(result)
			return result, err
		}
		snap := eng.TakeSnapshot()

		for _, m := range e.metrics {
			m.Observe(snap)
		}
		for _, obs := range e.observers {
			obs(snap)
		}
		result.record(snap)
	}

	e.finish(result)
	return result, nil
}

func (e *Experiment) finish(r *Result) {
	for k, v := range metrics.Collect(e.metrics) {
		r.Metrics[k] = v
	}
}

func (r *Result) record(s engine.Snapshot) {
	r.Times = append(r.Times, float64(s.Tick+1)*r.TimeStep)
	r.Kinetic = append(r.Kinetic, s.Kinetic)
	r.Potential = append(r.Potential, s.Potential)
	if s.Elastic != nil {
		r.Elastic = append(r.Elastic, *s.Elastic)
	}
	r.Total = append(r.Total, s.Total())
	r.Violation = append(r.Violation, s.ViolationMean)
	r.Positions = append(r.Positions, s.Positions)
}

// RunAll runs independent experiments in parallel, one goroutine each, and
// returns results in input order. Every run owns its own engine.
func RunAll(ctx context.Context, cfgs []*config.Config, logger *slog.Logger) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	errs := make([]error, len(cfgs))

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(idx int, cfg *config.Config) {
			defer wg.Done()

			exp := New(cfg, logger)
			for _, m := range DefaultMetrics() {
				exp.AddMetric(m)
			}
			results[idx], errs[idx] = exp.Run(ctx)
		}(i, cfg)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("%s/%s: %w", cfgs[i].Scenario, cfgs[i].Solver, err)
		}
	}

	return results, nil
}
