package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/linkage/internal/body"
	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/engine"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// saturation is the phase-space separation past which growth is no longer
// exponential and samples stop counting.
const saturation = 1.0

type Divergence struct {
	Times       []float64
	Separations []float64
	// Exponent is the slope of ln(separation) over the unsaturated samples.
	// A positive value indicates sensitive dependence on initial conditions.
	Exponent float64
}

// MeasureDivergence runs the configured scene twice, the second copy with
// body's velocity nudged by perturbation along x, and tracks how fast the
// two trajectories separate.
func MeasureDivergence(cfg *config.Config, bodyIndex int, perturbation float64, logger *slog.Logger) (*Divergence, error) {
	if !(perturbation > 0) {
		return nil, errors.New("analysis: perturbation must be positive")
	}

	base, err := cfg.NewEngine(logger)
	if err != nil {
		return nil, err
	}
	nudged, err := cfg.NewEngine(logger)
	if err != nil {
		return nil, err
	}
	if bodyIndex < 0 || bodyIndex >= base.Bodies().Len() {
		return nil, fmt.Errorf("analysis: body %d out of range [0, %d)", bodyIndex, base.Bodies().Len())
	}

	b := nudged.Body(body.Handle(bodyIndex))
	delta := r2.Vec{X: perturbation}
	b.Velocity = r2.Add(b.Velocity, delta)
	b.Previous = r2.Sub(b.Previous, r2.Scale(nudged.TimeStep(), delta))

	d := &Divergence{
		Times:       make([]float64, 0, cfg.Ticks),
		Separations: make([]float64, 0, cfg.Ticks),
	}

	var fitT, fitLog []float64
	saturated := false

	for i := 0; i < cfg.Ticks; i++ {
		if err := base.Solve(); err != nil {
			return d, err
		}
		if err := nudged.Solve(); err != nil {
			return d, err
		}

		t := float64(i+1) * cfg.TimeStep
		sep := separation(base, nudged)
		d.Times = append(d.Times, t)
		d.Separations = append(d.Separations, sep)

		if sep >= saturation {
			saturated = true
		}
		if !saturated && sep > 0 {
			fitT = append(fitT, t)
			fitLog = append(fitLog, math.Log(sep))
		}
	}

	if len(fitT) >= 2 {
		_, d.Exponent = stat.LinearRegression(fitT, fitLog, nil, false)
	}
	return d, nil
}

func separation(a, b *engine.Engine) float64 {
	sum := 0.0
	for i := 0; i < a.Bodies().Len(); i++ {
		pa, pb := a.Body(body.Handle(i)), b.Body(body.Handle(i))
		sum += r2.Norm2(r2.Sub(pa.Position, pb.Position))
		sum += r2.Norm2(r2.Sub(pa.Velocity, pb.Velocity))
	}
	return math.Sqrt(sum)
}
