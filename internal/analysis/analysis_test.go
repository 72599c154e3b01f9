package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/linkage/internal/config"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		n    int
		dt   float64
		freq float64
	}{
		{"power of two", 256, 1.0 / 128, 2},
		{"odd length", 300, 0.01, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]float64, tt.n)
			for i := range data {
				data[i] = 3 + math.Sin(2*math.Pi*tt.freq*float64(i)*tt.dt)
			}

			got := DominantFrequency(data, tt.dt)
			resolution := 1 / (float64(tt.n) * tt.dt)
			if math.Abs(got-tt.freq) > resolution {
				t.Errorf("expected %.2f Hz, got %.2f", tt.freq, got)
			}
		})
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	if f := DominantFrequency([]float64{1, 1, 1, 1}, 0.1); f != 0 {
		t.Errorf("expected 0 for a constant series, got %f", f)
	}
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}
}

func TestTraceAndASCII(t *testing.T) {
	positions := [][]r2.Vec{
		{{X: 0, Y: 0}, {X: -1, Y: -1}},
		{{X: 0, Y: 0}, {X: 1, Y: 1}},
	}

	if Trace(positions, 2) != nil {
		t.Error("expected nil for out-of-range body")
	}

	p := Trace(positions, 1)
	if len(p.Points) != 2 || p.Points[1] != (r2.Vec{X: 1, Y: 1}) {
		t.Fatalf("unexpected trace %+v", p.Points)
	}

	out := p.ToASCII(20, 10)
	if strings.Count(out, "\n") != 10 {
		t.Errorf("expected 10 rows, got %q", out)
	}
	if strings.Count(out, "•") != 2 {
		t.Errorf("expected two plotted points, got %q", out)
	}
	if !strings.Contains(out, "│") || !strings.Contains(out, "─") {
		t.Error("expected both axes to be drawn")
	}
}

func TestMeasureDivergence(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Ticks = 240

	d, err := MeasureDivergence(cfg, 1, 1e-8, nil)
	if err != nil {
		t.Fatalf("divergence failed: %v", err)
	}
	if len(d.Separations) != 240 {
		t.Fatalf("expected 240 samples, got %d", len(d.Separations))
	}
	if d.Separations[0] <= 0 {
		t.Error("perturbation did not separate the trajectories")
	}
	if math.IsNaN(d.Exponent) || math.IsInf(d.Exponent, 0) {
		t.Errorf("exponent not finite: %f", d.Exponent)
	}
}

func TestMeasureDivergenceArguments(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Ticks = 1

	if _, err := MeasureDivergence(cfg, 0, 0, nil); err == nil {
		t.Error("expected error for zero perturbation")
	}
	if _, err := MeasureDivergence(cfg, 99, 1e-6, nil); err == nil {
		t.Error("expected error for out-of-range body")
	}
}
