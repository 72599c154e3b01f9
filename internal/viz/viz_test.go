package viz

import (
	"context"
	"errors"
	"image"
	"image/gif"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/linkage/internal/constraint"
	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/scenario"
	"github.com/san-kum/linkage/internal/worker"
	"gonum.org/v1/gonum/spatial/r2"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	if c.Grid[0][0] != 0x2801 || c.Grid[0][1] != 0x2880 {
		t.Fatalf("unexpected cells %U %U", c.Grid[0][0], c.Grid[0][1])
	}
	if !c.IsSet(3, 3) || c.IsSet(1, 0) {
		t.Error("IsSet disagrees with Set")
	}

	c.Unset(0, 0)
	if c.Grid[0][0] != blank {
		t.Errorf("expected blank cell, got %U", c.Grid[0][0])
	}

	c.Set(-1, 0)
	c.Set(100, 100)
	c.Clear()
	if strings.Trim(c.String(), "⠀\n") != "" {
		t.Error("clear left pixels behind")
	}
}

func TestCanvasLines(t *testing.T) {
	tests := []struct {
		name string
		dash int
		lit  int
	}{
		{"solid", 0, 10},
		{"dashed", 2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(10, 1)
			if tt.dash == 0 {
				c.DrawLine(0, 0, 9, 0)
			} else {
				c.DrawDashed(0, 0, 9, 0, tt.dash)
			}
			lit := 0
			for x := 0; x < 10; x++ {
				if c.IsSet(x, 0) {
					lit++
				}
			}
			if lit != tt.lit {
				t.Errorf("expected %d lit pixels, got %d", tt.lit, lit)
			}
		})
	}
}

func TestCanvasImage(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Set(1, 3)
	img := c.Image(8, 16)

	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 16 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if img.ColorIndexAt(5, 13) != 1 {
		t.Error("bottom-right dot not rasterized")
	}
	if img.ColorIndexAt(0, 0) != 0 {
		t.Error("unlit dot rasterized")
	}
}

func TestViewportFitAndProject(t *testing.T) {
	c := NewCanvas(40, 10) // 80 x 40 pixels
	v := NewViewport(c, 60)
	v.Fit([]r2.Vec{{X: -1, Y: -1}, {X: 1, Y: 1}})

	x, y := v.Project(r2.Vec{})
	if x != 40 || y != 20 {
		t.Errorf("expected centre (40, 20), got (%d, %d)", x, y)
	}

	_, top := v.Project(r2.Vec{Y: 1})
	_, bottom := v.Project(r2.Vec{Y: -1})
	if !(top < y && y < bottom) {
		t.Errorf("world y should point up: top=%d centre=%d bottom=%d", top, y, bottom)
	}

	// Height limits: 2 * 1.25 world units fill 40 pixels.
	if want := 40 / 2.5; v.Scale() != want {
		t.Errorf("expected scale %f, got %f", want, v.Scale())
	}
}

func TestViewportEasesAfterFirstFit(t *testing.T) {
	v := NewViewport(NewCanvas(40, 10), 60)
	v.Fit([]r2.Vec{{X: 0, Y: 0}})
	v.Fit([]r2.Vec{{X: 10, Y: 0}})

	cx := v.Center().X
	if !(cx > 0 && cx < 10) {
		t.Errorf("expected the centre to move part way, got %f", cx)
	}

	v.Reset()
	v.Fit([]r2.Vec{{X: 10, Y: 0}})
	if v.Center().X != 10 {
		t.Errorf("expected a snap after reset, got %f", v.Center().X)
	}
}

func TestDrawSnapshot(t *testing.T) {
	snap := engine.Snapshot{
		Positions: []r2.Vec{{X: 1, Y: 0}, {X: 1, Y: -1}},
		Links: []engine.Link{
			{Widget: constraint.Widget{Kind: constraint.WidgetAnchor, A: 0, PointA: r2.Vec{}}},
			{Widget: constraint.Widget{Kind: constraint.WidgetLink, A: 0, B: 1}},
			{Widget: constraint.Widget{Kind: constraint.WidgetPlane, A: 1, Normal: r2.Vec{Y: 1}, Offset: -1}},
		},
	}

	c := NewCanvas(40, 12)
	v := NewViewport(c, 60)
	v.Fit(framePoints(snap))
	DrawSnapshot(c, v, snap)

	for i, p := range snap.Positions {
		x, y := v.Project(p)
		if !c.IsSet(x, y) {
			t.Errorf("body %d not drawn at (%d, %d)", i, x, y)
		}
	}

	// The plane y = -1 is a dashed rail across the whole width.
	_, py := v.Project(r2.Vec{Y: -1})
	if !c.IsSet(0, py) {
		t.Error("plane rail does not reach the left edge")
	}
}

func startWorker(t *testing.T, cmds chan worker.Command) *worker.Worker {
	t.Helper()
	eng := engine.New(1.0/120, engine.WithLogger(quiet))
	if err := scenario.Build(eng, scenario.Simple); err != nil {
		t.Fatal(err)
	}
	w := worker.Start(context.Background(), eng, cmds,
		worker.WithInterval(0), worker.WithMaxTicks(5), worker.WithLogger(quiet))
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestModelKeysSendCommands(t *testing.T) {
	cmds := make(chan worker.Command, 4)
	m := NewModel(startWorker(t, cmds), cmds, scenario.Simple, engine.HybridV3)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m = next.(Model)

	if m.variant != engine.HybridV3CG || m.scenario != scenario.Double {
		t.Errorf("unexpected selection %s/%s", m.scenario, m.variant)
	}

	select {
	case cmd := <-cmds:
		if cmd.Variant != engine.HybridV3CG || cmd.Scenario != scenario.Simple {
			t.Errorf("unexpected first command %+v", cmd)
		}
	default:
		// the worker may already have consumed it
	}
}

func TestModelTickDrawsLatestSnapshot(t *testing.T) {
	w := startWorker(t, nil)
	<-w.Done()

	m := NewModel(w, nil, scenario.Simple, engine.HybridV3)
	next, cmd := m.Update(TickMsg{})
	m = next.(Model)

	if cmd == nil {
		t.Error("tick should schedule the next frame")
	}
	if !m.hasSnap || m.snap.Tick != 4 {
		t.Fatalf("expected the last snapshot (tick 4), got %+v", m.snap)
	}
	if len(m.energy) != 1 {
		t.Errorf("expected one energy sample, got %d", len(m.energy))
	}
	if !strings.Contains(m.View(), "SIMPLE") {
		t.Error("view lacks the scenario title")
	}
}

func TestModelReportsWorkerFailure(t *testing.T) {
	eng := engine.New(1.0/120, engine.WithLogger(quiet))
	h := eng.AddBody(r2.Vec{X: 1}, r2.Vec{}, 1)
	eng.AddConstraint(constraint.Anchor(h, r2.Vec{}, 1))
	eng.AddConstraint(constraint.Anchor(h, r2.Vec{}, 1))

	w := worker.Start(context.Background(), eng, nil, worker.WithInterval(0), worker.WithLogger(quiet))
	<-w.Done()

	m := NewModel(w, nil, scenario.Simple, engine.HybridV3)
	next, _ := m.Update(TickMsg{})
	m = next.(Model)

	if !errors.Is(m.Err(), engine.ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", m.Err())
	}
	if !strings.Contains(m.View(), "STOPPED") {
		t.Error("view does not show the failure")
	}
}

func TestMenuLaunchesSelection(t *testing.T) {
	var got struct {
		name scenario.Name
		v    engine.Variant
	}
	launch := func(name scenario.Name, v engine.Variant) (Model, error) {
		got.name, got.v = name, v
		return NewModel(startWorker(t, nil), nil, name, v), nil
	}

	var m tea.Model = NewInteractiveApp(launch)
	keys := []tea.KeyMsg{
		{Type: tea.KeyDown},
		{Type: tea.KeyEnter},
		{Type: tea.KeyDown},
		{Type: tea.KeyEnter},
	}
	for _, k := range keys {
		m, _ = m.Update(k)
	}

	if got.name != scenario.Double || got.v != engine.HybridV3CG {
		t.Errorf("launched %s/%s", got.name, got.v)
	}
	if m.(menu).state != stateSim {
		t.Error("menu did not hand over to the live view")
	}
}

func TestSparklineAndThemes(t *testing.T) {
	if got := SparklineChart([]float64{0, 1}, 2); got != "▁█" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := SparklineChart(nil, 3); got != "───" {
		t.Errorf("unexpected empty sparkline %q", got)
	}

	start := CurrentTheme.Name
	for range Themes {
		NextTheme()
	}
	if CurrentTheme.Name != start {
		t.Errorf("cycling all themes should return to %s, got %s", start, CurrentTheme.Name)
	}
	if GetTheme("nope").Name != ThemeBlueprint.Name {
		t.Error("unknown theme should fall back to the default")
	}
}

func TestGIFDelays(t *testing.T) {
	if got := gifDelays(3); got[0] != 3 || got[1] != 4 || got[2] != 3 {
		t.Errorf("delays = %v, want [3 4 3]", got)
	}

	// Thirty recorded frames cover one second of ticks.
	total := 0
	for _, d := range gifDelays(30) {
		if d < 2 {
			t.Errorf("delay %d is below what viewers honour", d)
		}
		total += d
	}
	if total != 100 {
		t.Errorf("total delay = %d cs, want 100", total)
	}
}

func TestSaveGIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.gif")
	c := NewCanvas(2, 1)
	frames := []*image.Paletted{c.Image(8, 16), c.Image(8, 16), c.Image(8, 16)}
	if err := saveGIF(path, frames); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 3 || anim.Delay[1] != 4 {
		t.Errorf("decoded %d frames with delays %v", len(anim.Image), anim.Delay)
	}

	if err := saveGIF(path, nil); err == nil {
		t.Error("expected error for an empty recording")
	}
}
