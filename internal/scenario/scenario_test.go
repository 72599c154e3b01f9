package scenario

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/linkage/internal/body"
	"github.com/san-kum/linkage/internal/constraint"
	"gonum.org/v1/gonum/spatial/r2"
)

// recorder is a World that keeps everything it is given.
type recorder struct {
	store       *body.Store
	gravity     r2.Vec
	name        string
	constraints []constraint.Constraint
	springs     []constraint.Spring
	clears      int
}

func newRecorder() *recorder { return &recorder{store: body.NewStore()} }

func (r *recorder) Clear() {
	r.store.Clear()
	r.constraints = nil
	r.springs = nil
	r.clears++
}
func (r *recorder) SetGravity(g r2.Vec)           { r.gravity = g }
func (r *recorder) SetScenario(name string)       { r.name = name }
func (r *recorder) Body(h body.Handle) *body.Body { return r.store.Get(h) }
func (r *recorder) AddBody(pos, vel r2.Vec, mass float64) body.Handle {
	return r.store.Add(pos, vel, mass, 1.0/120)
}
func (r *recorder) AddConstraint(c constraint.Constraint) { r.constraints = append(r.constraints, c) }
func (r *recorder) AddSpring(s constraint.Spring)         { r.springs = append(r.springs, s) }

func TestBuildPopulations(t *testing.T) {
	tests := []struct {
		name        Name
		bodies      int
		constraints int
		springs     int
		gravity     float64
	}{
		{Simple, 1, 1, 0, -9.81},
		{Double, 2, 2, 0, -9.81},
		{Triple, 3, 3, 0, -9.81},
		{Rope, 20, 20, 0, -9.81},
		{Rail, 3, 4, 0, -9.81},
		{Structure, 4, 6, 0, -9.81},
		{Pulley, 2, 1, 0, -9.81},
		{PulleyAndRail, 2, 2, 0, -9.8},
		{Bridge, 13, 24, 0, -9.8},
		{BridgeSoft, 13, 3, 21, -9.8},
	}

	for _, tt := range tests {
		t.Run(tt.name.String(), func(t *testing.T) {
			w := newRecorder()
			if err := Build(w, tt.name); err != nil {
				t.Fatal(err)
			}
			if w.store.Len() != tt.bodies {
				t.Errorf("bodies = %d, want %d", w.store.Len(), tt.bodies)
			}
			if len(w.constraints) != tt.constraints {
				t.Errorf("constraints = %d, want %d", len(w.constraints), tt.constraints)
			}
			if len(w.springs) != tt.springs {
				t.Errorf("springs = %d, want %d", len(w.springs), tt.springs)
			}
			if w.gravity.Y != tt.gravity || w.gravity.X != 0 {
				t.Errorf("gravity = %v", w.gravity)
			}
			if w.name != tt.name.String() || w.clears != 1 {
				t.Errorf("label %q after %d clears", w.name, w.clears)
			}
		})
	}
}

func TestBuildIsAFullReset(t *testing.T) {
	w := newRecorder()
	if err := Build(w, Bridge); err != nil {
		t.Fatal(err)
	}
	if err := Build(w, Simple); err != nil {
		t.Fatal(err)
	}
	if w.store.Len() != 1 || len(w.constraints) != 1 {
		t.Errorf("stale population: %d bodies, %d constraints", w.store.Len(), len(w.constraints))
	}
}

func TestRopeLayout(t *testing.T) {
	w := newRecorder()
	if err := Build(w, Rope); err != nil {
		t.Fatal(err)
	}

	for i, c := range w.constraints[:19] {
		if c.Kind != constraint.KindDistance || c.A != body.Handle(i) || c.B != body.Handle(i+1) {
			t.Errorf("constraint %d links %d-%d", i, c.A, c.B)
		}
		if c.Length != 0.25 {
			t.Errorf("segment %d length %f", i, c.Length)
		}
	}
	last := w.constraints[19]
	if last.Kind != constraint.KindAnchor || last.A != 19 {
		t.Errorf("rope should end with an anchor on the last body, got %+v", last)
	}
	if v := w.store.Get(0).Velocity; v != (r2.Vec{Y: 4}) {
		t.Errorf("initial velocity %v", v)
	}
}

func TestTriangleStrip(t *testing.T) {
	w := newRecorder()
	hs := []body.Handle{
		w.AddBody(r2.Vec{X: 0, Y: 0}, r2.Vec{}, 1),
		w.AddBody(r2.Vec{X: 1, Y: 0}, r2.Vec{}, 1),
		w.AddBody(r2.Vec{X: 0, Y: 1}, r2.Vec{}, 1),
		w.AddBody(r2.Vec{X: 1, Y: 1}, r2.Vec{}, 1),
	}

	type pair struct {
		a, b body.Handle
		rest float64
	}
	var got []pair
	TriangleStrip(w, hs, func(a, b body.Handle, rest float64) {
		got = append(got, pair{a, b, rest})
	})

	want := []pair{
		{0, 1, 1},
		{2, 0, 1},
		{2, 1, math.Sqrt2},
		{3, 1, 1},
		{3, 2, 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d links, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].a != want[i].a || got[i].b != want[i].b || math.Abs(got[i].rest-want[i].rest) > 1e-12 {
			t.Errorf("link %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	var none int
	TriangleStrip(w, hs[:1], func(body.Handle, body.Handle, float64) { none++ })
	if none != 0 {
		t.Error("a single body should produce no links")
	}
}

func TestBridgeSoftKeepsRigidFrame(t *testing.T) {
	w := newRecorder()
	if err := Build(w, BridgeSoft); err != nil {
		t.Fatal(err)
	}
	kinds := []constraint.Kind{constraint.KindDistance, constraint.KindAnchor, constraint.KindAnchor}
	for i, k := range kinds {
		if w.constraints[i].Kind != k {
			t.Errorf("constraint %d is %s, want %s", i, w.constraints[i].Kind, k)
		}
	}
	for _, sp := range w.springs {
		if sp.Stiffness != softStiffness || sp.Rest <= 0 {
			t.Errorf("unexpected spring %+v", sp)
		}
	}
}

func TestParse(t *testing.T) {
	for _, n := range Names() {
		got, err := Parse(n.String())
		if err != nil || got != n {
			t.Errorf("round trip %s: %v, %v", n, got, err)
		}
	}
	if got, _ := Parse("Pulley-And-Rail"); got != PulleyAndRail {
		t.Errorf("dashes should parse, got %s", got)
	}
	if _, err := Parse("trebuchet"); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("expected ErrUnknownScenario, got %v", err)
	}
	if err := Build(newRecorder(), Name(200)); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("expected ErrUnknownScenario, got %v", err)
	}
	if BridgeSoft.Next() != Simple {
		t.Error("Next should wrap around")
	}
}
