// Package scenario builds the named demo scenes.
//
// Every builder clears the world first and then adds bodies and constraints
// in a fixed order. That order fixes the solver index and so the column
// layout of the Jacobian; two builds of the same scenario are identical.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/linkage/internal/body"
	"github.com/san-kum/linkage/internal/constraint"
	"gonum.org/v1/gonum/spatial/r2"
)

var ErrUnknownScenario = errors.New("scenario: unknown scenario")

// World is the part of the engine a builder needs.
type World interface {
	Clear()
	SetGravity(g r2.Vec)
	SetScenario(name string)
	AddBody(pos, vel r2.Vec, mass float64) body.Handle
	AddConstraint(c constraint.Constraint)
	AddSpring(s constraint.Spring)
	Body(h body.Handle) *body.Body
}

type Name uint8

const (
	Simple Name = iota
	Double
	Triple
	Rope
	Rail
	Structure
	Pulley
	PulleyAndRail
	Bridge
	BridgeSoft
)

var names = [...]string{
	Simple:        "simple",
	Double:        "double",
	Triple:        "triple",
	Rope:          "rope",
	Rail:          "rail",
	Structure:     "structure",
	Pulley:        "pulley",
	PulleyAndRail: "pulley_and_rail",
	Bridge:        "bridge",
	BridgeSoft:    "bridge_soft",
}

var descriptions = [...]string{
	Simple:        "single pendulum launched sideways",
	Double:        "double pendulum from rest",
	Triple:        "triple pendulum from rest",
	Rope:          "20-link rope anchored at one end",
	Rail:          "two bodies on crossed rails with a hanging link",
	Structure:     "rigid square hung from one corner",
	Pulley:        "two masses over a pair of wheels",
	PulleyAndRail: "rail-bound mass hauling a heavier one",
	Bridge:        "truss bridge carrying a pendulum load",
	BridgeSoft:    "bridge with a spring truss",
}

var builders = [...]func(World){
	Simple:        buildSimple,
	Double:        buildDouble,
	Triple:        buildTriple,
	Rope:          buildRope,
	Rail:          buildRail,
	Structure:     buildStructure,
	Pulley:        buildPulley,
	PulleyAndRail: buildPulleyAndRail,
	Bridge:        buildBridge,
	BridgeSoft:    buildBridgeSoft,
}

func (n Name) String() string {
	if int(n) < len(names) {
		return names[n]
	}
	return fmt.Sprintf("scenario(%d)", uint8(n))
}

func (n Name) Description() string {
	if int(n) < len(descriptions) {
		return descriptions[n]
	}
	return ""
}

// Next cycles to the following scenario, wrapping around.
func (n Name) Next() Name {
	return Name((int(n) + 1) % len(names))
}

// Parse accepts the names printed by String, case-insensitively.
func Parse(s string) (Name, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range names {
		if name == key {
			return Name(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScenario, s)
}

func Names() []Name {
	out := make([]Name, len(names))
	for i := range out {
		out[i] = Name(i)
	}
	return out
}

// Build replaces the world's contents with the named scenario. Switching
// scenario is a full reset.
func Build(w World, name Name) error {
	if int(name) >= len(builders) {
		return fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	w.Clear()
	builders[name](w)
	w.SetScenario(name.String())
	return nil
}

// TriangleStrip links consecutive bodies into a strip of triangles: the
// first two bodies, then every body to the two before it. Rest lengths are
// the current distances.
func TriangleStrip(w World, handles []body.Handle, link func(a, b body.Handle, rest float64)) {
	if len(handles) < 2 {
		return
	}
	dist := func(a, b body.Handle) float64 {
		return r2.Norm(r2.Sub(w.Body(a).Position, w.Body(b).Position))
	}

	link(handles[0], handles[1], dist(handles[0], handles[1]))
	for i := 2; i < len(handles); i++ {
		z := handles[i]
		for _, prev := range handles[i-2 : i] {
			link(z, prev, dist(z, prev))
		}
	}
}
