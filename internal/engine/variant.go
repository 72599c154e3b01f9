package engine

import (
	"fmt"
	"strings"
)

// Variant selects the integration and correction strategy used by Solve.
type Variant uint8

const (
	FirstOrder Variant = iota
	SecondOrder
	FirstOrderWithPrepass
	HybridV2
	HybridV3
	HybridV3CG
	HybridV4
	PBD
	HybridV3PBD
)

var variantNames = [...]string{
	FirstOrder:            "first_order",
	SecondOrder:           "second_order",
	FirstOrderWithPrepass: "first_order_prepass",
	HybridV2:              "hybrid_v2",
	HybridV3:              "hybrid_v3",
	HybridV3CG:            "hybrid_v3_cg",
	HybridV4:              "hybrid_v4",
	PBD:                   "pbd",
	HybridV3PBD:           "hybrid_v3_pbd",
}

var variantDescriptions = [...]string{
	FirstOrder:            "impulse solve on -Jq̇, explicit Euler",
	SecondOrder:           "force-level solve, second-order Taylor step",
	FirstOrderWithPrepass: "force pass then velocity pass on one factorization",
	HybridV2:              "velocity pass then force pass, Verlet",
	HybridV3:              "velocity solve with half-step curvature bias",
	HybridV3CG:            "hybrid v3 solved by warm-started conjugate gradient",
	HybridV4:              "hybrid v3 plus Δt²/6 jerk bias",
	PBD:                   "Verlet predict, positional projection",
	HybridV3PBD:           "hybrid v3 followed by a positional patch",
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// Description is a one-line summary for listings.
func (v Variant) Description() string {
	if int(v) < len(variantDescriptions) {
		return variantDescriptions[v]
	}
	return ""
}

// ParseVariant accepts the names printed by String, case-insensitively.
// Dashes are treated as underscores.
func ParseVariant(s string) (Variant, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range variantNames {
		if name == key {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Variants lists every variant in declaration order.
func Variants() []Variant {
	out := make([]Variant, len(variantNames))
	for i := range out {
		out[i] = Variant(i)
	}
	return out
}

// Next cycles to the following variant, wrapping around.
func (v Variant) Next() Variant {
	return Variant((int(v) + 1) % len(variantNames))
}
