package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSingular indicates K could not be factorized: the constraints are
	// redundant or conflicting, or K is too ill-conditioned to trust.
	ErrSingular = errors.New("engine: constraint system is singular")

	// ErrNotConverged indicates conjugate gradient hit its iteration bound.
	ErrNotConverged = errors.New("engine: conjugate gradient did not converge")

	ErrUnknownVariant = errors.New("engine: unknown solver variant")
)

// TickError wraps a fatal solve failure with the tick it happened on.
type TickError struct {
	Tick    int
	Variant Variant
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d (%s): %v", e.Tick, e.Variant, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
