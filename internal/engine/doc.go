// Package engine assembles and solves the constraint system once per tick.
//
// An [Engine] owns a body store, an ordered constraint list and optional
// springs. Each call to [Engine.Solve] builds
//
//   - J: the M×2N constraint Jacobian
//   - M⁻¹: the 2N×2N diagonal inverse mass
//   - K = J·M⁻¹·Jᵗ, symmetrised
//   - C, Ċ, J̇q̇ and the jerk term, evaluated analytically per constraint
//
// and then integrates with the active [Variant]. K is factorized with
// Cholesky, falling back to LU; a singular K fails the tick with
// [ErrSingular].
//
// # Example
//
//	eng := engine.New(1.0/120, engine.WithLogger(logger))
//	if err := scenario.Build(eng, scenario.Double); err != nil {
//	    return err
//	}
//	for {
//	    if err := eng.Solve(); err != nil {
//	        return err
//	    }
//	    snap := eng.TakeSnapshot()
//	    render(snap)
//	}
//
// # Thread Safety
//
// Engine is NOT thread-safe. The worker package drives one engine from a
// single goroutine and hands out [Snapshot] values, which share no memory
// with the engine.
package engine
