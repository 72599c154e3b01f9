// Package analysis post-processes recorded runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of an energy
//     or coordinate series
//   - [MeasureDivergence]: separation growth of two nearby trajectories
//   - [Trace]: a body's path through the plane, printable with ToASCII
//
// # Sensitivity
//
// A positive divergence exponent indicates chaotic motion:
//
//	d, err := analysis.MeasureDivergence(cfg, 1, 1e-8, nil)
//	if err == nil && d.Exponent > 0 {
//	    // trajectories separate exponentially
//	}
package analysis
