package engine

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// conjugateGradient solves k·x = b in place, starting from the contents of x.
// It returns the number of iterations taken, and ErrNotConverged if the
// residual norm is still above tol after maxIter iterations.
func conjugateGradient(k mat.Symmetric, b, x *mat.VecDense, tol float64, maxIter int) (int, error) {
	var r, p, kp mat.VecDense
	r.MulVec(k, x)
	r.SubVec(b, &r)

	rr := mat.Dot(&r, &r)
	if math.Sqrt(rr) < tol {
		return 0, nil
	}
	p.CloneFromVec(&r)

	for i := 1; i <= maxIter; i++ {
		kp.MulVec(k, &p)
		curv := mat.Dot(&p, &kp)
		if curv <= 0 {
			return i, ErrSingular
		}
		alpha := rr / curv
		x.AddScaledVec(x, alpha, &p)
		r.AddScaledVec(&r, -alpha, &kp)

		next := mat.Dot(&r, &r)
		if math.Sqrt(next) < tol {
			return i, nil
		}
		p.AddScaledVec(&r, next/rr, &p)
		rr = next
	}
	return maxIter, ErrNotConverged
}
