package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// factorization holds a Cholesky factor of K, or an LU factor when K is
// not numerically positive definite.
type factorization struct {
	chol  mat.Cholesky
	lu    mat.LU
	useLU bool
}

func factorize(k *mat.SymDense) (*factorization, error) {
	f := &factorization{}
	if f.chol.Factorize(k) {
		return f, nil
	}

	f.lu.Factorize(k)
	if c := f.lu.Cond(); math.IsInf(c, 1) || math.IsNaN(c) || c > mat.ConditionTolerance {
		return nil, fmt.Errorf("%w: condition number %g", ErrSingular, c)
	}
	f.useLU = true
	return f, nil
}

func (f *factorization) solve(b *mat.VecDense) (*mat.VecDense, error) {
	x := mat.NewVecDense(b.Len(), nil)
	var err error
	if f.useLU {
		err = f.lu.SolveVecTo(x, false, b)
	} else {
		err = f.chol.SolveVecTo(x, b)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return x, nil
}
