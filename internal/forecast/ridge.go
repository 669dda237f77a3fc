package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// linearModel is a fitted ridge regression. The intercept is not penalised.
type linearModel struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// fitRidge solves (XcᵀXc + λI)β = Xcᵀyc on column-centred data
func fitRidge(x *mat.Dense, y []float64, lambda float64) (*linearModel, error) {
	n, p := x.Dims()
	if n == 0 {
		return nil, errors.New("no rows to fit")
	}

	means := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		means[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	xc := mat.NewDense(n, p, nil)
	xc.Apply(func(_, j int, v float64) float64 { return v - means[j] }, x)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - yMean
	}

	a := mat.NewSymDense(p, nil)
	a.SymOuterK(1, xc.T())
	for i := 0; i < p; i++ {
		a.SetSym(i, i, a.At(i, i)+lambda)
	}

	var b mat.VecDense
	b.MulVec(xc.T(), mat.NewVecDense(n, yc))

	var beta mat.VecDense
	var chol mat.Cholesky
	if chol.Factorize(a) {
		if err := chol.SolveVecTo(&beta, &b); err != nil {
			return nil, fmt.Errorf("cholesky solve: %w", err)
		}
	} else if err := beta.SolveVec(a, &b); err != nil {
		return nil, fmt.Errorf("least squares solve: %w", err)
	}

	coef := make([]float64, p)
	for j := range coef {
		coef[j] = beta.AtVec(j)
	}
	return &linearModel{
		Coef:      coef,
		Intercept: yMean - floats.Dot(means, coef),
	}, nil
}

// predict returns a non-negative quantity estimate for one feature vector
func (m *linearModel) predict(features []float64) float64 {
	return math.Max(0, m.Intercept+floats.Dot(m.Coef, features))
}

// rSquared scores estimates against observations. A constant target scores
// 1 when predicted exactly and 0 otherwise.
func rSquared(estimates, values []float64) float64 {
	r2 := stat.RSquaredFrom(estimates, values, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		for i := range values {
			if math.Abs(values[i]-estimates[i]) > 1e-12 {
				return 0
			}
		}
		return 1
	}
	return r2
}
