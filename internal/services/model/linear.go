package model

import (
	"fmt"
	"math"
)

// Linear is least-squares regression with an intercept. A small ridge term keeps
// the normal equations solvable when features are collinear (ma5 and close often are).
type Linear struct {
	Ridge     float64   `json:"ridge"`
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

// NewLinear creates an untrained linear estimator.
func NewLinear(ridge float64) *Linear {
	if ridge < 0 {
		ridge = 0
	}
	return &Linear{Ridge: ridge}
}

func (l *Linear) Kind() string { return KindLinear }

// Fit solves (AᵀA + λI)w = Aᵀy on centered data, then recovers the intercept.
func (l *Linear) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return fmt.Errorf("linear fit: %d rows, %d targets", n, len(y))
	}
	d := len(X[0])

	xMean := make([]float64, d)
	yMean := 0.0
	for i, row := range X {
		for j, v := range row {
			xMean[j] += v
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	// augmented [AᵀA + λI | Aᵀy]
	m := make([][]float64, d)
	for j := range m {
		m[j] = make([]float64, d+1)
	}
	for i, row := range X {
		yc := y[i] - yMean
		for a := 0; a < d; a++ {
			xa := row[a] - xMean[a]
			for b := a; b < d; b++ {
				m[a][b] += xa * (row[b] - xMean[b])
			}
			m[a][d] += xa * yc
		}
	}
	for a := 0; a < d; a++ {
		for b := 0; b < a; b++ {
			m[a][b] = m[b][a]
		}
		m[a][a] += l.Ridge
	}

	coef, err := solve(m)
	if err != nil {
		return fmt.Errorf("linear fit: %w", err)
	}
	l.Coef = coef
	l.Intercept = yMean
	for j, c := range coef {
		l.Intercept -= c * xMean[j]
	}
	return nil
}

// Predict returns intercept + coef·x. An unfitted model predicts NaN.
func (l *Linear) Predict(x []float64) float64 {
	if l.Coef == nil {
		return math.NaN()
	}
	out := l.Intercept
	for j, c := range l.Coef {
		out += c * x[j]
	}
	return out
}

// solve runs Gauss-Jordan elimination with partial pivoting on an augmented matrix.
// Columns with a vanishing pivot get a zero coefficient.
func solve(m [][]float64) ([]float64, error) {
	d := len(m)
	for col := 0; col < d; col++ {
		pivot := col
		for r := col + 1; r < d; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		m[col], m[pivot] = m[pivot], m[col]
		if math.Abs(m[col][col]) < 1e-12 {
			continue
		}
		for r := 0; r < d; r++ {
			if r == col {
				continue
			}
			f := m[r][col] / m[col][col]
			if f == 0 {
				continue
			}
			for c := col; c <= d; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}
	out := make([]float64, d)
	for j := 0; j < d; j++ {
		if math.Abs(m[j][j]) < 1e-12 {
			continue
		}
		out[j] = m[j][d] / m[j][j]
		if math.IsNaN(out[j]) || math.IsInf(out[j], 0) {
			return nil, fmt.Errorf("singular system at column %d", j)
		}
	}
	return out, nil
}
