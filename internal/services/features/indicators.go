package features

import (
	"math"

	"PriceCast/internal/domain/models"
)

// SimpleReturns computes r_t = C_t / C_{t-1} - 1. The first element, and any element
// whose inputs are null or whose previous close is zero, is null.
func SimpleReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i == 0 {
			out[i] = models.Null()
			continue
		}
		prev, cur := closes[i-1], closes[i]
		if models.IsNull(prev) || models.IsNull(cur) || prev == 0 {
			out[i] = models.Null()
			continue
		}
		out[i] = cur/prev - 1
	}
	return out
}

// RollingMean is the trailing simple moving average over window values inclusive.
// A position is null until the window holds window non-null values.
func RollingMean(xs []float64, window int) []float64 {
	return rolling(xs, window, func(w []float64) float64 {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		return sum / float64(len(w))
	})
}

// RollingStd is the trailing sample standard deviation (n-1 denominator) over window values.
func RollingStd(xs []float64, window int) []float64 {
	if window < 2 {
		out := make([]float64, len(xs))
		for i := range out {
			out[i] = models.Null()
		}
		return out
	}
	return rolling(xs, window, func(w []float64) float64 {
		n := float64(len(w))
		mean := 0.0
		for _, v := range w {
			mean += v
		}
		mean /= n
		ss := 0.0
		for _, v := range w {
			d := v - mean
			ss += d * d
		}
		return math.Sqrt(ss / (n - 1))
	})
}

func rolling(xs []float64, window int, agg func([]float64) float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if window <= 0 || i+1 < window {
			out[i] = models.Null()
			continue
		}
		w := xs[i+1-window : i+1]
		null := false
		for _, v := range w {
			if models.IsNull(v) {
				null = true
				break
			}
		}
		if null {
			out[i] = models.Null()
			continue
		}
		out[i] = agg(w)
	}
	return out
}

// ForwardFill replaces each null with the last non-null value before it.
func ForwardFill(xs []float64) {
	last := models.Null()
	for i, v := range xs {
		if models.IsNull(v) {
			xs[i] = last
			continue
		}
		last = v
	}
}

// FillMean replaces nulls with the mean of the non-null values. It reports false
// when the column has no values at all.
func FillMean(xs []float64) bool {
	sum, n := 0.0, 0
	for _, v := range xs {
		if !models.IsNull(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return false
	}
	mean := sum / float64(n)
	for i, v := range xs {
		if models.IsNull(v) {
			xs[i] = mean
		}
	}
	return true
}
