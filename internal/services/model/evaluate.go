package model

import "PriceCast/internal/domain/models"

// MeanSquaredError of predictions against actuals.
func MeanSquaredError(actual, pred []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	s := 0.0
	for i := range actual {
		d := actual[i] - pred[i]
		s += d * d
	}
	return s / float64(len(actual))
}

// RSquared is the coefficient of determination. A constant actual series scores 1
// when predicted exactly and 0 otherwise.
func RSquared(actual, pred []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	m := 0.0
	for _, v := range actual {
		m += v
	}
	m /= float64(len(actual))
	ssRes, ssTot := 0.0, 0.0
	for i, v := range actual {
		ssRes += (v - pred[i]) * (v - pred[i])
		ssTot += (v - m) * (v - m)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Evaluate scores pred against actual.
func Evaluate(actual, pred []float64) models.EvalMetrics {
	return models.EvalMetrics{MSE: MeanSquaredError(actual, pred), R2: RSquared(actual, pred)}
}
