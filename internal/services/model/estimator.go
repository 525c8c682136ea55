package model

import (
	"encoding/json"
	"fmt"
)

// Estimator is a trainable regression function.
type Estimator interface {
	// Kind identifies the estimator in persisted artifacts.
	Kind() string
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
}

// Estimator kinds.
const (
	KindForest = "random_forest"
	KindLinear = "linear"
)

// Params configures estimator construction.
type Params struct {
	Trees    int
	MaxDepth int
	MinSplit int
	Seed     int64
	Ridge    float64
}

// NewEstimator builds an untrained estimator of the given kind.
func NewEstimator(kind string, p Params) (Estimator, error) {
	switch kind {
	case KindForest, "forest":
		return NewForest(
			WithTrees(p.Trees),
			WithMaxDepth(p.MaxDepth),
			WithMinSplit(p.MinSplit),
			WithSeed(p.Seed),
		), nil
	case KindLinear:
		return NewLinear(p.Ridge), nil
	default:
		return nil, fmt.Errorf("unknown estimator kind %q", kind)
	}
}

// decodeEstimator restores the estimator state written under kind.
func decodeEstimator(kind string, payload json.RawMessage) (Estimator, error) {
	var est Estimator
	switch kind {
	case KindForest:
		est = &Forest{}
	case KindLinear:
		est = &Linear{}
	default:
		return nil, fmt.Errorf("unknown estimator kind %q", kind)
	}
	if err := json.Unmarshal(payload, est); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return est, nil
}
