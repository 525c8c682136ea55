package model

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"PriceCast/internal/domain/models"
)

func synthetic(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		row := make([]float64, models.FeatureDim)
		for j := range row {
			row[j] = rng.Float64()
		}
		X[i] = row
		y[i] = 100 + 50*row[models.IdxClose] + 10*row[models.IdxMA5] - 5*row[models.IdxSentiment]
	}
	return X, y
}

func TestTrainChronologicalSplit(t *testing.T) {
	X, y := synthetic(50, 1)
	m := NewForecastModel(NewLinear(1e-9), 0.8)
	ev, err := m.Train(X, y)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if ev.TrainRows != 40 || len(ev.TestIndex) != 10 || ev.TestIndex[0] != 40 {
		t.Fatalf("unexpected split: train=%d test=%v", ev.TrainRows, ev.TestIndex)
	}
	if ev.Metrics.R2 < 0.999 {
		t.Fatalf("linear fit of a linear target should be near perfect, r2=%v", ev.Metrics.R2)
	}
}

func TestTrainErrors(t *testing.T) {
	m := NewForecastModel(NewLinear(0), 0.8)
	cases := []struct {
		name string
		X    [][]float64
		y    []float64
	}{
		{"empty", nil, nil},
		{"mismatch", [][]float64{{1}, {2}}, []float64{1}},
		{"too small", [][]float64{{1}}, []float64{1}},
	}
	for _, tc := range cases {
		if _, err := m.Train(tc.X, tc.y); !errors.Is(err, models.ErrTraining) {
			t.Fatalf("%s: expected ErrTraining, got %v", tc.name, err)
		}
	}
}

func TestPersistRoundTripForest(t *testing.T) {
	X, y := synthetic(120, 2)
	m := NewForecastModel(NewForest(WithTrees(15), WithMaxDepth(6)), 0.8)
	if _, err := m.Train(X, y); err != nil {
		t.Fatalf("train: %v", err)
	}
	b, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeForecastModel(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 0; i < 20; i++ {
		var v models.FeatureVector
		copy(v[:], X[i])
		a, _ := m.Predict(v)
		c, _ := back.Predict(v)
		if a != c {
			t.Fatalf("prediction %d differs after round trip: %v vs %v", i, a, c)
		}
	}
}

func TestPersistRoundTripLinear(t *testing.T) {
	X, y := synthetic(30, 3)
	m := NewForecastModel(NewLinear(1e-6), 0.8)
	if _, err := m.Train(X, y); err != nil {
		t.Fatalf("train: %v", err)
	}
	b, _ := m.Encode()
	back, err := DecodeForecastModel(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var v models.FeatureVector
	copy(v[:], X[0])
	a, _ := m.Predict(v)
	c, _ := back.Predict(v)
	if a != c {
		t.Fatalf("linear prediction differs: %v vs %v", a, c)
	}
}

func TestForestDeterministic(t *testing.T) {
	X, y := synthetic(80, 4)
	a := NewForest(WithTrees(10), WithSeed(42))
	b := NewForest(WithTrees(10), WithSeed(42))
	_ = a.Fit(X, y)
	_ = b.Fit(X, y)
	for i := range X {
		if a.Predict(X[i]) != b.Predict(X[i]) {
			t.Fatalf("same seed gave different predictions at row %d", i)
		}
	}
}

func TestForestFitsSignal(t *testing.T) {
	X, y := synthetic(300, 5)
	m := NewForecastModel(NewForest(WithTrees(30), WithMaxDepth(8)), 0.8)
	ev, err := m.Train(X, y)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if ev.Metrics.R2 < 0.5 {
		t.Fatalf("forest should explain most variance, r2=%v", ev.Metrics.R2)
	}
}

func TestPredictUntrained(t *testing.T) {
	m := NewForecastModel(NewForest(), 0.8)
	if _, err := m.Predict(models.FeatureVector{}); err == nil {
		t.Fatalf("expected error for untrained model")
	}
	if _, err := m.Encode(); err == nil {
		t.Fatalf("expected error encoding untrained model")
	}
}

func TestMetrics(t *testing.T) {
	if got := MeanSquaredError([]float64{1, 2, 3}, []float64{1, 2, 5}); math.Abs(got-4.0/3) > 1e-12 {
		t.Fatalf("mse = %v", got)
	}
	if got := RSquared([]float64{1, 2, 3}, []float64{1, 2, 3}); got != 1 {
		t.Fatalf("r2 perfect = %v", got)
	}
	if got := RSquared([]float64{2, 2}, []float64{1, 3}); got != 0 {
		t.Fatalf("r2 constant = %v", got)
	}
}

func TestNewEstimator(t *testing.T) {
	est, err := NewEstimator("forest", Params{Trees: 5, MaxDepth: 3, Seed: 1})
	if err != nil || est.Kind() != KindForest {
		t.Fatalf("forest: %v %v", est, err)
	}
	if _, err := NewEstimator("svm", Params{}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
