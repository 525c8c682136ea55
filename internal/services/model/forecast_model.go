package model

import (
	"encoding/json"
	"fmt"

	"PriceCast/internal/domain/models"
)

const (
	stageTrain     = "train"
	artifactKind   = "pricecast.model"
	artifactFormat = 1
)

// Evaluation is the held-out result of a training run. TestIndex holds the row
// positions of the test tail in the input matrix.
type Evaluation struct {
	Metrics   models.EvalMetrics
	TrainRows int
	TestIndex []int
	Actual    []float64
	Predicted []float64
}

// ForecastModel wraps an Estimator with a chronological train/test protocol.
type ForecastModel struct {
	est        Estimator
	trainRatio float64
	fitted     bool
}

// NewForecastModel wraps est. trainRatio outside (0,1) falls back to 0.8.
func NewForecastModel(est Estimator, trainRatio float64) *ForecastModel {
	if trainRatio <= 0 || trainRatio >= 1 {
		trainRatio = 0.8
	}
	return &ForecastModel{est: est, trainRatio: trainRatio}
}

// Kind returns the wrapped estimator kind.
func (m *ForecastModel) Kind() string { return m.est.Kind() }

// Train fits on the first trainRatio of the rows in their given order and scores
// on the rest. Rows are never shuffled.
func (m *ForecastModel) Train(X [][]float64, y []float64) (*Evaluation, error) {
	if len(X) == 0 || len(y) == 0 {
		return nil, models.NewPipelineError(models.ErrTraining, stageTrain, "empty training set")
	}
	if len(X) != len(y) {
		return nil, models.NewPipelineError(models.ErrTraining, stageTrain, "X has %d rows but y has %d", len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return nil, models.NewPipelineError(models.ErrTraining, stageTrain, "row %d has %d features, want %d", i, len(row), width)
		}
	}

	split := int(m.trainRatio * float64(len(X)))
	if split < 1 || split >= len(X) {
		return nil, models.NewPipelineError(models.ErrTraining, stageTrain,
			"%d rows cannot be split %.0f/%.0f into non-empty train and test sets", len(X), m.trainRatio*100, (1-m.trainRatio)*100)
	}

	if err := m.est.Fit(X[:split], y[:split]); err != nil {
		return nil, models.WrapPipelineError(models.ErrTraining, stageTrain, err, "fit %s", m.est.Kind())
	}
	m.fitted = true

	ev := &Evaluation{
		TrainRows: split,
		TestIndex: make([]int, 0, len(X)-split),
		Actual:    make([]float64, 0, len(X)-split),
		Predicted: make([]float64, 0, len(X)-split),
	}
	for i := split; i < len(X); i++ {
		ev.TestIndex = append(ev.TestIndex, i)
		ev.Actual = append(ev.Actual, y[i])
		ev.Predicted = append(ev.Predicted, m.est.Predict(X[i]))
	}
	ev.Metrics = Evaluate(ev.Actual, ev.Predicted)
	return ev, nil
}

// Predict returns the estimate for one scaled feature vector.
func (m *ForecastModel) Predict(scaled models.FeatureVector) (float64, error) {
	if !m.fitted {
		return 0, fmt.Errorf("model %s is not trained", m.est.Kind())
	}
	return m.est.Predict(scaled[:]), nil
}

type envelope struct {
	Kind      string          `json:"kind"`
	Format    int             `json:"format"`
	Estimator string          `json:"estimator"`
	Features  []string        `json:"features"`
	State     json.RawMessage `json:"state"`
}

// Encode serializes the fitted estimator. Go's float formatting round-trips exactly,
// so a decoded model predicts bit-identically.
func (m *ForecastModel) Encode() ([]byte, error) {
	if !m.fitted {
		return nil, fmt.Errorf("encode model: %s is not trained", m.est.Kind())
	}
	state, err := json.Marshal(m.est)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return json.Marshal(envelope{
		Kind:      artifactKind,
		Format:    artifactFormat,
		Estimator: m.est.Kind(),
		Features:  models.FeatureNames[:],
		State:     state,
	})
}

// DecodeForecastModel restores a model written by Encode.
func DecodeForecastModel(b []byte) (*ForecastModel, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if env.Kind != artifactKind {
		return nil, fmt.Errorf("decode model: unexpected kind %q", env.Kind)
	}
	if env.Format != artifactFormat {
		return nil, fmt.Errorf("decode model: unsupported format %d", env.Format)
	}
	if len(env.Features) != models.FeatureDim {
		return nil, fmt.Errorf("decode model: %d features, want %d", len(env.Features), models.FeatureDim)
	}
	est, err := decodeEstimator(env.Estimator, env.State)
	if err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &ForecastModel{est: est, trainRatio: 0.8, fitted: true}, nil
}
