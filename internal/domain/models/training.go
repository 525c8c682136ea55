package models

import "time"

// EvalMetrics are computed on the chronological test tail.
type EvalMetrics struct {
	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`
}

// EvaluationReport is persisted after each training run and served as the predictions history.
type EvaluationReport struct {
	RunID           string    `json:"runId"`
	TrainedAt       time.Time `json:"trainedAt"`
	Estimator       string    `json:"estimator"`
	TrainRows       int       `json:"trainRows"`
	TestRows        int       `json:"testRows"`
	TestDates       []string  `json:"test_dates"`
	ActualPrices    []float64 `json:"actual_prices"`
	PredictedPrices []float64 `json:"predicted_prices"`
	MSE             float64   `json:"mse"`
	R2              float64   `json:"r2"`
}

// TrainingRun summarizes a completed training run for the recorder and event stream.
type TrainingRun struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Estimator  string
	Rows       int
	Metrics    EvalMetrics
	Trigger    string
}
