package models

import "time"

// ForecastEvent is published after every served forecast.
type ForecastEvent struct {
	RunID             string    `json:"run_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	Estimator         string    `json:"estimator"`
	Days              int       `json:"days"`
	CurrentPrice      float64   `json:"current_price"`
	Dates             []string  `json:"dates"`
	Prices            []float64 `json:"prices"`
	SentimentScore    float64   `json:"sentiment_score"`
	SentimentDegraded bool      `json:"sentiment_degraded"`
}

// TrainingEvent is published after every successful training run.
type TrainingEvent struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	Estimator  string    `json:"estimator"`
	Rows       int       `json:"rows"`
	MSE        float64   `json:"mse"`
	R2         float64   `json:"r2"`
	Trigger    string    `json:"trigger"`
}

// NewForecastEvent builds the event for f.
func NewForecastEvent(f Forecast) ForecastEvent {
	p := f.Payload()
	return ForecastEvent{
		RunID:             f.RunID,
		GeneratedAt:       f.GeneratedAt,
		Estimator:         f.Estimator,
		Days:              len(f.Points),
		CurrentPrice:      f.CurrentPrice,
		Dates:             p.Dates,
		Prices:            p.Prices,
		SentimentScore:    f.Sentiment.Score,
		SentimentDegraded: f.Sentiment.Degraded,
	}
}

// NewTrainingEvent builds the event for run.
func NewTrainingEvent(run TrainingRun) TrainingEvent {
	return TrainingEvent{
		RunID:      run.RunID,
		FinishedAt: run.FinishedAt,
		Estimator:  run.Estimator,
		Rows:       run.Rows,
		MSE:        run.Metrics.MSE,
		R2:         run.Metrics.R2,
		Trigger:    run.Trigger,
	}
}
