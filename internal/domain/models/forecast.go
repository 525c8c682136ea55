package models

import "time"

// ForecastPoint is one day of a forecast path.
type ForecastPoint struct {
	Date  time.Time
	Price float64
}

// Forecast is a recursive multi-day price path.
type Forecast struct {
	RunID        string
	GeneratedAt  time.Time
	Estimator    string
	Points       []ForecastPoint
	CurrentPrice float64
	Sentiment    SentimentResult
}

// ForecastPayload is the wire form of a Forecast.
type ForecastPayload struct {
	RunID             string    `json:"runId,omitempty"`
	Dates             []string  `json:"dates"`
	Prices            []float64 `json:"prices"`
	CurrentPrice      float64   `json:"currentPrice"`
	SentimentScore    float64   `json:"sentimentScore"`
	SentimentDegraded bool      `json:"sentimentDegraded"`
	SentimentSource   string    `json:"sentimentSource"`
}

// Payload renders f with ISO calendar dates.
func (f Forecast) Payload() ForecastPayload {
	p := ForecastPayload{
		RunID:             f.RunID,
		Dates:             make([]string, len(f.Points)),
		Prices:            make([]float64, len(f.Points)),
		CurrentPrice:      f.CurrentPrice,
		SentimentScore:    f.Sentiment.Score,
		SentimentDegraded: f.Sentiment.Degraded,
		SentimentSource:   f.Sentiment.Source,
	}
	for i, pt := range f.Points {
		p.Dates[i] = pt.Date.UTC().Format("2006-01-02")
		p.Prices[i] = pt.Price
	}
	return p
}
