package repository

import (
	"context"

	"PriceCast/internal/domain/models"
)

// MarketData yields the raw price and sentiment records for one pipeline run.
type MarketData interface {
	Prices(ctx context.Context) ([]models.RawPrice, error)
	Sentiment(ctx context.Context) ([]models.RawSentiment, error)
}

// ArtifactStore persists named training artifacts. Put must replace atomically so
// readers never observe a partial write. Get returns models.ErrArtifactNotFound for
// unknown names.
type ArtifactStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

// Recorder keeps the history of training and forecast runs.
type Recorder interface {
	RecordTraining(ctx context.Context, run models.TrainingRun) error
	RecordForecast(ctx context.Context, f models.Forecast) error
	Close() error
}

// EventPublisher emits domain events to downstream consumers.
type EventPublisher interface {
	PublishForecast(ctx context.Context, ev models.ForecastEvent) error
	PublishTraining(ctx context.Context, ev models.TrainingEvent) error
	Close() error
}

// Metrics records pipeline observability signals.
type Metrics interface {
	RecordStage(stage string, seconds float64)
	RecordError(kind string)
	RecordForecast(source string, prices []float64, sentiment float64)
	RecordSentimentDegraded(reason string)
	RecordTraining(mse, r2 float64, rows int)
}
