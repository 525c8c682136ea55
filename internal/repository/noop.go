package repository

import (
	"context"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
)

// NoopRecorder discards run history.
type NoopRecorder struct{}

func (NoopRecorder) RecordTraining(context.Context, models.TrainingRun) error { return nil }
func (NoopRecorder) RecordForecast(context.Context, models.Forecast) error    { return nil }
func (NoopRecorder) Close() error                                             { return nil }

// NoopPublisher drops events when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishForecast(context.Context, models.ForecastEvent) error { return nil }
func (NoopPublisher) PublishTraining(context.Context, models.TrainingEvent) error { return nil }
func (NoopPublisher) Close() error                                                { return nil }

var (
	_ repository.Recorder       = NoopRecorder{}
	_ repository.EventPublisher = NoopPublisher{}
)
