package repository

import (
	"context"
	"fmt"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	pkgkafka "PriceCast/pkg/kafka"
	"PriceCast/pkg/logger"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher emits forecast and training events keyed by run ID.
// It also serves as the log collector's sink.
type KafkaPublisher struct {
	producer      producer
	forecastTopic string
	trainingTopic string
}

// NewKafkaPublisher wraps p. Both topics are required.
func NewKafkaPublisher(p *pkgkafka.Producer, forecastTopic, trainingTopic string) (*KafkaPublisher, error) {
	return newKafkaPublisher(p, forecastTopic, trainingTopic)
}

func newKafkaPublisher(p producer, forecastTopic, trainingTopic string) (*KafkaPublisher, error) {
	if forecastTopic == "" || trainingTopic == "" {
		return nil, fmt.Errorf("kafka publisher: forecast and training topics are required")
	}
	return &KafkaPublisher{producer: p, forecastTopic: forecastTopic, trainingTopic: trainingTopic}, nil
}

func (k *KafkaPublisher) PublishForecast(ctx context.Context, ev models.ForecastEvent) error {
	return k.producer.Publish(ctx, k.forecastTopic, []byte(ev.RunID), ev)
}

func (k *KafkaPublisher) PublishTraining(ctx context.Context, ev models.TrainingEvent) error {
	return k.producer.Publish(ctx, k.trainingTopic, []byte(ev.RunID), ev)
}

// PublishMessage publishes an unkeyed payload to topic.
func (k *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.producer.Publish(ctx, topic, nil, payload)
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}

var (
	_ repository.EventPublisher = (*KafkaPublisher)(nil)
	_ logger.Publisher          = (*KafkaPublisher)(nil)
)
