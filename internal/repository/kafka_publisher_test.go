package repository

import (
	"context"
	"testing"

	"PriceCast/internal/domain/models"
)

type sent struct {
	topic string
	key   string
	value interface{}
}

type fakeProducer struct {
	sent   []sent
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.sent = append(f.sent, sent{topic: topic, key: string(key), value: value})
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherRoutesByTopic(t *testing.T) {
	fp := &fakeProducer{}
	p, err := newKafkaPublisher(fp, "forecasts", "trainings")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	_ = p.PublishForecast(ctx, models.ForecastEvent{RunID: "f1"})
	_ = p.PublishTraining(ctx, models.TrainingEvent{RunID: "t1"})
	_ = p.PublishMessage(ctx, "logs", []string{"x"})
	_ = p.Close()

	if len(fp.sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(fp.sent))
	}
	if fp.sent[0].topic != "forecasts" || fp.sent[0].key != "f1" {
		t.Fatalf("forecast routed to %+v", fp.sent[0])
	}
	if fp.sent[1].topic != "trainings" || fp.sent[1].key != "t1" {
		t.Fatalf("training routed to %+v", fp.sent[1])
	}
	if fp.sent[2].topic != "logs" || fp.sent[2].key != "" {
		t.Fatalf("log batch routed to %+v", fp.sent[2])
	}
	if !fp.closed {
		t.Fatalf("producer not closed")
	}
}

func TestKafkaPublisherRequiresTopics(t *testing.T) {
	if _, err := newKafkaPublisher(&fakeProducer{}, "", "t"); err == nil {
		t.Fatalf("expected error for missing forecast topic")
	}
}
