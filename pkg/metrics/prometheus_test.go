package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRecorderRegistersOnCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)
	r.RecordStage("features", 0.01)
	r.RecordError("forecast")
	r.RecordForecast("model", []float64{1, 2, 3}, 0.2)
	r.RecordSentimentDegraded("timeout")
	r.RecordTraining(4.5, 0.9, 100)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"pricecast_stage_duration_seconds",
		"pricecast_errors_total",
		"pricecast_forecast_price",
		"pricecast_sentiment_degraded_total",
		"pricecast_training_metric",
	} {
		if !names[want] {
			t.Fatalf("metric %s not registered", want)
		}
	}
}

func TestStepLabel(t *testing.T) {
	if stepLabel(3) != "03" || stepLabel(12) != "12" || stepLabel(30) != "30" {
		t.Fatalf("unexpected labels %s %s %s", stepLabel(3), stepLabel(12), stepLabel(30))
	}
}
