package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	stageLatency    *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	forecastPrice   *prometheus.GaugeVec
	forecastsTotal  *prometheus.CounterVec
	sentimentScore  prometheus.Gauge
	sentimentDegr   *prometheus.CounterVec
	trainingMetrics *prometheus.GaugeVec
	trainingRows    prometheus.Gauge
}

var (
	defaultRecorder *Recorder
	defaultOnce     sync.Once
)

// New returns the process-wide Prometheus recorder. Collectors are registered
// on the default registry once, so repeated calls share them.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = newRecorder(promauto.With(prometheus.DefaultRegisterer))
	})
	return defaultRecorder
}

// NewWithRegistry registers collectors on reg; used by tests.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	return newRecorder(promauto.With(reg))
}

func newRecorder(f promauto.Factory) *Recorder {
	return &Recorder{
		stageLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecast_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_errors_total",
				Help: "Total number of pipeline errors by kind",
			},
			[]string{"kind"},
		),
		forecastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricecast_forecast_price",
				Help: "Most recent forecast price by horizon step",
			},
			[]string{"step"},
		),
		forecastsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_forecasts_total",
				Help: "Total forecasts produced",
			},
			[]string{"source"},
		),
		sentimentScore: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "pricecast_sentiment_score",
				Help: "Last sentiment score used for a forecast",
			},
		),
		sentimentDegr: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_sentiment_degraded_total",
				Help: "Sentiment lookups that fell back to neutral",
			},
			[]string{"reason"},
		),
		trainingMetrics: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricecast_training_metric",
				Help: "Evaluation metrics of the last training run",
			},
			[]string{"metric"},
		),
		trainingRows: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "pricecast_training_rows",
				Help: "Number of supervised rows in the last training run",
			},
		),
	}
}

// RecordStage records the latency of a pipeline stage in seconds.
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordForecast stores the price path of the latest forecast.
func (r *Recorder) RecordForecast(source string, prices []float64, sentiment float64) {
	r.forecastsTotal.WithLabelValues(source).Inc()
	r.sentimentScore.Set(sentiment)
	r.forecastPrice.Reset()
	for i, p := range prices {
		r.forecastPrice.WithLabelValues(stepLabel(i + 1)).Set(p)
	}
}

// RecordSentimentDegraded counts neutral fallbacks.
func (r *Recorder) RecordSentimentDegraded(reason string) {
	r.sentimentDegr.WithLabelValues(reason).Inc()
}

// RecordTraining stores the evaluation of the last training run.
func (r *Recorder) RecordTraining(mse, r2 float64, rows int) {
	r.trainingMetrics.WithLabelValues("mse").Set(mse)
	r.trainingMetrics.WithLabelValues("r2").Set(r2)
	r.trainingRows.Set(float64(rows))
}

func stepLabel(i int) string {
	if i < 10 {
		return "0" + string(rune('0'+i))
	}
	return string(rune('0'+i/10)) + string(rune('0'+i%10))
}
