package usecase

import (
	"context"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	"PriceCast/internal/services/dataset"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/ingest"
	applogger "PriceCast/pkg/logger"
)

// Pipeline runs the shared front half of training and inference:
// load, align, build features and optionally assemble.
type Pipeline struct {
	data      repository.MarketData
	aligner   *ingest.Aligner
	builder   *features.Builder
	assembler *dataset.Assembler
	metrics   repository.Metrics
	log       *applogger.Logger
}

func NewPipeline(
	data repository.MarketData,
	aligner *ingest.Aligner,
	builder *features.Builder,
	assembler *dataset.Assembler,
	metrics repository.Metrics,
	log *applogger.Logger,
) *Pipeline {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &Pipeline{
		data:      data,
		aligner:   aligner,
		builder:   builder,
		assembler: assembler,
		metrics:   metrics,
		log:       log,
	}
}

// Aligned loads both sources and joins them by date.
func (p *Pipeline) Aligned(ctx context.Context) ([]models.AlignedRow, error) {
	var (
		prices    []models.RawPrice
		sentiment []models.RawSentiment
	)
	err := p.stage("load", func() error {
		var err error
		if prices, err = p.data.Prices(ctx); err != nil {
			return err
		}
		sentiment, err = p.data.Sentiment(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var rows []models.AlignedRow
	err = p.stage("align", func() error {
		var err error
		rows, err = p.aligner.Align(prices, sentiment)
		return err
	})
	return rows, err
}

// Features returns the feature rows of the aligned history.
func (p *Pipeline) Features(ctx context.Context) ([]models.FeatureRow, error) {
	rows, err := p.Aligned(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.FeatureRow
	err = p.stage("features", func() error {
		var err error
		out, err = p.builder.Build(rows)
		return err
	})
	return out, err
}

// Dataset runs the full front half and returns the supervised set.
func (p *Pipeline) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	rows, err := p.Features(ctx)
	if err != nil {
		return nil, err
	}
	var ds *dataset.Dataset
	err = p.stage("assemble", func() error {
		var err error
		ds, err = p.assembler.Assemble(rows)
		return err
	})
	return ds, err
}

// stage times fn and records failures by kind.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.RecordStage(name, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordError(models.ErrorKind(err))
		p.log.Error("pipeline stage failed",
			applogger.String("stage", name),
			applogger.Error(err),
		)
	}
	return err
}

type nopMetrics struct{}

func (nopMetrics) RecordStage(string, float64)               {}
func (nopMetrics) RecordError(string)                        {}
func (nopMetrics) RecordForecast(string, []float64, float64) {}
func (nopMetrics) RecordSentimentDegraded(string)            {}
func (nopMetrics) RecordTraining(float64, float64, int)      {}
