package features

import (
	"PriceCast/internal/domain/models"
	applogger "PriceCast/pkg/logger"
)

const stage = "features"

// Builder derives technical indicators from aligned rows.
type Builder struct {
	log         *applogger.Logger
	shortWindow int
	longWindow  int
	volWindow   int
}

// BuilderOption configures Builder.
type BuilderOption func(*Builder)

// WithWindows overrides the moving-average and volatility windows.
func WithWindows(short, long, vol int) BuilderOption {
	return func(b *Builder) {
		b.shortWindow = short
		b.longWindow = long
		b.volWindow = vol
	}
}

// NewBuilder creates a Builder with 5/10-row moving averages and 5-row volatility.
func NewBuilder(log *applogger.Logger, opts ...BuilderOption) *Builder {
	if log == nil {
		log = applogger.Nop()
	}
	b := &Builder{log: log, shortWindow: 5, longWindow: 10, volWindow: 5}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build computes the feature rows for rows (date ascending). Indicators are
// forward-filled, raw columns are mean-filled, then rows that still hold a null
// in the feature vector are dropped.
func (b *Builder) Build(rows []models.AlignedRow) ([]models.FeatureRow, error) {
	if len(rows) == 0 {
		return nil, models.NewPipelineError(models.ErrFeature, stage, "no input rows")
	}

	n := len(rows)
	open, high, low := make([]float64, n), make([]float64, n), make([]float64, n)
	closes, volume, sentiment := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, r := range rows {
		open[i], high[i], low[i] = r.Open, r.High, r.Low
		closes[i], volume[i], sentiment[i] = r.Close, r.Volume, r.SentimentScore
	}

	change := SimpleReturns(closes)
	ma5 := RollingMean(closes, b.shortWindow)
	ma10 := RollingMean(closes, b.longWindow)
	vol := RollingStd(change, b.volWindow)

	for _, col := range [][]float64{ma5, ma10, vol} {
		ForwardFill(col)
	}
	raw := []struct {
		name string
		xs   []float64
	}{
		{"open", open}, {"high", high}, {"low", low},
		{"close", closes}, {"volume", volume}, {"sentiment_score", sentiment},
	}
	for _, col := range raw {
		if !FillMean(col.xs) {
			return nil, models.NewPipelineError(models.ErrFeature, stage, "required column %q has no values", col.name)
		}
	}

	out := make([]models.FeatureRow, 0, n)
	for i, r := range rows {
		fr := models.FeatureRow{
			AlignedRow:     r,
			PriceChange:    change[i],
			PriceChangePct: change[i] * 100,
			MA5:            ma5[i],
			MA10:           ma10[i],
			Volatility:     vol[i],
		}
		fr.Open, fr.High, fr.Low = open[i], high[i], low[i]
		fr.Close, fr.Volume, fr.SentimentScore = closes[i], volume[i], sentiment[i]
		if fr.Vector().HasNull() {
			continue
		}
		out = append(out, fr)
	}

	if len(out) == 0 {
		return nil, models.NewPipelineError(models.ErrFeature, stage,
			"no rows left after cleaning %d input rows (need at least %d for the long moving average)", n, b.longWindow)
	}

	b.log.Debug("features built",
		applogger.Int("input_rows", n),
		applogger.Int("output_rows", len(out)),
		applogger.Int("dropped", n-len(out)),
	)
	return out, nil
}
