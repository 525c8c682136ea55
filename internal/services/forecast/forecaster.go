package forecast

import (
	"context"
	"math"
	"time"

	"PriceCast/internal/domain/models"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

const stage = "forecast"

// Predictor maps a scaled feature vector to a next-day close.
type Predictor interface {
	Predict(scaled models.FeatureVector) (float64, error)
}

// Transformer applies a fitted scaling. It is never refit here.
type Transformer interface {
	Transform(v models.FeatureVector) models.FeatureVector
}

// Path is the outcome of a recursive forecast.
type Path struct {
	Points       []models.ForecastPoint
	CurrentPrice float64
	// Inputs holds the unscaled vector fed to the model at each step.
	Inputs []models.FeatureVector
}

// Forecaster produces multi-day price paths by feeding each prediction back as
// the next day's close.
type Forecaster struct {
	model  Predictor
	scaler Transformer
	now    func() time.Time
	log    *applogger.Logger
}

// Option configures Forecaster.
type Option func(*Forecaster)

// WithClock sets the source of the forecast start date.
func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) {
		f.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(f *Forecaster) {
		if l != nil {
			f.log = l
		}
	}
}

// NewForecaster creates a Forecaster over a trained model and its fitted scaler.
// Both must be non-nil.
func NewForecaster(model Predictor, scaler Transformer, opts ...Option) *Forecaster {
	f := &Forecaster{model: model, scaler: scaler, now: time.Now, log: applogger.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Step builds the next input from the previous one: only close changes.
func Step(prev models.FeatureVector, predictedClose float64) models.FeatureVector {
	return prev.WithClose(predictedClose)
}

// Forecast predicts days closes starting tomorrow. The seed is latest's vector with
// the sentiment dimension replaced by sentiment; open, high, low, volume, the moving
// averages, volatility and sentiment then stay fixed for the whole horizon.
func (f *Forecaster) Forecast(ctx context.Context, latest models.FeatureRow, sentiment float64, days int) (*Path, error) {
	if days < 1 {
		return nil, models.NewPipelineError(models.ErrForecast, stage, "days must be a positive integer, got %d", days)
	}

	current := latest.Vector().WithSentiment(models.ClampScore(sentiment))
	if current.HasNull() {
		return nil, models.NewPipelineError(models.ErrForecast, stage, "seed feature vector has a null dimension")
	}

	today := util.TruncateDay(f.now())
	path := &Path{
		Points:       make([]models.ForecastPoint, 0, days),
		CurrentPrice: latest.Close,
		Inputs:       make([]models.FeatureVector, 0, days),
	}
	for i := 1; i <= days; i++ {
		if err := ctx.Err(); err != nil {
			return nil, models.WrapPipelineError(models.ErrForecast, stage, err, "cancelled at step %d", i)
		}
		path.Inputs = append(path.Inputs, current)

		pred, err := f.model.Predict(f.scaler.Transform(current))
		if err != nil {
			return nil, models.WrapPipelineError(models.ErrForecast, stage, err, "predict step %d", i)
		}
		if math.IsNaN(pred) || math.IsInf(pred, 0) {
			return nil, models.NewPipelineError(models.ErrForecast, stage, "step %d produced a non-finite price", i)
		}

		path.Points = append(path.Points, models.ForecastPoint{Date: today.AddDate(0, 0, i), Price: pred})
		current = Step(current, pred)
	}

	f.log.Debug("forecast produced",
		applogger.Int("days", days),
		applogger.Float64("current_price", path.CurrentPrice),
		applogger.Float64("final_price", path.Points[len(path.Points)-1].Price),
	)
	return path, nil
}
