package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	"PriceCast/internal/services/dataset"
	"PriceCast/internal/services/forecast"
	"PriceCast/internal/services/model"
	applogger "PriceCast/pkg/logger"
)

// ErrInvalidDays marks a forecast horizon outside the allowed range.
var ErrInvalidDays = errors.New("invalid forecast horizon")

// ForecastConfig bounds the horizon and names the artifacts to load.
type ForecastConfig struct {
	DefaultDays int
	MaxDays     int
	NewsLimit   int
	ModelFile   string
	ScalerFile  string
}

// ForecastParams is one forecast request. A nil Days uses the configured
// default horizon; an explicit value is range checked as given. A nil
// SentimentScore means the score comes from the news feed.
type ForecastParams struct {
	Days           *int
	SentimentScore *float64
}

// ForecastUseCase serves recursive multi-day forecasts.
type ForecastUseCase struct {
	pipeline  *Pipeline
	store     repository.ArtifactStore
	news      *NewsUseCase
	recorder  repository.Recorder
	publisher repository.EventPublisher
	metrics   repository.Metrics
	cfg       ForecastConfig
	log       *applogger.Logger
	now       func() time.Time
}

func NewForecastUseCase(
	pipeline *Pipeline,
	store repository.ArtifactStore,
	news *NewsUseCase,
	recorder repository.Recorder,
	publisher repository.EventPublisher,
	metrics repository.Metrics,
	cfg ForecastConfig,
	log *applogger.Logger,
) *ForecastUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = applogger.Nop()
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 7
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 30
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = 10
	}
	return &ForecastUseCase{
		pipeline:  pipeline,
		store:     store,
		news:      news,
		recorder:  recorder,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Forecast loads the persisted artifacts, rebuilds the latest feature row and
// predicts the requested number of closes.
func (uc *ForecastUseCase) Forecast(ctx context.Context, p ForecastParams) (*models.Forecast, error) {
	days := uc.cfg.DefaultDays
	if p.Days != nil {
		days = *p.Days
	}
	if days < 1 || days > uc.cfg.MaxDays {
		return nil, models.WrapPipelineError(models.ErrForecast, "forecast", ErrInvalidDays,
			"days must be between 1 and %d, got %d", uc.cfg.MaxDays, days)
	}

	fm, scaler, err := uc.loadArtifacts(ctx)
	if err != nil {
		uc.metrics.RecordError(models.ErrorKind(err))
		return nil, err
	}

	rows, err := uc.pipeline.Features(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewPipelineError(models.ErrForecast, "forecast", "no feature rows to seed the forecast")
	}
	latest := rows[len(rows)-1]

	sent := uc.sentiment(ctx, p.SentimentScore)

	f, err := uc.newForecaster(fm, scaler)
	if err != nil {
		return nil, err
	}
	var path *forecast.Path
	err = uc.pipeline.stage("forecast", func() error {
		var err error
		path, err = f.Forecast(ctx, latest, sent.Score, days)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &models.Forecast{
		RunID:        uuid.NewString(),
		GeneratedAt:  uc.now().UTC(),
		Estimator:    fm.Kind(),
		Points:       path.Points,
		CurrentPrice: path.CurrentPrice,
		Sentiment:    sent,
	}
	payload := out.Payload()
	uc.metrics.RecordForecast(sent.Source, payload.Prices, sent.Score)
	if err := uc.recorder.RecordForecast(ctx, *out); err != nil {
		uc.log.Warn("record forecast", applogger.String("run_id", out.RunID), applogger.Error(err))
	}
	if err := uc.publisher.PublishForecast(ctx, models.NewForecastEvent(*out)); err != nil {
		uc.log.Warn("publish forecast event", applogger.String("run_id", out.RunID), applogger.Error(err))
	}
	return out, nil
}

func (uc *ForecastUseCase) sentiment(ctx context.Context, requested *float64) models.SentimentResult {
	if requested != nil {
		return models.SentimentResult{Score: models.ClampScore(*requested), Source: models.SentimentSourceRequest}
	}
	if uc.news == nil {
		uc.metrics.RecordSentimentDegraded("news_disabled")
		return models.Neutral("news_disabled")
	}
	res := uc.news.Sentiment(ctx, uc.cfg.NewsLimit)
	if res.Degraded && res.Reason == "news_unavailable" {
		uc.metrics.RecordSentimentDegraded(res.Reason)
	}
	return res
}

func (uc *ForecastUseCase) newForecaster(fm *model.ForecastModel, scaler *dataset.Scaler) (*forecast.Forecaster, error) {
	if fm == nil || scaler == nil {
		return nil, models.WrapPipelineError(models.ErrForecast, "forecast", models.ErrArtifactNotFound, "model or scaler not loaded")
	}
	return forecast.NewForecaster(fm, scaler, forecast.WithClock(uc.now), forecast.WithLogger(uc.log)), nil
}

func (uc *ForecastUseCase) loadArtifacts(ctx context.Context) (*model.ForecastModel, *dataset.Scaler, error) {
	sb, err := uc.store.Get(ctx, uc.cfg.ScalerFile)
	if err != nil {
		return nil, nil, models.WrapPipelineError(models.ErrForecast, "load_artifacts", err, "read scaler")
	}
	scaler, err := dataset.DecodeScaler(sb)
	if err != nil {
		return nil, nil, models.WrapPipelineError(models.ErrForecast, "load_artifacts", err, "decode scaler")
	}
	mb, err := uc.store.Get(ctx, uc.cfg.ModelFile)
	if err != nil {
		return nil, nil, models.WrapPipelineError(models.ErrForecast, "load_artifacts", err, "read model")
	}
	fm, err := model.DecodeForecastModel(mb)
	if err != nil {
		return nil, nil, models.WrapPipelineError(models.ErrForecast, "load_artifacts", err, "decode model")
	}
	return fm, scaler, nil
}
