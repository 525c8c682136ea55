package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/service/ratelimit"
	"PriceCast/internal/usecase"
	xhttp "PriceCast/pkg/http"
	xlogger "PriceCast/pkg/logger"
)

// Forecaster produces a multi-day forecast.
type Forecaster interface {
	Forecast(ctx context.Context, p usecase.ForecastParams) (*models.Forecast, error)
}

// Trainer runs one training pass.
type Trainer interface {
	Train(ctx context.Context, trigger string) (*models.EvaluationReport, error)
}

// History reads aligned history and the last evaluation report.
type History interface {
	Prices(ctx context.Context, limit int) ([]models.PricePoint, error)
	Sentiment(ctx context.Context, limit int) ([]models.SentimentPoint, error)
	Evaluation(ctx context.Context) (*models.EvaluationReport, error)
}

// News returns the latest headlines with their aggregated sentiment.
type News interface {
	Digest(ctx context.Context, limit int) (*models.NewsDigest, error)
}

// PredictRequest is the body of POST /api/bitcoin/predict. Days is defaulted
// only when absent; an explicit 0 is rejected.
type PredictRequest struct {
	Days           *int     `json:"days" default:"7" validate:"required,min=1,max=30"`
	SentimentScore *float64 `json:"sentiment_score" validate:"omitempty,gte=-1,lte=1"`
}

// RateLimit configures the token bucket on the predict and train routes.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// ForecastEchoHandler serves the price history, forecasts, news and training.
type ForecastEchoHandler struct {
	logger    *xlogger.Logger
	forecast  Forecaster
	trainer   Trainer
	history   History
	news      News
	newsLimit int
	limiter   *ratelimit.Limiter
	rate      RateLimit
}

func NewForecastEchoHandler(
	logger *xlogger.Logger,
	forecast Forecaster,
	trainer Trainer,
	history History,
	news News,
	newsLimit int,
	rate RateLimit,
) *ForecastEchoHandler {
	if newsLimit <= 0 {
		newsLimit = 10
	}
	return &ForecastEchoHandler{
		logger:    logger,
		forecast:  forecast,
		trainer:   trainer,
		history:   history,
		news:      news,
		newsLimit: newsLimit,
		limiter:   ratelimit.New(),
		rate:      rate,
	}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	limited := h.limiter.Middleware(h.rate.Capacity, h.rate.RefillPerSec)

	g := e.Group("/api")
	g.GET("/bitcoin/prices", h.Prices)
	g.GET("/bitcoin/sentiment", h.Sentiment)
	g.GET("/bitcoin/predictions", h.Predictions)
	g.POST("/bitcoin/predict", h.Predict, limited)
	g.GET("/news", h.News)
	g.POST("/model/train", h.Train, limited)
}

func (h *ForecastEchoHandler) Prices(c echo.Context) error {
	limit, aerr := xhttp.QueryLimit(c, 0, 0)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	res, err := h.history.Prices(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, "prices", err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

func (h *ForecastEchoHandler) Sentiment(c echo.Context) error {
	limit, aerr := xhttp.QueryLimit(c, 0, 0)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	res, err := h.history.Sentiment(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, "sentiment", err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

func (h *ForecastEchoHandler) Predictions(c echo.Context) error {
	res, err := h.history.Evaluation(c.Request().Context())
	if errors.Is(err, models.ErrArtifactNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no evaluation report yet, train the model first").WithError(err))
	}
	if err != nil {
		return h.fail(c, "predictions", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	f, err := h.forecast.Forecast(c.Request().Context(), usecase.ForecastParams{
		Days:           req.Days,
		SentimentScore: req.SentimentScore,
	})
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, f.Payload())
}

func (h *ForecastEchoHandler) News(c echo.Context) error {
	limit, aerr := xhttp.QueryLimit(c, h.newsLimit, 50)
	if aerr != nil {
		return xhttp.AppErrorResponse(c, aerr)
	}
	d, err := h.news.Digest(c.Request().Context(), limit)
	if err != nil {
		h.logger.Warn("news digest failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_UPSTREAM", "", "news feed unavailable", http.StatusBadGateway).WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, d)
}

func (h *ForecastEchoHandler) Train(c echo.Context) error {
	report, err := h.trainer.Train(c.Request().Context(), usecase.TriggerManual)
	if err != nil {
		return h.fail(c, "train", err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ForecastEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := MapError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", xlogger.Error(err))
	} else {
		h.logger.Warn(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// MapError translates pipeline failures into transport errors.
func MapError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, usecase.ErrTrainingInProgress):
		return xhttp.NewAppError("ERR_CONFLICT", "", "a training run is already in progress", http.StatusConflict).WithError(err)
	case errors.Is(err, usecase.ErrInvalidDays):
		return xhttp.NewAppError("ERR_BAD_REQUEST", "days", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrArtifactNotFound):
		return xhttp.NewAppError("ERR_MODEL_NOT_READY", "", "model has not been trained yet", http.StatusServiceUnavailable).WithError(err)
	case errors.Is(err, models.ErrDataLoad), errors.Is(err, models.ErrFeature), errors.Is(err, models.ErrAssembly):
		return xhttp.NewAppError("ERR_DATA", "", err.Error(), http.StatusUnprocessableEntity).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
