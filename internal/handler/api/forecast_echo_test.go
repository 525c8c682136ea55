package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/usecase"
	xlogger "PriceCast/pkg/logger"
)

type stubForecaster struct {
	got usecase.ForecastParams
	err error
}

func (s *stubForecaster) Forecast(_ context.Context, p usecase.ForecastParams) (*models.Forecast, error) {
	s.got = p
	if s.err != nil {
		return nil, s.err
	}
	start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	f := &models.Forecast{CurrentPrice: 100, Sentiment: models.SentimentResult{Source: models.SentimentSourceRequest}}
	for i := 0; i < *p.Days; i++ {
		f.Points = append(f.Points, models.ForecastPoint{Date: start.AddDate(0, 0, i), Price: 100 + float64(i)})
	}
	return f, nil
}

type stubTrainer struct{ err error }

func (s stubTrainer) Train(context.Context, string) (*models.EvaluationReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.EvaluationReport{RunID: "r1", MSE: 1}, nil
}

type stubHistory struct{}

func (stubHistory) Prices(_ context.Context, limit int) ([]models.PricePoint, error) {
	return make([]models.PricePoint, limit), nil
}

func (stubHistory) Sentiment(context.Context, int) ([]models.SentimentPoint, error) {
	return nil, models.NewPipelineError(models.ErrDataLoad, "load", "missing file")
}

func (stubHistory) Evaluation(context.Context) (*models.EvaluationReport, error) {
	return nil, fmt.Errorf("report.json: %w", models.ErrArtifactNotFound)
}

type stubNews struct{}

func (stubNews) Digest(_ context.Context, limit int) (*models.NewsDigest, error) {
	return &models.NewsDigest{Items: []models.NewsItem{{Title: "BTC up"}}}, nil
}

func newTestServer(f *stubForecaster, tr stubTrainer) *echo.Echo {
	e := echo.New()
	h := NewForecastEchoHandler(xlogger.Nop(), f, tr, stubHistory{}, stubNews{}, 10, RateLimit{Capacity: 100, RefillPerSec: 1})
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPredictDefaultsToSevenDays(t *testing.T) {
	f := &stubForecaster{}
	e := newTestServer(f, stubTrainer{})

	rec := do(e, http.MethodPost, "/api/bitcoin/predict", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if f.got.Days == nil || *f.got.Days != 7 || f.got.SentimentScore != nil {
		t.Fatalf("params = %+v", f.got)
	}
	var resp struct {
		Data models.ForecastPayload `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Dates) != 7 || resp.Data.Dates[0] != "2024-03-02" || resp.Data.CurrentPrice != 100 {
		t.Fatalf("payload = %+v", resp.Data)
	}
}

func TestPredictPassesSentiment(t *testing.T) {
	f := &stubForecaster{}
	e := newTestServer(f, stubTrainer{})
	rec := do(e, http.MethodPost, "/api/bitcoin/predict", `{"days": 3, "sentiment_score": -0.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.got.Days == nil || *f.got.Days != 3 || f.got.SentimentScore == nil || *f.got.SentimentScore != -0.5 {
		t.Fatalf("params = %+v", f.got)
	}
}

func TestPredictValidation(t *testing.T) {
	f := &stubForecaster{}
	e := newTestServer(f, stubTrainer{})
	for _, body := range []string{`{"days": 0}`, `{"days": 31}`, `{"days": -2}`, `{"sentiment_score": 1.5}`} {
		if rec := do(e, http.MethodPost, "/api/bitcoin/predict", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", body, rec.Code)
		}
	}
	if f.got.Days != nil {
		t.Fatalf("rejected request reached the forecaster: days=%d", *f.got.Days)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		method string
		target string
		f      *stubForecaster
		tr     stubTrainer
		want   int
	}{
		{"model missing", http.MethodPost, "/api/bitcoin/predict",
			&stubForecaster{err: models.WrapPipelineError(models.ErrForecast, "load_artifacts", models.ErrArtifactNotFound, "read model")},
			stubTrainer{}, http.StatusServiceUnavailable},
		{"forecast internal", http.MethodPost, "/api/bitcoin/predict",
			&stubForecaster{err: models.NewPipelineError(models.ErrForecast, "forecast", "non-finite prediction")},
			stubTrainer{}, http.StatusInternalServerError},
		{"training locked", http.MethodPost, "/api/model/train",
			&stubForecaster{}, stubTrainer{err: usecase.ErrTrainingInProgress}, http.StatusConflict},
		{"data error", http.MethodGet, "/api/bitcoin/sentiment",
			&stubForecaster{}, stubTrainer{}, http.StatusUnprocessableEntity},
		{"no report", http.MethodGet, "/api/bitcoin/predictions",
			&stubForecaster{}, stubTrainer{}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestServer(tc.f, tc.tr)
			body := ""
			if tc.method == http.MethodPost {
				body = `{"days": 2}`
			}
			if rec := do(e, tc.method, tc.target, body); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestPricesLimit(t *testing.T) {
	e := newTestServer(&stubForecaster{}, stubTrainer{})
	rec := do(e, http.MethodGet, "/api/bitcoin/prices?limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Data.Total != 3 {
		t.Fatalf("total = %d", resp.Data.Total)
	}
	if rec := do(e, http.MethodGet, "/api/bitcoin/prices?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}
}

func TestNewsAndTrain(t *testing.T) {
	e := newTestServer(&stubForecaster{}, stubTrainer{})
	if rec := do(e, http.MethodGet, "/api/news", ""); rec.Code != http.StatusOK {
		t.Fatalf("news status = %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/model/train", ""); rec.Code != http.StatusOK {
		t.Fatalf("train status = %d", rec.Code)
	}
}
