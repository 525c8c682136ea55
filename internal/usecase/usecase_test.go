package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/services/dataset"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/ingest"
	"PriceCast/internal/services/model"
	"PriceCast/pkg/cache"
)

type fakeMarket struct {
	prices    []models.RawPrice
	sentiment []models.RawSentiment
}

func (f *fakeMarket) Prices(context.Context) ([]models.RawPrice, error) { return f.prices, nil }
func (f *fakeMarket) Sentiment(context.Context) ([]models.RawSentiment, error) {
	return f.sentiment, nil
}

func marketDays(n int) *fakeMarket {
	m := &fakeMarket{}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		c := 100 + float64(i) + float64(i%3)
		m.prices = append(m.prices, models.RawPrice{
			TimeOpen: d + "T00:00:00.000Z",
			Name:     "Bitcoin",
			Open:     c - 0.5, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000 + float64(i), MarketCap: 1e6,
		})
		m.sentiment = append(m.sentiment, models.RawSentiment{Date: d, Score: float64(i%5)/10 - 0.2})
	}
	return m
}

type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStore() *memStore { return &memStore{files: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, models.ErrArtifactNotFound)
	}
	return b, nil
}

type fakeRecorder struct {
	trainings []models.TrainingRun
	forecasts []models.Forecast
}

func (r *fakeRecorder) RecordTraining(_ context.Context, run models.TrainingRun) error {
	r.trainings = append(r.trainings, run)
	return nil
}

func (r *fakeRecorder) RecordForecast(_ context.Context, f models.Forecast) error {
	r.forecasts = append(r.forecasts, f)
	return nil
}

func (r *fakeRecorder) Close() error { return nil }

type fakePublisher struct {
	forecasts []models.ForecastEvent
	trainings []models.TrainingEvent
}

func (p *fakePublisher) PublishForecast(_ context.Context, ev models.ForecastEvent) error {
	p.forecasts = append(p.forecasts, ev)
	return nil
}

func (p *fakePublisher) PublishTraining(_ context.Context, ev models.TrainingEvent) error {
	p.trainings = append(p.trainings, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeFeed struct {
	calls int
	items []models.NewsItem
	err   error
}

func (f *fakeFeed) Latest(context.Context, int) ([]models.NewsItem, error) {
	f.calls++
	return f.items, f.err
}

type fixedGateway struct{ score float64 }

func (g fixedGateway) ScoreFromText(_ context.Context, texts []string) models.SentimentResult {
	if len(texts) == 0 {
		return models.Neutral("no_text")
	}
	return models.SentimentResult{Score: g.score, Source: models.SentimentSourceLLM}
}

type harness struct {
	store     *memStore
	recorder  *fakeRecorder
	publisher *fakePublisher
	locker    *cache.MemoryCache
	pipeline  *Pipeline
	trainer   *TrainingUseCase
	forecast  *ForecastUseCase
	feed      *fakeFeed
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     newMemStore(),
		recorder:  &fakeRecorder{},
		publisher: &fakePublisher{},
		locker:    cache.NewMemoryCache(),
		feed:      &fakeFeed{items: []models.NewsItem{{Title: "Bitcoin rallies"}}},
	}
	t.Cleanup(func() { _ = h.locker.Close() })

	h.pipeline = NewPipeline(marketDays(40), ingest.NewAligner(nil), features.NewBuilder(nil), dataset.NewAssembler(), nil, nil)
	h.trainer = NewTrainingUseCase(h.pipeline, h.store, h.recorder, h.publisher, nil, h.locker, TrainingConfig{
		Estimator:  model.KindLinear,
		Params:     model.Params{Ridge: 1e-3},
		TrainRatio: 0.8,
		ModelFile:  "model.json",
		ScalerFile: "scaler.json",
		ReportFile: "report.json",
	}, nil)
	news := NewNewsUseCase(h.feed, fixedGateway{score: 0.4}, nil, 0, nil)
	h.forecast = NewForecastUseCase(h.pipeline, h.store, news, h.recorder, h.publisher, nil, ForecastConfig{
		ModelFile:  "model.json",
		ScalerFile: "scaler.json",
	}, nil)
	h.forecast.now = fixedNow
	return h
}

func TestTrainThenForecast(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	report, err := h.trainer.Train(ctx, TriggerCLI)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	// 40 days, first 9 dropped for the 10-day average, last row has no target.
	if report.TrainRows+report.TestRows != 30 {
		t.Fatalf("train+test rows = %d, want 30", report.TrainRows+report.TestRows)
	}
	if len(report.TestDates) != report.TestRows || len(report.PredictedPrices) != report.TestRows {
		t.Fatalf("report arrays out of sync: %+v", report)
	}
	if report.TestDates[len(report.TestDates)-1] != "2024-02-09" {
		t.Fatalf("last test date = %s, want 2024-02-09", report.TestDates[len(report.TestDates)-1])
	}
	for _, name := range []string{"model.json", "scaler.json", "report.json"} {
		if _, err := h.store.Get(ctx, name); err != nil {
			t.Fatalf("artifact %s missing: %v", name, err)
		}
	}
	if len(h.recorder.trainings) != 1 || h.recorder.trainings[0].Trigger != TriggerCLI {
		t.Fatalf("training not recorded: %+v", h.recorder.trainings)
	}
	if len(h.publisher.trainings) != 1 {
		t.Fatalf("training event not published")
	}

	score := 0.25
	f, err := h.forecast.Forecast(ctx, ForecastParams{Days: intPtr(5), SentimentScore: &score})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(f.Points) != 5 {
		t.Fatalf("points = %d, want 5", len(f.Points))
	}
	if f.Sentiment.Source != models.SentimentSourceRequest || f.Sentiment.Score != 0.25 {
		t.Fatalf("sentiment = %+v", f.Sentiment)
	}
	want := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, p := range f.Points {
		if !p.Date.Equal(want.AddDate(0, 0, i)) {
			t.Fatalf("point %d date %s, want %s", i, p.Date, want.AddDate(0, 0, i))
		}
	}
	if f.CurrentPrice != 100+39+float64(39%3) {
		t.Fatalf("current price = %v", f.CurrentPrice)
	}
	if len(h.recorder.forecasts) != 1 || len(h.publisher.forecasts) != 1 {
		t.Fatalf("forecast not recorded or published")
	}
	if h.feed.calls != 0 {
		t.Fatalf("request score must bypass the news feed")
	}
}

func TestForecastUsesNewsSentiment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.trainer.Train(ctx, TriggerManual); err != nil {
		t.Fatalf("train: %v", err)
	}
	f, err := h.forecast.Forecast(ctx, ForecastParams{})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(f.Points) != 7 {
		t.Fatalf("default horizon = %d, want 7", len(f.Points))
	}
	if f.Sentiment.Source != models.SentimentSourceLLM || f.Sentiment.Score != 0.4 {
		t.Fatalf("sentiment = %+v", f.Sentiment)
	}

	h.feed.err = errors.New("feed down")
	f, err = h.forecast.Forecast(ctx, ForecastParams{Days: intPtr(2)})
	if err != nil {
		t.Fatalf("forecast with feed down: %v", err)
	}
	if !f.Sentiment.Degraded || f.Sentiment.Score != 0 {
		t.Fatalf("expected neutral degraded sentiment, got %+v", f.Sentiment)
	}
}

func TestForecastWithoutArtifacts(t *testing.T) {
	h := newHarness(t)
	_, err := h.forecast.Forecast(context.Background(), ForecastParams{Days: intPtr(3)})
	if !errors.Is(err, models.ErrForecast) || !errors.Is(err, models.ErrArtifactNotFound) {
		t.Fatalf("expected forecast error wrapping artifact not found, got %v", err)
	}
}

func TestForecastRejectsHorizon(t *testing.T) {
	h := newHarness(t)
	for _, days := range []int{0, -1, 31} {
		_, err := h.forecast.Forecast(context.Background(), ForecastParams{Days: intPtr(days)})
		if !errors.Is(err, models.ErrForecast) || !errors.Is(err, ErrInvalidDays) {
			t.Fatalf("days=%d: expected invalid horizon, got %v", days, err)
		}
	}
}

func TestForecastDefaultHorizon(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.trainer.Train(ctx, TriggerCLI); err != nil {
		t.Fatalf("train: %v", err)
	}
	score := 0.0
	f, err := h.forecast.Forecast(ctx, ForecastParams{SentimentScore: &score})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(f.Points) != 7 {
		t.Fatalf("points = %d, want default 7", len(f.Points))
	}
}

func TestNewForecasterRejectsNilArtifacts(t *testing.T) {
	h := newHarness(t)
	var fm *model.ForecastModel
	if _, err := h.forecast.newForecaster(fm, &dataset.Scaler{}); !errors.Is(err, models.ErrArtifactNotFound) {
		t.Fatalf("nil model: expected ErrArtifactNotFound, got %v", err)
	}
	var scaler *dataset.Scaler
	if _, err := h.forecast.newForecaster(&model.ForecastModel{}, scaler); !errors.Is(err, models.ErrForecast) {
		t.Fatalf("nil scaler: expected ErrForecast, got %v", err)
	}
}

func TestTrainingLock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ok, err := h.locker.TryLock(ctx, trainingLockKey, time.Minute)
	if err != nil || !ok {
		t.Fatalf("take lock: %v %v", ok, err)
	}
	if _, err := h.trainer.Train(ctx, TriggerSchedule); !errors.Is(err, ErrTrainingInProgress) {
		t.Fatalf("expected ErrTrainingInProgress, got %v", err)
	}
	_ = h.locker.Unlock(ctx, trainingLockKey)
	if _, err := h.trainer.Train(ctx, TriggerSchedule); err != nil {
		t.Fatalf("train after unlock: %v", err)
	}
}

func TestNewsDigestCache(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	feed := &fakeFeed{items: []models.NewsItem{{Title: "ETF approved"}}}
	uc := NewNewsUseCase(feed, fixedGateway{score: 0.6}, c, time.Minute, nil)
	ctx := context.Background()

	d, err := uc.Digest(ctx, 5)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if d.Sentiment.Source != models.SentimentSourceLLM {
		t.Fatalf("first digest source = %s", d.Sentiment.Source)
	}
	d, err = uc.Digest(ctx, 5)
	if err != nil {
		t.Fatalf("cached digest: %v", err)
	}
	if feed.calls != 1 {
		t.Fatalf("feed called %d times, want 1", feed.calls)
	}
	if d.Sentiment.Source != models.SentimentSourceCache || d.Sentiment.Score != 0.6 || len(d.Items) != 1 {
		t.Fatalf("cached digest = %+v", d)
	}
}

func TestNewsDegradedNotCached(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	feed := &fakeFeed{}
	uc := NewNewsUseCase(feed, fixedGateway{score: 0.6}, c, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := uc.Digest(ctx, 5)
		if err != nil {
			t.Fatalf("digest: %v", err)
		}
		if !d.Sentiment.Degraded {
			t.Fatalf("empty feed should degrade sentiment")
		}
	}
	if feed.calls != 2 {
		t.Fatalf("degraded digest was cached")
	}
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	hist := NewHistoryUseCase(h.pipeline, h.store, "report.json")
	ctx := context.Background()

	prices, err := hist.Prices(ctx, 3)
	if err != nil {
		t.Fatalf("prices: %v", err)
	}
	if len(prices) != 3 || prices[2].Date.Format("2006-01-02") != "2024-02-09" {
		t.Fatalf("prices tail = %+v", prices)
	}
	sent, err := hist.Sentiment(ctx, 0)
	if err != nil || len(sent) != 40 {
		t.Fatalf("sentiment = %d rows, %v", len(sent), err)
	}
	if _, err := hist.Evaluation(ctx); !errors.Is(err, models.ErrArtifactNotFound) {
		t.Fatalf("expected missing report, got %v", err)
	}
	if _, err := h.trainer.Train(ctx, TriggerManual); err != nil {
		t.Fatalf("train: %v", err)
	}
	rep, err := hist.Evaluation(ctx)
	if err != nil || rep.TestRows == 0 {
		t.Fatalf("report = %+v, %v", rep, err)
	}
}

func intPtr(v int) *int { return &v }
