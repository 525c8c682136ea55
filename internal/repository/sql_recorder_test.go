package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()
	r, err := OpenSQLRecorder(ctx, DialectSQLite, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	run := models.TrainingRun{
		RunID:      "train-1",
		StartedAt:  now,
		FinishedAt: now.Add(time.Second),
		Estimator:  "random_forest",
		Rows:       120,
		Metrics:    models.EvalMetrics{MSE: 12.5, R2: 0.9},
		Trigger:    "manual",
	}
	if err := r.RecordTraining(ctx, run); err != nil {
		t.Fatalf("record training: %v", err)
	}

	f := models.Forecast{
		RunID:       "fc-1",
		GeneratedAt: now,
		Estimator:   "random_forest",
		Points: []models.ForecastPoint{
			{Date: now.AddDate(0, 0, 1), Price: 101},
			{Date: now.AddDate(0, 0, 2), Price: 102},
		},
		CurrentPrice: 100,
		Sentiment:    models.SentimentResult{Score: 0.2, Source: models.SentimentSourceRequest},
	}
	if err := r.RecordForecast(ctx, f); err != nil {
		t.Fatalf("record forecast: %v", err)
	}

	tr, fc, err := r.CountRuns(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if tr != 1 || fc != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", tr, fc)
	}

	var points int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM forecast_points WHERE run_id = ?", "fc-1").Scan(&points); err != nil {
		t.Fatalf("points: %v", err)
	}
	if points != 2 {
		t.Fatalf("points = %d, want 2", points)
	}

	if err := r.RecordTraining(ctx, run); err == nil {
		t.Fatalf("expected duplicate run id to fail")
	}
}

func TestBindPostgres(t *testing.T) {
	r := &SQLRecorder{dialect: DialectPostgres}
	got := r.bind("INSERT INTO t (a, b) VALUES (?, ?)")
	if got != "INSERT INTO t (a, b) VALUES ($1, $2)" {
		t.Fatalf("bind = %q", got)
	}
	r.dialect = DialectSQLite
	if r.bind("?") != "?" {
		t.Fatalf("sqlite bind should be unchanged")
	}
}
