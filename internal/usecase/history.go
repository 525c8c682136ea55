package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
)

// HistoryUseCase serves the aligned price and sentiment history and the latest
// evaluation report.
type HistoryUseCase struct {
	pipeline   *Pipeline
	store      repository.ArtifactStore
	reportFile string
}

func NewHistoryUseCase(pipeline *Pipeline, store repository.ArtifactStore, reportFile string) *HistoryUseCase {
	return &HistoryUseCase{pipeline: pipeline, store: store, reportFile: reportFile}
}

// Prices returns the last limit aligned price points, oldest first. limit <= 0
// returns the whole history.
func (uc *HistoryUseCase) Prices(ctx context.Context, limit int) ([]models.PricePoint, error) {
	rows, err := uc.pipeline.Aligned(ctx)
	if err != nil {
		return nil, err
	}
	rows = tail(rows, limit)
	out := make([]models.PricePoint, len(rows))
	for i, r := range rows {
		out[i] = r.Price()
	}
	return out, nil
}

// Sentiment returns the last limit aligned sentiment points, oldest first.
func (uc *HistoryUseCase) Sentiment(ctx context.Context, limit int) ([]models.SentimentPoint, error) {
	rows, err := uc.pipeline.Aligned(ctx)
	if err != nil {
		return nil, err
	}
	rows = tail(rows, limit)
	out := make([]models.SentimentPoint, len(rows))
	for i, r := range rows {
		out[i] = r.Sentiment()
	}
	return out, nil
}

// Evaluation returns the report of the last training run.
func (uc *HistoryUseCase) Evaluation(ctx context.Context) (*models.EvaluationReport, error) {
	b, err := uc.store.Get(ctx, uc.reportFile)
	if err != nil {
		return nil, err
	}
	var r models.EvaluationReport
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode evaluation report: %w", err)
	}
	return &r, nil
}

func tail(rows []models.AlignedRow, limit int) []models.AlignedRow {
	if limit <= 0 || limit >= len(rows) {
		return rows
	}
	return rows[len(rows)-limit:]
}
