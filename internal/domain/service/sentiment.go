package service

import (
	"context"

	"PriceCast/internal/domain/models"
)

// SentimentGateway scores a batch of short texts. It never fails: service errors and
// unparseable responses yield models.Neutral with Degraded set.
type SentimentGateway interface {
	ScoreFromText(ctx context.Context, texts []string) models.SentimentResult
}

// NewsFeed fetches the latest headlines for the tracked asset.
type NewsFeed interface {
	Latest(ctx context.Context, limit int) ([]models.NewsItem, error)
}
