package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/service"
	"PriceCast/pkg/cache"
	applogger "PriceCast/pkg/logger"
)

// NewsUseCase fetches the latest headlines and scores them, caching the digest.
type NewsUseCase struct {
	feed    service.NewsFeed
	gateway service.SentimentGateway
	cache   cache.Service
	ttl     time.Duration
	log     *applogger.Logger
	now     func() time.Time
}

// NewNewsUseCase wires the news digest. c may be nil to disable caching.
func NewNewsUseCase(feed service.NewsFeed, gateway service.SentimentGateway, c cache.Service, ttl time.Duration, log *applogger.Logger) *NewsUseCase {
	if log == nil {
		log = applogger.Nop()
	}
	return &NewsUseCase{feed: feed, gateway: gateway, cache: c, ttl: ttl, log: log, now: time.Now}
}

// Digest returns up to limit headlines and the sentiment scored from them.
// Only non-degraded digests are cached; a cached digest reports source "cache".
func (uc *NewsUseCase) Digest(ctx context.Context, limit int) (*models.NewsDigest, error) {
	key := cache.GenerateKeyWithParams("news", limit)
	if uc.cache != nil {
		var d models.NewsDigest
		err := uc.cache.Get(ctx, key, &d)
		if err == nil {
			d.Sentiment.Source = models.SentimentSourceCache
			return &d, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.log.Warn("news cache read", applogger.Error(err))
		}
	}

	items, err := uc.feed.Latest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	d := &models.NewsDigest{Items: items, FetchedAt: uc.now().UTC()}
	d.Sentiment = uc.gateway.ScoreFromText(ctx, d.Titles())

	if uc.cache != nil && !d.Sentiment.Degraded && uc.ttl > 0 {
		if err := uc.cache.Set(ctx, key, d, uc.ttl); err != nil {
			uc.log.Warn("news cache write", applogger.Error(err))
		}
	}
	return d, nil
}

// Sentiment returns the current news sentiment. It never fails; a feed error
// yields the neutral degraded result.
func (uc *NewsUseCase) Sentiment(ctx context.Context, limit int) models.SentimentResult {
	d, err := uc.Digest(ctx, limit)
	if err != nil {
		uc.log.Warn("news sentiment unavailable", applogger.Error(err))
		return models.Neutral("news_unavailable")
	}
	return d.Sentiment
}
