package sentiment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	domsvc "PriceCast/internal/domain/service"
	xhttp "PriceCast/pkg/http"
	"PriceCast/pkg/util"
)

// NewsConfig configures the CryptoPanic-style news client.
type NewsConfig struct {
	BaseURL  string
	Token    string
	Currency string
	Timeout  time.Duration
}

// NewsClient fetches headlines from a CryptoPanic-compatible posts API.
type NewsClient struct {
	base *HTTPServiceBase
	cfg  NewsConfig
}

// NewNewsClient creates a NewsClient.
func NewNewsClient(cfg NewsConfig, opts ...xhttp.ClientOption) *NewsClient {
	if cfg.Currency == "" {
		cfg.Currency = "BTC"
	}
	return &NewsClient{
		base: NewHTTPServiceBase(strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout, nil, opts...),
		cfg:  cfg,
	}
}

type postsResponse struct {
	Results []struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		CreatedAt string `json:"created_at"`
		Source    struct {
			Title string `json:"title"`
		} `json:"source"`
	} `json:"results"`
}

// Latest returns up to limit news posts, newest first as served by the API.
func (c *NewsClient) Latest(ctx context.Context, limit int) ([]models.NewsItem, error) {
	if c.cfg.Token == "" {
		return nil, fmt.Errorf("news: api token not set")
	}
	if limit <= 0 {
		limit = 10
	}
	var resp postsResponse
	err := c.base.GetJSON(ctx, "/posts/", map[string][]string{
		"auth_token": {c.cfg.Token},
		"currencies": {c.cfg.Currency},
		"kind":       {"news"},
		"limit":      {strconv.Itoa(limit)},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}

	items := make([]models.NewsItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(items) == limit {
			break
		}
		created, _ := util.ParseTime(r.CreatedAt)
		items = append(items, models.NewsItem{
			Title:     r.Title,
			URL:       r.URL,
			Source:    r.Source.Title,
			CreatedAt: created,
		})
	}
	return items, nil
}

var _ domsvc.NewsFeed = (*NewsClient)(nil)
