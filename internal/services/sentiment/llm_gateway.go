package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	xhttp "PriceCast/pkg/http"
	applogger "PriceCast/pkg/logger"
)

// LLMConfig configures the chat-completions sentiment scorer.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// LLMGateway scores headlines with an OpenAI-compatible chat completions endpoint.
type LLMGateway struct {
	base    *HTTPServiceBase
	cfg     LLMConfig
	log     *applogger.Logger
	metrics repository.Metrics
}

// GatewayOption configures LLMGateway.
type GatewayOption func(*LLMGateway)

// WithMetrics counts degraded lookups.
func WithMetrics(m repository.Metrics) GatewayOption {
	return func(g *LLMGateway) {
		g.metrics = m
	}
}

// WithClientOptions passes options to the underlying HTTP client.
func WithClientOptions(opts ...xhttp.ClientOption) GatewayOption {
	return func(g *LLMGateway) {
		g.base = NewHTTPServiceBase(g.base.baseURL, g.cfg.Timeout, g.base.headers, opts...)
	}
}

// NewLLMGateway creates the gateway. An empty API key makes every call degrade to neutral.
func NewLLMGateway(cfg LLMConfig, log *applogger.Logger, opts ...GatewayOption) *LLMGateway {
	if log == nil {
		log = applogger.Nop()
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 10
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	g := &LLMGateway{
		base: NewHTTPServiceBase(strings.TrimRight(cfg.BaseURL, "/"), cfg.Timeout, headers),
		cfg:  cfg,
		log:  log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are a financial news sentiment analyst. Reply with a single number between -1 and 1, " +
	"where -1 is extremely negative, 0 is neutral and 1 is extremely positive. Reply with the number only."

// ScoreFromText asks the model for one score over all texts. Any failure returns the
// neutral result with Degraded set and is logged as a warning.
func (g *LLMGateway) ScoreFromText(ctx context.Context, texts []string) models.SentimentResult {
	texts = nonEmpty(texts)
	if len(texts) == 0 {
		return g.degrade("no_text", errors.New("no text to score"))
	}
	if g.cfg.APIKey == "" {
		return g.degrade("not_configured", errors.New("llm api key not set"))
	}

	req := chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(texts)},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}
	var resp chatResponse
	if err := g.base.PostJSON(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return g.degrade("request_failed", err)
	}
	if len(resp.Choices) == 0 {
		return g.degrade("empty_response", errors.New("no choices in response"))
	}
	score, err := ParseScore(resp.Choices[0].Message.Content)
	if err != nil {
		return g.degrade("unparseable", err)
	}
	return models.SentimentResult{Score: score, Source: models.SentimentSourceLLM}
}

func (g *LLMGateway) degrade(reason string, err error) models.SentimentResult {
	g.log.Warn("sentiment degraded to neutral",
		applogger.String("reason", reason),
		applogger.Error(err),
	)
	if g.metrics != nil {
		g.metrics.RecordSentimentDegraded(reason)
	}
	return models.Neutral(reason)
}

// ParseScore reads a model reply as a number and clamps it to [-1,1].
func ParseScore(content string) (float64, error) {
	s := strings.TrimSpace(content)
	s = strings.Trim(s, "\"'`.")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", content, err)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("parse score %q: not a number", content)
	}
	return models.ClampScore(v), nil
}

func buildPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("Rate the overall market sentiment of these crypto news headlines:\n")
	for i, t := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	return b.String()
}

func nonEmpty(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

var _ domsvc.SentimentGateway = (*LLMGateway)(nil)
