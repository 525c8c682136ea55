package models

import "math"

// Sentiment sources.
const (
	SentimentSourceLLM     = "llm"
	SentimentSourceRequest = "request"
	SentimentSourceCache   = "cache"
	SentimentSourceNeutral = "neutral"
)

// SentimentResult is the outcome of a sentiment lookup. Degraded is set when the
// score is the neutral fallback rather than a real observation.
type SentimentResult struct {
	Score    float64 `json:"score"`
	Degraded bool    `json:"degraded"`
	Source   string  `json:"source"`
	Reason   string  `json:"reason,omitempty"`
}

// Neutral returns the degraded fallback result.
func Neutral(reason string) SentimentResult {
	return SentimentResult{Score: 0, Degraded: true, Source: SentimentSourceNeutral, Reason: reason}
}

// ClampScore limits s to [-1,1]. NaN maps to 0.
func ClampScore(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(-1, math.Min(1, s))
}
