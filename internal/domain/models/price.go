package models

import (
	"math"
	"time"
)

// RawPrice is one record of the price source before date parsing.
// Numeric fields that failed to parse are NaN.
type RawPrice struct {
	TimeOpen  string
	Name      string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	MarketCap float64
}

// RawSentiment is one record of the sentiment source before date parsing.
type RawSentiment struct {
	Date  string
	Score float64
}

// PricePoint is a daily OHLCV observation.
type PricePoint struct {
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	MarketCap float64   `json:"marketCap"`
}

// SentimentPoint is a daily sentiment score in [-1,1].
type SentimentPoint struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// AlignedRow is a price and sentiment observation sharing the same date.
type AlignedRow struct {
	Date           time.Time
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Volume         float64
	MarketCap      float64
	SentimentScore float64
}

// Price returns the price half of the row.
func (r AlignedRow) Price() PricePoint {
	return PricePoint{
		Date:      r.Date,
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    r.Volume,
		MarketCap: r.MarketCap,
	}
}

// Sentiment returns the sentiment half of the row.
func (r AlignedRow) Sentiment() SentimentPoint {
	return SentimentPoint{Date: r.Date, Score: r.SentimentScore}
}

// Null is the missing-value marker for numeric columns.
func Null() float64 { return math.NaN() }

// IsNull reports whether v is a missing value.
func IsNull(v float64) bool { return math.IsNaN(v) }
