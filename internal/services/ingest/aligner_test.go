package ingest

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

var fixedNow = func() time.Time { return time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC) }

func price(date string, close float64) models.RawPrice {
	return models.RawPrice{
		TimeOpen: date + "T00:00:00.000Z",
		Open:     close, High: close + 1, Low: close - 1, Close: close,
		Volume: 100, MarketCap: 1000,
	}
}

func TestAlignInnerJoin(t *testing.T) {
	a := NewAligner(nil, WithClock(fixedNow))
	prices := []models.RawPrice{price("2024-01-04", 4), price("2024-01-01", 1), price("2024-01-02", 2)}
	sent := []models.RawSentiment{{Date: "2024-01-01", Score: 0.1}, {Date: "2024-01-02", Score: 0.2}, {Date: "2024-01-03", Score: 0.3}}

	rows, err := a.Align(prices, sent)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := []string{"2024-01-01", "2024-01-02"}
	for i, r := range rows {
		if got := r.Date.Format("2006-01-02"); got != want[i] {
			t.Fatalf("row %d date %s, want %s", i, got, want[i])
		}
	}
	if rows[1].SentimentScore != 0.2 || rows[1].Close != 2 {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestAlignDropsFutureDates(t *testing.T) {
	a := NewAligner(nil, WithClock(fixedNow))
	prices := []models.RawPrice{price("2024-01-10", 10), price("2024-01-11", 11)}
	sent := []models.RawSentiment{{Date: "2024-01-10", Score: 0}, {Date: "2024-01-11", Score: 0}}

	rows, err := a.Align(prices, sent)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(rows) != 1 || rows[0].Date.Day() != 10 {
		t.Fatalf("expected only today's row, got %+v", rows)
	}
}

func TestAlignErrors(t *testing.T) {
	a := NewAligner(nil, WithClock(fixedNow))
	sent := []models.RawSentiment{{Date: "2024-01-01", Score: 0}}
	cases := []struct {
		name   string
		prices []models.RawPrice
		sent   []models.RawSentiment
	}{
		{"empty prices", nil, sent},
		{"empty sentiment", []models.RawPrice{price("2024-01-01", 1)}, nil},
		{"no overlap", []models.RawPrice{price("2024-01-05", 1)}, sent},
		{"bad dates", []models.RawPrice{{TimeOpen: "yesterday"}}, sent},
	}
	for _, tc := range cases {
		_, err := a.Align(tc.prices, tc.sent)
		if !errors.Is(err, models.ErrDataLoad) {
			t.Fatalf("%s: expected ErrDataLoad, got %v", tc.name, err)
		}
	}
}

func TestAlignForwardFillsAndKeepsLeadingNull(t *testing.T) {
	a := NewAligner(nil, WithClock(fixedNow))
	p1 := price("2024-01-01", 1)
	p1.Volume = math.NaN()
	p2 := price("2024-01-02", 2)
	p3 := price("2024-01-03", 3)
	p3.Close = math.NaN()
	sent := []models.RawSentiment{{Date: "2024-01-01", Score: 0.5}, {Date: "2024-01-02", Score: math.NaN()}, {Date: "2024-01-03", Score: 0.1}}

	rows, err := a.Align([]models.RawPrice{p1, p2, p3}, sent)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if !models.IsNull(rows[0].Volume) {
		t.Fatalf("leading null should remain, got %v", rows[0].Volume)
	}
	if rows[2].Close != 2 {
		t.Fatalf("close not forward-filled: %v", rows[2].Close)
	}
	if rows[1].SentimentScore != 0.5 {
		t.Fatalf("sentiment not forward-filled: %v", rows[1].SentimentScore)
	}
}

func TestAlignDuplicateDateKeepsLast(t *testing.T) {
	a := NewAligner(nil, WithClock(fixedNow))
	prices := []models.RawPrice{price("2024-01-01", 1), price("2024-01-01", 7)}
	sent := []models.RawSentiment{{Date: "2024-01-01", Score: 0}}
	rows, err := a.Align(prices, sent)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(rows) != 1 || rows[0].Close != 7 {
		t.Fatalf("expected single row with close 7, got %+v", rows)
	}
}

func TestReadPriceCSV(t *testing.T) {
	in := strings.Join([]string{
		`"timeOpen";"timeClose";"timeHigh";"timeLow";"name";"open";"high";"low";"close";"volume";"marketCap";"timestamp"`,
		`"2024-01-01T00:00:00.000Z";"2024-01-01T23:59:59.999Z";"x";"y";"2781";42280.2;44175.4;42214.9;44167.3;18426978500;865322000000;"2024-01-01T23:59:59.999Z"`,
		`"2024-01-02T00:00:00.000Z";"2024-01-02T23:59:59.999Z";"x";"y";"2781";44187.1;45899.7;44176.9;oops;39335274536;880000000000;"2024-01-02T23:59:59.999Z"`,
	}, "\n")
	recs, err := ReadPriceCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Close != 44167.3 || recs[0].TimeOpen != "2024-01-01T00:00:00.000Z" {
		t.Fatalf("unexpected first record %+v", recs[0])
	}
	if !models.IsNull(recs[1].Close) {
		t.Fatalf("unparseable close should be null, got %v", recs[1].Close)
	}
}

func TestReadPriceCSVMissingColumn(t *testing.T) {
	in := "timeOpen;open;high;low;close;volume\n2024-01-01;1;2;0;1;5\n"
	_, err := ReadPriceCSV(strings.NewReader(in))
	if !errors.Is(err, models.ErrDataLoad) {
		t.Fatalf("expected ErrDataLoad, got %v", err)
	}
}

func TestReadSentimentCSV(t *testing.T) {
	in := "date,sentiment_score,news_count\n2024-01-01,0.25,10\n2024-01-02,-0.5,3\n"
	recs, err := ReadSentimentCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 || recs[1].Score != -0.5 || recs[0].Date != "2024-01-01" {
		t.Fatalf("unexpected records %+v", recs)
	}
}
