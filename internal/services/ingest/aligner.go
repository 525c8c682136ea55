package ingest

import (
	"sort"
	"time"

	"PriceCast/internal/domain/models"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

const stageAlign = "align"

// Aligner joins raw price and sentiment records into date-ordered rows.
type Aligner struct {
	now func() time.Time
	log *applogger.Logger
}

// AlignerOption configures Aligner.
type AlignerOption func(*Aligner)

// WithClock sets the source of the processing date.
func WithClock(now func() time.Time) AlignerOption {
	return func(a *Aligner) {
		a.now = now
	}
}

// NewAligner creates an Aligner that uses the wall clock unless WithClock is given.
func NewAligner(log *applogger.Logger, opts ...AlignerOption) *Aligner {
	if log == nil {
		log = applogger.Nop()
	}
	a := &Aligner{now: time.Now, log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Align parses dates, drops price records dated after today, inner-joins on date and
// forward-fills remaining nulls. Duplicate dates keep the last record seen.
func (a *Aligner) Align(prices []models.RawPrice, sentiment []models.RawSentiment) ([]models.AlignedRow, error) {
	if len(prices) == 0 {
		return nil, models.NewPipelineError(models.ErrDataLoad, stageAlign, "price input is empty")
	}
	if len(sentiment) == 0 {
		return nil, models.NewPipelineError(models.ErrDataLoad, stageAlign, "sentiment input is empty")
	}

	today := util.TruncateDay(a.now())

	byDate := make(map[time.Time]models.PricePoint, len(prices))
	var badDate, future int
	for _, rec := range prices {
		d, ok := util.ParseDate(rec.TimeOpen)
		if !ok {
			badDate++
			continue
		}
		if d.After(today) {
			future++
			continue
		}
		byDate[d] = models.PricePoint{
			Date:      d,
			Open:      rec.Open,
			High:      rec.High,
			Low:       rec.Low,
			Close:     rec.Close,
			Volume:    rec.Volume,
			MarketCap: rec.MarketCap,
		}
	}
	if len(byDate) == 0 {
		return nil, models.NewPipelineError(models.ErrDataLoad, stageAlign,
			"no usable price records (%d unparseable dates, %d future dates)", badDate, future)
	}

	scores := make(map[time.Time]float64, len(sentiment))
	var badSentiment int
	for _, rec := range sentiment {
		d, ok := util.ParseDate(rec.Date)
		if !ok {
			badSentiment++
			continue
		}
		s := rec.Score
		if !models.IsNull(s) {
			s = models.ClampScore(s)
		}
		scores[d] = s
	}
	if len(scores) == 0 {
		return nil, models.NewPipelineError(models.ErrDataLoad, stageAlign,
			"no usable sentiment records (%d unparseable dates)", badSentiment)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		if _, ok := scores[d]; ok {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, models.NewPipelineError(models.ErrDataLoad, stageAlign,
			"price and sentiment series share no dates (%d price days, %d sentiment days)", len(byDate), len(scores))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rows := make([]models.AlignedRow, len(dates))
	for i, d := range dates {
		p := byDate[d]
		rows[i] = models.AlignedRow{
			Date:           d,
			Open:           p.Open,
			High:           p.High,
			Low:            p.Low,
			Close:          p.Close,
			Volume:         p.Volume,
			MarketCap:      p.MarketCap,
			SentimentScore: scores[d],
		}
	}
	forwardFill(rows)

	a.log.Debug("series aligned",
		applogger.Int("rows", len(rows)),
		applogger.Int("price_days", len(byDate)),
		applogger.Int("sentiment_days", len(scores)),
		applogger.Int("future_dropped", future),
		applogger.Int("bad_dates", badDate+badSentiment),
	)
	return rows, nil
}

// forwardFill carries the last valid value of every numeric column forward.
// Leading nulls stay null.
func forwardFill(rows []models.AlignedRow) {
	cols := []func(*models.AlignedRow) *float64{
		func(r *models.AlignedRow) *float64 { return &r.Open },
		func(r *models.AlignedRow) *float64 { return &r.High },
		func(r *models.AlignedRow) *float64 { return &r.Low },
		func(r *models.AlignedRow) *float64 { return &r.Close },
		func(r *models.AlignedRow) *float64 { return &r.Volume },
		func(r *models.AlignedRow) *float64 { return &r.MarketCap },
		func(r *models.AlignedRow) *float64 { return &r.SentimentScore },
	}
	for _, col := range cols {
		last := models.Null()
		for i := range rows {
			v := col(&rows[i])
			if models.IsNull(*v) {
				*v = last
				continue
			}
			last = *v
		}
	}
}
