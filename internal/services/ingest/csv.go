package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"PriceCast/internal/domain/models"
)

const stageLoad = "load"

// Positional layout of the price export when it has no header row.
var priceColumns = []string{
	"timeOpen", "timeClose", "timeHigh", "timeLow", "name",
	"open", "high", "low", "close", "volume", "marketCap", "timestamp",
}

var requiredPriceColumns = []string{"timeOpen", "open", "high", "low", "close", "volume", "marketCap"}

// ReadPriceCSV parses a semicolon-delimited price export. Quotes around fields are
// optional. A header row is detected by its first field and used to locate columns;
// without one the fixed export layout is assumed. Unparseable numbers become null.
func ReadPriceCSV(r io.Reader) ([]models.RawPrice, error) {
	rows, err := readAll(r, ';')
	if err != nil {
		return nil, models.WrapPipelineError(models.ErrDataLoad, stageLoad, err, "read price csv")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := positional(priceColumns)
	if isHeader(rows[0], "timeOpen") {
		index = headerIndex(rows[0])
		rows = rows[1:]
	}
	for _, col := range requiredPriceColumns {
		if _, ok := index[strings.ToLower(col)]; !ok {
			return nil, models.NewPipelineError(models.ErrDataLoad, stageLoad, "price csv missing column %q", col)
		}
	}
	width := 0
	for _, col := range requiredPriceColumns {
		if i := index[strings.ToLower(col)]; i+1 > width {
			width = i + 1
		}
	}

	out := make([]models.RawPrice, 0, len(rows))
	for n, row := range rows {
		if blank(row) {
			continue
		}
		if len(row) < width {
			return nil, models.NewPipelineError(models.ErrDataLoad, stageLoad,
				"price row %d has %d fields, want at least %d", n+1, len(row), width)
		}
		get := func(col string) string { return row[index[strings.ToLower(col)]] }
		rec := models.RawPrice{
			TimeOpen:  get("timeOpen"),
			Open:      parseFloat(get("open")),
			High:      parseFloat(get("high")),
			Low:       parseFloat(get("low")),
			Close:     parseFloat(get("close")),
			Volume:    parseFloat(get("volume")),
			MarketCap: parseFloat(get("marketCap")),
		}
		if i, ok := index["name"]; ok && i < len(row) {
			rec.Name = row[i]
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadSentimentCSV parses a comma-delimited [date, sentimentScore] file. Extra
// trailing columns are ignored.
func ReadSentimentCSV(r io.Reader) ([]models.RawSentiment, error) {
	rows, err := readAll(r, ',')
	if err != nil {
		return nil, models.WrapPipelineError(models.ErrDataLoad, stageLoad, err, "read sentiment csv")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	dateCol, scoreCol := 0, 1
	if isHeader(rows[0], "date") {
		idx := headerIndex(rows[0])
		var ok bool
		if dateCol, ok = idx["date"]; !ok {
			return nil, models.NewPipelineError(models.ErrDataLoad, stageLoad, "sentiment csv missing column \"date\"")
		}
		scoreCol = -1
		for _, name := range []string{"sentiment_score", "sentimentscore", "score"} {
			if i, ok := idx[name]; ok {
				scoreCol = i
				break
			}
		}
		if scoreCol < 0 {
			return nil, models.NewPipelineError(models.ErrDataLoad, stageLoad, "sentiment csv missing column \"sentiment_score\"")
		}
		rows = rows[1:]
	}

	width := max(dateCol, scoreCol) + 1
	out := make([]models.RawSentiment, 0, len(rows))
	for n, row := range rows {
		if blank(row) {
			continue
		}
		if len(row) < width {
			return nil, models.NewPipelineError(models.ErrDataLoad, stageLoad,
				"sentiment row %d has %d fields, want at least %d", n+1, len(row), width)
		}
		out = append(out, models.RawSentiment{
			Date:  strings.TrimSpace(row[dateCol]),
			Score: parseFloat(row[scoreCol]),
		})
	}
	return out, nil
}

func readAll(r io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		for i := range rec {
			rec[i] = strings.Trim(strings.TrimSpace(rec[i]), `"`)
		}
		rows = append(rows, rec)
	}
}

func isHeader(row []string, first string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimPrefix(row[0], "\ufeff"), first)
}

func headerIndex(row []string) map[string]int {
	idx := make(map[string]int, len(row))
	for i, name := range row {
		idx[strings.ToLower(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return idx
}

func positional(cols []string) map[string]int {
	idx := make(map[string]int, len(cols))
	for i, name := range cols {
		idx[strings.ToLower(name)] = i
	}
	return idx
}

func blank(row []string) bool {
	for _, f := range row {
		if f != "" {
			return false
		}
	}
	return true
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return models.Null()
	}
	return v
}
