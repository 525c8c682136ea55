package repository

import (
	"context"
	"os"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	"PriceCast/internal/services/ingest"
)

// FileMarketData reads the price and sentiment CSV exports from disk.
type FileMarketData struct {
	priceFile     string
	sentimentFile string
}

// NewFileMarketData creates a file-backed MarketData.
func NewFileMarketData(priceFile, sentimentFile string) *FileMarketData {
	return &FileMarketData{priceFile: priceFile, sentimentFile: sentimentFile}
}

func (m *FileMarketData) Prices(ctx context.Context) ([]models.RawPrice, error) {
	f, err := os.Open(m.priceFile)
	if err != nil {
		return nil, models.WrapPipelineError(models.ErrDataLoad, "load", err, "open price file")
	}
	defer f.Close()
	return ingest.ReadPriceCSV(f)
}

func (m *FileMarketData) Sentiment(ctx context.Context) ([]models.RawSentiment, error) {
	f, err := os.Open(m.sentimentFile)
	if err != nil {
		return nil, models.WrapPipelineError(models.ErrDataLoad, "load", err, "open sentiment file")
	}
	defer f.Close()
	return ingest.ReadSentimentCSV(f)
}

var _ repository.MarketData = (*FileMarketData)(nil)
