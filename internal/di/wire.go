//go:build wireinject
// +build wireinject

package di

import (
	"PriceCast/pkg/config"
	"PriceCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Events and logging
		ProvideKafkaProducer,
		ProvideKafkaPublisher,
		ProvideEventPublisher,
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideRecorder,
		ProvideMarketData,
		ProvideArtifactStore,

		// Use cases
		ProvidePipeline,
		ProvideTrainingUseCase,
		ProvideNewsUseCase,
		ProvideForecastUseCase,
		ProvideHistoryUseCase,

		// HTTP
		ProvideForecastHandler,
		ProvideHTTPServer,

		server.New,
	)
	return &server.App{}, nil
}
