package di

import (
	"context"
	"fmt"
	"time"

	"PriceCast/internal/domain/repository"
	"PriceCast/internal/handler/api"
	internalrepo "PriceCast/internal/repository"
	"PriceCast/internal/services/dataset"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/ingest"
	"PriceCast/internal/services/model"
	"PriceCast/internal/services/sentiment"
	"PriceCast/internal/usecase"
	"PriceCast/pkg/cache"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	pkgkafka "PriceCast/pkg/kafka"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/metrics"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaPublisher wraps the producer, or returns nil without one.
func ProvideKafkaPublisher(cfg *config.Config, producer *pkgkafka.Producer) (*internalrepo.KafkaPublisher, error) {
	if producer == nil {
		return nil, nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ForecastTopic, cfg.Kafka.TrainingTopic)
}

// ProvideEventPublisher falls back to a no-op publisher when Kafka is disabled.
func ProvideEventPublisher(kp *internalrepo.KafkaPublisher) repository.EventPublisher {
	if kp == nil {
		return internalrepo.NoopPublisher{}
	}
	return kp
}

// ProvideLogger builds the process logger and attaches the Kafka log collector
// when enabled. It runs before any component derives a child logger.
func ProvideLogger(cfg *config.Config, kp *internalrepo.KafkaPublisher) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Collector.Enabled && kp != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.CountThreshold,
			Topic:          cfg.Log.Collector.Topic,
			Publisher:      kp,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the news cache and training lock backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MaxEntries),
			cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
		), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.MinIdleConns, cfg.Cache.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Cache.MaxEntries),
		cache.WithLayeredMemoryTTL(cfg.Cache.NewsTTL),
	), nil
}

// ProvideClickHouseClient creates a ClickHouse client and its database.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideRecorder opens the run history backend.
func ProvideRecorder(cfg *config.Config) (repository.Recorder, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Recorder.Backend {
	case "sqlite":
		return internalrepo.OpenSQLRecorder(ctx, internalrepo.DialectSQLite, cfg.Recorder.DSN)
	case "postgres":
		return internalrepo.OpenSQLRecorder(ctx, internalrepo.DialectPostgres, cfg.Recorder.DSN)
	case "clickhouse":
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, err
		}
		rec, err := internalrepo.NewClickHouseRecorder(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return rec, nil
	default:
		return internalrepo.NoopRecorder{}, nil
	}
}

// ProvideMarketData reads the configured CSV exports.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	return internalrepo.NewFileMarketData(cfg.Data.PriceFile, cfg.Data.SentimentFile)
}

// ProvideArtifactStore stores artifacts under the configured directory.
func ProvideArtifactStore(cfg *config.Config) (repository.ArtifactStore, error) {
	return internalrepo.NewFileArtifactStore(cfg.Artifacts.Dir)
}

// ProvidePipeline builds the shared load/align/features/assemble chain.
func ProvidePipeline(data repository.MarketData, m repository.Metrics, log *applogger.Logger) *usecase.Pipeline {
	return usecase.NewPipeline(
		data,
		ingest.NewAligner(log),
		features.NewBuilder(log),
		dataset.NewAssembler(),
		m,
		log,
	)
}

// ProvideTrainingUseCase creates the training use case.
func ProvideTrainingUseCase(
	cfg *config.Config,
	pipeline *usecase.Pipeline,
	store repository.ArtifactStore,
	recorder repository.Recorder,
	pub repository.EventPublisher,
	m repository.Metrics,
	c cache.Service,
	log *applogger.Logger,
) *usecase.TrainingUseCase {
	return usecase.NewTrainingUseCase(pipeline, store, recorder, pub, m, c, usecase.TrainingConfig{
		Estimator: cfg.Model.Estimator,
		Params: model.Params{
			Trees:    cfg.Model.Trees,
			MaxDepth: cfg.Model.MaxDepth,
			MinSplit: cfg.Model.MinSplit,
			Seed:     cfg.Model.Seed,
			Ridge:    cfg.Model.Ridge,
		},
		TrainRatio: cfg.Model.TrainRatio,
		ModelFile:  cfg.Artifacts.ModelFile,
		ScalerFile: cfg.Artifacts.ScalerFile,
		ReportFile: cfg.Artifacts.ReportFile,
		LockTTL:    cfg.Cache.LockTTL,
	}, log)
}

// ProvideNewsUseCase wires the news feed and the LLM sentiment gateway.
func ProvideNewsUseCase(cfg *config.Config, c cache.Service, m repository.Metrics, log *applogger.Logger) *usecase.NewsUseCase {
	feed := sentiment.NewNewsClient(sentiment.NewsConfig{
		BaseURL:  cfg.News.BaseURL,
		Token:    cfg.News.Token,
		Currency: cfg.News.Currency,
		Timeout:  cfg.News.Timeout,
	})
	gateway := sentiment.NewLLMGateway(sentiment.LLMConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, log, sentiment.WithMetrics(m))
	return usecase.NewNewsUseCase(feed, gateway, c, cfg.Cache.NewsTTL, log)
}

// ProvideForecastUseCase creates the forecast use case.
func ProvideForecastUseCase(
	cfg *config.Config,
	pipeline *usecase.Pipeline,
	store repository.ArtifactStore,
	news *usecase.NewsUseCase,
	recorder repository.Recorder,
	pub repository.EventPublisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(pipeline, store, news, recorder, pub, m, usecase.ForecastConfig{
		DefaultDays: cfg.Forecast.DefaultDays,
		MaxDays:     cfg.Forecast.MaxDays,
		NewsLimit:   cfg.News.Limit,
		ModelFile:   cfg.Artifacts.ModelFile,
		ScalerFile:  cfg.Artifacts.ScalerFile,
	}, log)
}

// ProvideHistoryUseCase creates the history use case.
func ProvideHistoryUseCase(cfg *config.Config, pipeline *usecase.Pipeline, store repository.ArtifactStore) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(pipeline, store, cfg.Artifacts.ReportFile)
}

// ProvideForecastHandler creates the Echo handler.
func ProvideForecastHandler(
	cfg *config.Config,
	log *applogger.Logger,
	forecast *usecase.ForecastUseCase,
	trainer *usecase.TrainingUseCase,
	history *usecase.HistoryUseCase,
	news *usecase.NewsUseCase,
) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(log, forecast, trainer, history, news, cfg.News.Limit, api.RateLimit{
		Capacity:     cfg.Server.RateLimit.Capacity,
		RefillPerSec: cfg.Server.RateLimit.RefillPerSec,
	})
}

// ProvideHTTPServer creates the Echo server. Routes are mounted on construction
// but nothing listens until Start.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, h *api.ForecastEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(log, []xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetricsPath(metricsPath),
	)
}
