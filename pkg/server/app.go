package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	"PriceCast/internal/scheduler"
	"PriceCast/internal/usecase"
	"PriceCast/pkg/cache"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	applogger "PriceCast/pkg/logger"
)

// App encapsulates the application lifecycle for every run mode.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	trainer    *usecase.TrainingUseCase
	forecast   *usecase.ForecastUseCase
	recorder   repository.Recorder
	publisher  repository.EventPublisher
	cache      cache.Service
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	trainer *usecase.TrainingUseCase,
	forecast *usecase.ForecastUseCase,
	recorder repository.Recorder,
	publisher repository.EventPublisher,
	c cache.Service,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		trainer:    trainer,
		forecast:   forecast,
		recorder:   recorder,
		publisher:  publisher,
		cache:      c,
	}
}

// Logger returns the process logger.
func (a *App) Logger() *applogger.Logger { return a.log }

// Train runs one training pass from the command line.
func (a *App) Train(ctx context.Context) (*models.EvaluationReport, error) {
	return a.trainer.Train(ctx, usecase.TriggerCLI)
}

// Predict runs one forecast. A nil days uses the configured default horizon
// and a nil sentiment uses the news feed.
func (a *App) Predict(ctx context.Context, days *int, sentiment *float64) (*models.ForecastPayload, error) {
	f, err := a.forecast.Forecast(ctx, usecase.ForecastParams{Days: days, SentimentScore: sentiment})
	if err != nil {
		return nil, err
	}
	p := f.Payload()
	return &p, nil
}

// Serve starts the HTTP server and the retrain scheduler and blocks until
// interrupted.
func (a *App) Serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, a.trainer, a.log)
	if err := sched.RegisterRetrain(a.cfg.Schedule.RetrainCron); err != nil {
		return err
	}
	sched.Start()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		sched.Stop()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	a.log.Info("shutdown signal received")

	cancel()
	sched.Stop()
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	return nil
}

// Close releases infrastructure clients and flushes the log collector.
func (a *App) Close() error {
	var errs []error
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.log.Warn("recorder close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	// The collector publishes through the event publisher, so flush it first.
	a.log.RemoveCollector()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
