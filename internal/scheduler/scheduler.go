package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/usecase"
	applogger "PriceCast/pkg/logger"
)

// Trainer runs one training pass.
type Trainer interface {
	Train(ctx context.Context, trigger string) (*models.EvaluationReport, error)
}

// Scheduler runs periodic retraining. Specs use six fields with seconds first.
type Scheduler struct {
	cron    *cron.Cron
	trainer Trainer
	log     *applogger.Logger
	ctx     context.Context
}

func NewScheduler(ctx context.Context, trainer Trainer, log *applogger.Logger) *Scheduler {
	if log == nil {
		log = applogger.Nop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		trainer: trainer,
		log:     log,
		ctx:     ctx,
	}
}

// RegisterRetrain schedules retraining on spec. An empty spec registers nothing.
func (s *Scheduler) RegisterRetrain(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.retrain); err != nil {
		return fmt.Errorf("register retrain task: %w", err)
	}
	s.log.Info("retrain scheduled", applogger.String("cron", spec))
	return nil
}

// Entries returns the number of registered tasks.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) retrain() {
	report, err := s.trainer.Train(s.ctx, usecase.TriggerSchedule)
	if errors.Is(err, usecase.ErrTrainingInProgress) {
		s.log.Info("scheduled retrain skipped: training already running")
		return
	}
	if err != nil {
		s.log.Error("scheduled retrain failed", applogger.Error(err))
		return
	}
	s.log.Info("scheduled retrain done",
		applogger.String("run_id", report.RunID),
		applogger.Float64("mse", report.MSE),
		applogger.Float64("r2", report.R2),
	)
}
