package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/domain/repository"
	"PriceCast/internal/services/dataset"
	"PriceCast/internal/services/model"
	"PriceCast/pkg/cache"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/util"
)

// ErrTrainingInProgress is returned when another run holds the training lock.
var ErrTrainingInProgress = errors.New("training already in progress")

const trainingLockKey = "lock:training"

// Training triggers.
const (
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
)

// TrainingConfig selects the estimator and the artifact names.
type TrainingConfig struct {
	Estimator  string
	Params     model.Params
	TrainRatio float64
	ModelFile  string
	ScalerFile string
	ReportFile string
	LockTTL    time.Duration
}

// TrainingUseCase trains a model over the full history and persists the scaler,
// the model and the evaluation report.
type TrainingUseCase struct {
	pipeline  *Pipeline
	store     repository.ArtifactStore
	recorder  repository.Recorder
	publisher repository.EventPublisher
	metrics   repository.Metrics
	locker    cache.Service
	cfg       TrainingConfig
	log       *applogger.Logger
	now       func() time.Time
}

// NewTrainingUseCase wires the training run. locker may be nil, in which case
// runs are not serialized.
func NewTrainingUseCase(
	pipeline *Pipeline,
	store repository.ArtifactStore,
	recorder repository.Recorder,
	publisher repository.EventPublisher,
	metrics repository.Metrics,
	locker cache.Service,
	cfg TrainingConfig,
	log *applogger.Logger,
) *TrainingUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = applogger.Nop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &TrainingUseCase{
		pipeline:  pipeline,
		store:     store,
		recorder:  recorder,
		publisher: publisher,
		metrics:   metrics,
		locker:    locker,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Train runs one training pass. trigger labels the run in history and events.
func (uc *TrainingUseCase) Train(ctx context.Context, trigger string) (*models.EvaluationReport, error) {
	if uc.locker != nil {
		ok, err := uc.locker.TryLock(ctx, trainingLockKey, uc.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("training lock: %w", err)
		}
		if !ok {
			return nil, ErrTrainingInProgress
		}
		defer func() {
			if err := uc.locker.Unlock(context.Background(), trainingLockKey); err != nil {
				uc.log.Warn("release training lock", applogger.Error(err))
			}
		}()
	}

	runID := uuid.NewString()
	started := uc.now()
	log := uc.log.With(applogger.String("run_id", runID), applogger.String("trigger", trigger))
	log.Info("training started")

	ds, err := uc.pipeline.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	est, err := model.NewEstimator(uc.cfg.Estimator, uc.cfg.Params)
	if err != nil {
		return nil, models.WrapPipelineError(models.ErrTraining, "train", err, "build estimator")
	}
	fm := model.NewForecastModel(est, uc.cfg.TrainRatio)

	var eval *model.Evaluation
	err = uc.pipeline.stage("train", func() error {
		var err error
		eval, err = fm.Train(ds.X, ds.Y)
		return err
	})
	if err != nil {
		return nil, err
	}

	report := &models.EvaluationReport{
		RunID:           runID,
		TrainedAt:       uc.now().UTC(),
		Estimator:       fm.Kind(),
		TrainRows:       eval.TrainRows,
		TestRows:        len(eval.TestIndex),
		TestDates:       make([]string, len(eval.TestIndex)),
		ActualPrices:    eval.Actual,
		PredictedPrices: eval.Predicted,
		MSE:             eval.Metrics.MSE,
		R2:              eval.Metrics.R2,
	}
	for i, idx := range eval.TestIndex {
		report.TestDates[i] = util.FormatDate(targetDate(ds, idx))
	}

	if err := uc.pipeline.stage("persist", func() error { return uc.persist(ctx, ds.Scaler.Encode, fm.Encode, report) }); err != nil {
		return nil, err
	}

	run := models.TrainingRun{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: uc.now(),
		Estimator:  fm.Kind(),
		Rows:       ds.Len(),
		Metrics:    eval.Metrics,
		Trigger:    trigger,
	}
	uc.metrics.RecordTraining(run.Metrics.MSE, run.Metrics.R2, run.Rows)
	if err := uc.recorder.RecordTraining(ctx, run); err != nil {
		log.Warn("record training run", applogger.Error(err))
	}
	if err := uc.publisher.PublishTraining(ctx, models.NewTrainingEvent(run)); err != nil {
		log.Warn("publish training event", applogger.Error(err))
	}

	log.Info("training finished",
		applogger.Int("rows", run.Rows),
		applogger.Float64("mse", run.Metrics.MSE),
		applogger.Float64("r2", run.Metrics.R2),
		applogger.Duration("took", run.FinishedAt.Sub(started)),
	)
	return report, nil
}

// targetDate is the date of the close that row idx predicts.
func targetDate(ds *dataset.Dataset, idx int) time.Time {
	if idx+1 < len(ds.Dates) {
		return ds.Dates[idx+1]
	}
	return ds.Latest.Date
}

// persist writes the scaler before the model so a model is never visible without
// the scaler it was trained with.
func (uc *TrainingUseCase) persist(
	ctx context.Context,
	encodeScaler, encodeModel func() ([]byte, error),
	report *models.EvaluationReport,
) error {
	sb, err := encodeScaler()
	if err != nil {
		return models.WrapPipelineError(models.ErrTraining, "persist", err, "encode scaler")
	}
	mb, err := encodeModel()
	if err != nil {
		return models.WrapPipelineError(models.ErrTraining, "persist", err, "encode model")
	}
	rb, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return models.WrapPipelineError(models.ErrTraining, "persist", err, "encode report")
	}
	for _, a := range []struct {
		name string
		data []byte
	}{
		{uc.cfg.ScalerFile, sb},
		{uc.cfg.ModelFile, mb},
		{uc.cfg.ReportFile, rb},
	} {
		if err := uc.store.Put(ctx, a.name, a.data); err != nil {
			return models.WrapPipelineError(models.ErrTraining, "persist", err, "write %s", a.name)
		}
	}
	return nil
}
