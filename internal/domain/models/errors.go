package models

import (
	"errors"
	"fmt"
)

// Pipeline failure kinds. Match with errors.Is.
var (
	ErrDataLoad = errors.New("data load error")
	ErrFeature  = errors.New("feature error")
	ErrAssembly = errors.New("assembly error")
	ErrTraining = errors.New("training error")
	ErrForecast = errors.New("forecast error")
)

// ErrArtifactNotFound is wrapped by ErrForecast when the scaler or model has not been trained yet.
var ErrArtifactNotFound = errors.New("artifact not found")

// PipelineError carries the failure kind, the stage that raised it and an optional cause.
type PipelineError struct {
	Kind  error
	Stage string
	Msg   string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Stage, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Msg)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Is reports whether target is the error kind of e.
func (e *PipelineError) Is(target error) bool { return e.Kind == target }

// NewPipelineError builds a PipelineError with a formatted message.
func NewPipelineError(kind error, stage, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...)}
}

// WrapPipelineError builds a PipelineError around cause.
func WrapPipelineError(kind error, stage string, cause error, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// ErrorKind returns a short label for the kind of err, used for metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataLoad):
		return "data_load"
	case errors.Is(err, ErrFeature):
		return "feature"
	case errors.Is(err, ErrAssembly):
		return "assembly"
	case errors.Is(err, ErrTraining):
		return "training"
	case errors.Is(err, ErrForecast):
		return "forecast"
	default:
		return "internal"
	}
}
