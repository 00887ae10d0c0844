// pkg/pipeline/error.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Stage names a step of a pipeline run
type Stage string

const (
	StageConnect        Stage = "connect"
	StageIngest         Stage = "ingest"
	StageCommitRaw      Stage = "commit_raw"
	StageSnapshot       Stage = "snapshot"
	StageTransform      Stage = "transform"
	StageInfer          Stage = "infer"
	StageCommitInferred Stage = "commit_inferred"
	StageValidate       Stage = "validate"
)

// ErrorCategory classifies what failed during a run
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryTransport
	ErrorCategoryStorage
	ErrorCategorySnapshot
	ErrorCategoryTransform
	ErrorCategoryClassifier
	ErrorCategoryValidation
	ErrorCategoryCancelled
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryTransport:
		return "Transport"
	case ErrorCategoryStorage:
		return "Storage"
	case ErrorCategorySnapshot:
		return "Snapshot"
	case ErrorCategoryTransform:
		return "Transform"
	case ErrorCategoryClassifier:
		return "Classifier"
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategoryCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// MarshalText lets categories key JSON maps by name
func (ec ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(ec.String()), nil
}

// stageCategories is the category of a failure in each stage
var stageCategories = map[Stage]ErrorCategory{
	StageConnect:        ErrorCategoryStorage,
	StageIngest:         ErrorCategoryTransport,
	StageCommitRaw:      ErrorCategoryStorage,
	StageSnapshot:       ErrorCategorySnapshot,
	StageTransform:      ErrorCategoryTransform,
	StageInfer:          ErrorCategoryClassifier,
	StageCommitInferred: ErrorCategoryStorage,
	StageValidate:       ErrorCategoryValidation,
}

// CategorizeError determines the category of an error raised in a stage
func CategorizeError(stage Stage, err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryCancelled
	}
	if category, ok := stageCategories[stage]; ok {
		return category
	}
	return ErrorCategoryNone
}

// StageError is the error that ended a run
type StageError struct {
	Stage     Stage
	Category  ErrorCategory
	Err       error
	Timestamp time.Time
}

// NewStageError wraps err with the stage it happened in
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{
		Stage:     stage,
		Category:  CategorizeError(stage, err),
		Err:       err,
		Timestamp: time.Now(),
	}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("[%s] stage %s failed: %v", e.Category, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
