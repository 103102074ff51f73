package database

import (
	"context"
	"log/slog"

	"crf-trainer/internal/core"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunRecorder persists every completed fold of a training run. Persistence errors do
// not interrupt training; the first one is kept and returned by Err.
type RunRecorder struct {
	ctx   context.Context
	db    *gorm.DB
	runId uuid.UUID
	err   error
}

var _ core.RunObserver = (*RunRecorder)(nil)

func NewRunRecorder(ctx context.Context, db *gorm.DB, runId uuid.UUID) *RunRecorder {
	return &RunRecorder{ctx: ctx, db: db, runId: runId}
}

func (r *RunRecorder) OnFoldStart(fold, folds int, dir string) {
	slog.Debug("recording fold", "run_id", r.runId, "fold", fold, "folds", folds, "dir", dir)
}

func (r *RunRecorder) OnFoldComplete(result core.FoldResult) {
	err := SaveFold(r.ctx, r.db, r.runId, FoldParams{
		Fold:           result.Fold,
		Dir:            result.Dir,
		TrainSentences: result.Train,
		TestSentences:  result.Test,
		ErrorCount:     result.Errors,
		Performance:    result.Performance,
	})
	if err != nil {
		slog.Error("error recording fold", "run_id", r.runId, "fold", result.Fold, "error", err)
		if r.err == nil {
			r.err = err
		}
	}
}

func (r *RunRecorder) Err() error {
	return r.err
}
