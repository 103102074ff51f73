package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"crf-trainer/internal/core/eval"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RunParams struct {
	Name            string
	DataPath        string
	ModelDir        string
	FeatureType     string
	Layout          string
	Folds           int
	CrossValidation bool
	Seed            int64
	Labels          []string
	ChannelSettings any
}

func CreateRun(ctx context.Context, db *gorm.DB, params RunParams) (*TrainingRun, error) {
	labels, err := json.Marshal(params.Labels)
	if err != nil {
		return nil, fmt.Errorf("could not marshal labels: %w", err)
	}
	settings, err := json.Marshal(params.ChannelSettings)
	if err != nil {
		return nil, fmt.Errorf("could not marshal channel settings: %w", err)
	}

	run := TrainingRun{
		Id:              uuid.New(),
		Name:            params.Name,
		Status:          RunRunning,
		DataPath:        params.DataPath,
		ModelDir:        params.ModelDir,
		FeatureType:     params.FeatureType,
		Layout:          params.Layout,
		FoldCount:       params.Folds,
		CrossValidation: params.CrossValidation,
		Seed:            params.Seed,
		Labels:          datatypes.JSON(labels),
		ChannelSettings: datatypes.JSON(settings),
		CreationTime:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to create training run: %w", err)
	}
	return &run, nil
}

func UpdateRunStatus(ctx context.Context, txn *gorm.DB, runId uuid.UUID, status string) error {
	updates := map[string]any{"status": status}
	if status == RunCompleted || status == RunFailed {
		updates["completion_time"] = time.Now().UTC()
	}

	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).Updates(updates).Error; err != nil {
		slog.Error("error updating run status", "run_id", runId, "status", status, "error", err)
		return err
	}
	return nil
}

// FailRun marks the run FAILED and records the error message.
func FailRun(ctx context.Context, txn *gorm.DB, runId uuid.UUID, runErr error) error {
	updates := map[string]any{
		"status":          RunFailed,
		"completion_time": time.Now().UTC(),
		"error":           sql.NullString{String: runErr.Error(), Valid: true},
	}
	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).Updates(updates).Error; err != nil {
		slog.Error("error marking run failed", "run_id", runId, "error", err)
		return err
	}
	return nil
}

func SetArtifactLocation(ctx context.Context, txn *gorm.DB, runId uuid.UUID, location string) error {
	if err := txn.WithContext(ctx).Model(&TrainingRun{Id: runId}).
		Update("artifact_location", sql.NullString{String: location, Valid: true}).Error; err != nil {
		return fmt.Errorf("failed to set artifact location for run %s: %w", runId, err)
	}
	return nil
}

// SaveScores replaces the label scores stored for fold of a run.
func SaveScores(ctx context.Context, db *gorm.DB, runId uuid.UUID, fold int, perf eval.Performance) error {
	scores := make([]LabelScore, len(perf))
	for i, s := range perf {
		scores[i] = LabelScore{
			RunId:     runId,
			Fold:      fold,
			Label:     s.Label,
			TP:        s.TP,
			FP:        s.FP,
			FN:        s.FN,
			Precision: s.Precision,
			Recall:    s.Recall,
			F1:        s.F1,
		}
	}

	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("run_id = ? AND fold = ?", runId, fold).Delete(&LabelScore{}).Error; err != nil {
			return fmt.Errorf("could not clear old scores: %w", err)
		}
		if len(scores) > 0 {
			if err := txn.Create(&scores).Error; err != nil {
				return fmt.Errorf("could not save scores: %w", err)
			}
		}
		return nil
	})
}

type FoldParams struct {
	Fold           int
	Dir            string
	TrainSentences int
	TestSentences  int
	ErrorCount     int
	Performance    eval.Performance
}

func SaveFold(ctx context.Context, db *gorm.DB, runId uuid.UUID, params FoldParams) error {
	fold := FoldRun{
		RunId:          runId,
		Fold:           params.Fold,
		Dir:            params.Dir,
		TrainSentences: params.TrainSentences,
		TestSentences:  params.TestSentences,
		ErrorCount:     params.ErrorCount,
		CompletionTime: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&fold).Error; err != nil {
		return fmt.Errorf("failed to save fold %d of run %s: %w", params.Fold, runId, err)
	}
	return SaveScores(ctx, db, runId, params.Fold, params.Performance)
}

// CompleteRun stores the final scores and marks the run COMPLETED.
func CompleteRun(ctx context.Context, db *gorm.DB, runId uuid.UUID, perf eval.Performance) error {
	if err := SaveScores(ctx, db, runId, SummaryFold, perf); err != nil {
		return err
	}
	return UpdateRunStatus(ctx, db, runId, RunCompleted)
}

func GetRun(ctx context.Context, db *gorm.DB, runId uuid.UUID) (*TrainingRun, error) {
	var run TrainingRun
	if err := db.WithContext(ctx).
		Preload("Folds", func(db *gorm.DB) *gorm.DB { return db.Order("fold") }).
		Preload("Scores", func(db *gorm.DB) *gorm.DB { return db.Order("fold, label") }).
		First(&run, "id = ?", runId).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first, optionally filtered by status. A limit of 0
// returns every run.
func ListRuns(ctx context.Context, db *gorm.DB, status string, limit int) ([]TrainingRun, error) {
	query := db.WithContext(ctx).Order("creation_time DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []TrainingRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("error listing training runs: %w", err)
	}
	return runs, nil
}
