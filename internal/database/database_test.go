package database

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"crf-trainer/internal/core"
	"crf-trainer/internal/core/eval"
	"crf-trainer/internal/core/features"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase("sqlite://" + filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	return db
}

func createTestRun(t *testing.T, db *gorm.DB) *TrainingRun {
	t.Helper()
	run, err := CreateRun(context.Background(), db, RunParams{
		Name:            "conll",
		DataPath:        "train.conll",
		ModelDir:        "/models/crf/model",
		FeatureType:     "str",
		Layout:          "overwrite",
		Folds:           2,
		CrossValidation: true,
		Seed:            7,
		Labels:          []string{"PER", "LOC"},
		ChannelSettings: features.DefaultChannelSettings(),
	})
	require.NoError(t, err)
	return run
}

func perf(f1 float64) eval.Performance {
	return eval.Performance{
		{Label: "PER", TP: 1, Precision: f1, Recall: f1, F1: f1},
		{Label: eval.MicroLabel, TP: 1, Precision: f1, Recall: f1, F1: f1},
	}
}

func TestCreateAndGetRun(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db)

	got, err := GetRun(context.Background(), db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, RunRunning, got.Status)
	assert.Equal(t, 2, got.FoldCount)
	assert.False(t, got.CompletionTime.Valid)

	var labels []string
	require.NoError(t, json.Unmarshal(got.Labels, &labels))
	assert.Equal(t, []string{"PER", "LOC"}, labels)

	var settings features.ChannelSettings
	require.NoError(t, json.Unmarshal(got.ChannelSettings, &settings))
	assert.Equal(t, features.DefaultChannelSettings(), settings)

	_, err = GetRun(context.Background(), db, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecorderAndCompleteRun(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db)
	ctx := context.Background()

	recorder := NewRunRecorder(ctx, db, run.Id)
	recorder.OnFoldStart(0, 2, run.ModelDir)
	recorder.OnFoldComplete(core.FoldResult{Fold: 0, Dir: run.ModelDir, Train: 8, Test: 2, Errors: 1, Performance: perf(0.5)})
	recorder.OnFoldComplete(core.FoldResult{Fold: 1, Dir: run.ModelDir, Train: 8, Test: 2, Performance: perf(1)})
	require.NoError(t, recorder.Err())

	require.NoError(t, CompleteRun(ctx, db, run.Id, perf(0.75)))
	require.NoError(t, SetArtifactLocation(ctx, db, run.Id, "s3://models/"+run.Id.String()))

	got, err := GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, got.Status)
	assert.True(t, got.CompletionTime.Valid)
	assert.Equal(t, "s3://models/"+run.Id.String(), got.ArtifactLocation.String)

	require.Len(t, got.Folds, 2)
	assert.Equal(t, 1, got.Folds[0].ErrorCount)
	assert.Equal(t, 8, got.Folds[1].TrainSentences)

	require.Len(t, got.Scores, 6)
	assert.Equal(t, SummaryFold, got.Scores[0].Fold)
	assert.Equal(t, eval.MicroLabel, got.Scores[0].Label)
	assert.Equal(t, 0.75, got.Scores[0].F1)
}

func TestSaveFoldReplacesScores(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db)
	ctx := context.Background()

	require.NoError(t, SaveFold(ctx, db, run.Id, FoldParams{Fold: 0, Performance: perf(0.2)}))
	require.NoError(t, SaveFold(ctx, db, run.Id, FoldParams{Fold: 0, ErrorCount: 3, Performance: perf(0.4)}))

	got, err := GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	require.Len(t, got.Folds, 1)
	assert.Equal(t, 3, got.Folds[0].ErrorCount)
	require.Len(t, got.Scores, 2)
	assert.Equal(t, 0.4, got.Scores[0].F1)
}

func TestFailRun(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db)

	require.NoError(t, FailRun(context.Background(), db, run.Id, errors.New("crf_learn exited with status 1")))

	runs, err := ListRuns(context.Background(), db, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunFailed, runs[0].Status)
	assert.Equal(t, "crf_learn exited with status 1", runs[0].Error.String)
}

func TestListRunsFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	running := createTestRun(t, db)
	failed := createTestRun(t, db)
	require.NoError(t, FailRun(ctx, db, failed.Id, errors.New("boom")))

	runs, err := ListRuns(ctx, db, "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = ListRuns(ctx, db, RunFailed, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, failed.Id, runs[0].Id)

	runs, err = ListRuns(ctx, db, RunRunning, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, running.Id, runs[0].Id)

	runs, err = ListRuns(ctx, db, "", 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecorderKeepsFirstError(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recorder := NewRunRecorder(ctx, db, run.Id)
	recorder.OnFoldComplete(core.FoldResult{Fold: 0, Performance: perf(1)})
	assert.Error(t, recorder.Err())
}

func TestDialectorFor(t *testing.T) {
	_, err := dialectorFor("")
	assert.Error(t, err)

	d, err := dialectorFor("postgresql://user:pw@localhost:5432/crf")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = dialectorFor("sqlite://:memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}
