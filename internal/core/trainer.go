package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"crf-trainer/internal/core/crfpp"
	"crf-trainer/internal/core/eval"
	"crf-trainer/internal/core/features"
	"crf-trainer/internal/core/types"
)

// Files written under a model directory M and its temp sibling.
const (
	ModelFile       = "model"
	TemplateFile    = "template"
	LogFile         = "log.csv"
	PerformanceFile = "performance.csv"
	FeatureFile     = "feats.txt"
)

var (
	ErrTaggerOutput     = errors.New("tagger output does not match sentence length")
	ErrInvalidFoldCount = errors.New("fold count must be at least 2")
)

// ArtifactLayout controls where cross-validation folds write their artifacts.
type ArtifactLayout string

const (
	// OverwriteArtifacts has every fold write to the model directory, so only the last
	// fold's model, log and performance files remain.
	OverwriteArtifacts ArtifactLayout = "overwrite"
	// PerFoldArtifacts writes fold i to M/fold_i.
	PerFoldArtifacts ArtifactLayout = "per_fold"
)

func ParseArtifactLayout(s string) (ArtifactLayout, error) {
	switch ArtifactLayout(s) {
	case "", OverwriteArtifacts:
		return OverwriteArtifacts, nil
	case PerFoldArtifacts:
		return PerFoldArtifacts, nil
	default:
		return "", fmt.Errorf("unknown artifact layout %q", s)
	}
}

type Splitter interface {
	Split(sentences []types.Sentence, folds int, seed int64, fold int) (train []types.Sentence, test []types.Sentence, err error)
}

type FoldResult struct {
	Fold        int
	Dir         string
	Train       int
	Test        int
	Errors      int
	Performance eval.Performance
}

// RunObserver is notified around every single-run driver invocation of Train.
type RunObserver interface {
	OnFoldStart(fold, folds int, dir string)
	OnFoldComplete(result FoldResult)
}

type TrainerOptions struct {
	FeatureType string
	Layout      ArtifactLayout
	Progress    Progress
	Observer    RunObserver
}

type Trainer struct {
	builder  features.Builder
	engine   crfpp.Engine
	splitter Splitter
	layout   ArtifactLayout
	progress Progress
	observer RunObserver
}

func NewTrainer(engine crfpp.Engine, splitter Splitter, opts TrainerOptions) (*Trainer, error) {
	featureType, err := features.ParseFeatureType(opts.FeatureType)
	if err != nil {
		return nil, err
	}
	builder, err := features.NewBuilder(featureType)
	if err != nil {
		return nil, err
	}

	layout, err := ParseArtifactLayout(string(opts.Layout))
	if err != nil {
		return nil, err
	}

	progress := opts.Progress
	if progress == nil {
		progress = NoProgress{}
	}

	return &Trainer{
		builder:  builder,
		engine:   engine,
		splitter: splitter,
		layout:   layout,
		progress: progress,
		observer: opts.Observer,
	}, nil
}

// TempDir returns the sibling work directory of a model directory: the last "model"
// in its base name becomes "_tmp", or "_tmp" is appended when there is none.
func TempDir(modelDir string) string {
	clean := filepath.Clean(modelDir)
	base := filepath.Base(clean)
	if i := strings.LastIndex(base, "model"); i >= 0 {
		base = base[:i] + "_tmp" + base[i+len("model"):]
	} else {
		base += "_tmp"
	}
	return filepath.Join(filepath.Dir(clean), base)
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	return nil
}

// Fit builds the labeled feature table for sentences, writes it together with a
// template, and trains a model into modelDir.
func (t *Trainer) Fit(ctx context.Context, modelDir string, sentences []types.Sentence, settings features.ChannelSettings) error {
	if len(sentences) == 0 {
		return fmt.Errorf("no training sentences")
	}

	tmpDir := TempDir(modelDir)
	if err := ensureDir(tmpDir); err != nil {
		return err
	}
	if err := ensureDir(modelDir); err != nil {
		return err
	}

	modelPath := filepath.Join(modelDir, ModelFile)
	templatePath := filepath.Join(modelDir, TemplateFile)
	featurePath := filepath.Join(tmpDir, FeatureFile)

	table := features.NewTable()
	t.progress.Start(StageFit, len(sentences))
	for idx, sentence := range sentences {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.progress.Step(StageFit, idx)

		rows, err := features.SentenceRows(t.builder, sentence, settings)
		if err != nil {
			return err
		}
		if err := table.AppendSentence(rows); err != nil {
			return fmt.Errorf("error adding sentence %d to feature table: %w", idx, err)
		}
	}
	t.progress.Finish(StageFit)

	if err := table.WriteFile(featurePath, true); err != nil {
		return err
	}
	slog.Info("feature table written", "path", featurePath, "sentences", table.Sentences(), "rows", table.Len(), "columns", table.Columns())

	if err := crfpp.GenerateTemplate(templatePath, table.Columns()-1, settings.Window); err != nil {
		return err
	}

	if err := t.engine.Fit(ctx, featurePath, modelPath, templatePath); err != nil {
		return fmt.Errorf("error training model in %s: %w", modelDir, err)
	}
	return nil
}

// Evaluate tags every sentence with the model in modelDir and scores the predictions
// against the gold annotations restricted to labels.
func (t *Trainer) Evaluate(ctx context.Context, modelDir string, sentences []types.Sentence, settings features.ChannelSettings, labels []string) (eval.Performance, eval.ErrorLog, error) {
	modelPath := filepath.Join(modelDir, ModelFile)

	predEntities := make([][]types.Entity, 0, len(sentences))
	annoEntities := make([][]types.Entity, 0, len(sentences))
	errorLog := make(eval.ErrorLog, 0, len(sentences))

	t.progress.Start(StageEvaluate, len(sentences))
	for idx, sentence := range sentences {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		t.progress.Step(StageEvaluate, idx)

		rows, err := features.SentenceRows(t.builder, sentence, settings)
		if err != nil {
			return nil, nil, err
		}
		predLabels, err := t.engine.Tag(ctx, modelPath, features.StripLabels(rows))
		if err != nil {
			return nil, nil, fmt.Errorf("error tagging sentence %d (%s): %w", idx, sentence.Id, err)
		}
		if len(predLabels) != len(sentence.Tokens) {
			return nil, nil, fmt.Errorf("%w: got %d labels for %d tokens in sentence %d (%s)", ErrTaggerOutput, len(predLabels), len(sentence.Tokens), idx, sentence.Id)
		}

		pred := eval.PredictionSet(sentence, predLabels)
		anno := eval.AnnotationSet(sentence)

		predEntities = append(predEntities, pred)
		annoEntities = append(annoEntities, anno)
		errorLog = append(errorLog, eval.LogError(idx, sentence, pred, anno))
	}
	t.progress.Finish(StageEvaluate)

	result, err := eval.Match(annoEntities, predEntities, labels)
	if err != nil {
		return nil, nil, err
	}
	return eval.CalculateF1(result), errorLog, nil
}

// TrainModel fits on train, evaluates on test and writes the error log and
// performance table into modelDir.
func (t *Trainer) TrainModel(ctx context.Context, modelDir string, train, test []types.Sentence, settings features.ChannelSettings, labels []string) (eval.Performance, error) {
	perf, _, err := t.trainModel(ctx, modelDir, train, test, settings, labels)
	return perf, err
}

func (t *Trainer) trainModel(ctx context.Context, modelDir string, train, test []types.Sentence, settings features.ChannelSettings, labels []string) (eval.Performance, eval.ErrorLog, error) {
	if err := t.Fit(ctx, modelDir, train, settings); err != nil {
		return nil, nil, err
	}

	perf, errorLog, err := t.Evaluate(ctx, modelDir, test, settings, labels)
	if err != nil {
		return nil, nil, err
	}

	if err := errorLog.WriteFile(filepath.Join(modelDir, LogFile)); err != nil {
		return nil, nil, err
	}
	if err := perf.WriteFile(filepath.Join(modelDir, PerformanceFile)); err != nil {
		return nil, nil, err
	}
	return perf, errorLog, nil
}

func (t *Trainer) foldDir(modelDir string, fold int, crossValidation bool) string {
	if !crossValidation || t.layout != PerFoldArtifacts {
		return modelDir
	}
	return filepath.Join(modelDir, fmt.Sprintf("fold_%d", fold))
}

func (t *Trainer) runFold(ctx context.Context, modelDir string, sentences []types.Sentence, settings features.ChannelSettings, labels []string, folds, fold int, seed int64, crossValidation bool) (eval.Performance, error) {
	train, test, err := t.splitter.Split(sentences, folds, seed, fold)
	if err != nil {
		return nil, fmt.Errorf("error splitting fold %d/%d: %w", fold, folds, err)
	}

	dir := t.foldDir(modelDir, fold, crossValidation)
	slog.Info("starting training run", "fold", fold, "folds", folds, "dir", dir, "train", len(train), "test", len(test))
	if t.observer != nil {
		t.observer.OnFoldStart(fold, folds, dir)
	}

	perf, errorLog, err := t.trainModel(ctx, dir, train, test, settings, labels)
	if err != nil {
		return nil, fmt.Errorf("fold %d/%d: %w", fold, folds, err)
	}

	if t.observer != nil {
		t.observer.OnFoldComplete(FoldResult{
			Fold:        fold,
			Dir:         dir,
			Train:       len(train),
			Test:        len(test),
			Errors:      errorLog.Errors(),
			Performance: perf,
		})
	}
	return perf, nil
}

// Train runs a single split (fold 0) or, with crossValidation, every fold in
// [0, folds) and returns the element-wise mean of the fold tables.
func (t *Trainer) Train(ctx context.Context, modelDir string, sentences []types.Sentence, settings features.ChannelSettings, labels []string, folds int, crossValidation bool, seed int64) (eval.Performance, error) {
	// Fold 0 of a single fold partition would leave nothing to train on.
	if folds < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidFoldCount, folds)
	}

	if !crossValidation {
		perf, err := t.runFold(ctx, modelDir, sentences, settings, labels, folds, 0, seed, false)
		if err != nil {
			return nil, err
		}
		if micro, ok := perf.Get(eval.MicroLabel); ok {
			slog.Info("final performance", "precision", micro.Precision, "recall", micro.Recall, "f1", micro.F1)
		}
		return perf, nil
	}

	tables := make([]eval.Performance, 0, folds)
	for fold := 0; fold < folds; fold++ {
		perf, err := t.runFold(ctx, modelDir, sentences, settings, labels, folds, fold, seed, true)
		if err != nil {
			return nil, err
		}
		tables = append(tables, perf)
	}

	perf, err := eval.Average(tables)
	if err != nil {
		return nil, err
	}
	if micro, ok := perf.Get(eval.MicroLabel); ok {
		slog.Info("final average performance", "folds", folds, "precision", micro.Precision, "recall", micro.Recall, "f1", micro.F1)
	}
	return perf, nil
}
