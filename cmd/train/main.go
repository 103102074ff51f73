package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"crf-trainer/cmd"
	"crf-trainer/internal/config"
	"crf-trainer/internal/core"
	"crf-trainer/internal/core/crfpp"
	"crf-trainer/internal/core/eval"
	"crf-trainer/internal/core/features"
	"crf-trainer/internal/core/split"
	"crf-trainer/internal/core/types"
	"crf-trainer/internal/corpus"
	"crf-trainer/internal/database"
	"crf-trainer/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type options struct {
	envFile     string
	dataPath    string
	format      string
	attrColumns string
	modelDir    string
	channels    string
	labels      string
	folds       int
	cv          bool
	seed        int64
	featureType string
	layout      string
	progress    string
	publish     bool
	name        string
	logLevel    string
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.envFile, "env", "", "path to load env from")
	flag.StringVar(&opts.dataPath, "data", "", "path to the annotated corpus")
	flag.StringVar(&opts.format, "format", string(corpus.JSONL), "corpus format (jsonl, conll)")
	flag.StringVar(&opts.attrColumns, "columns", "", "comma separated names of the conll attribute columns")
	flag.StringVar(&opts.modelDir, "model-dir", "", "model directory")
	flag.StringVar(&opts.channels, "channels", "", "channel settings yaml, defaults to the embedded settings")
	flag.StringVar(&opts.labels, "labels", "", "comma separated entity labels to score, defaults to every label in the corpus")
	flag.IntVar(&opts.folds, "folds", 5, "number of folds, at least 2")
	flag.BoolVar(&opts.cv, "cv", false, "run k-fold cross validation instead of a single split")
	flag.Int64Var(&opts.seed, "seed", 42, "shuffle seed for the fold partition")
	flag.StringVar(&opts.featureType, "feature-type", string(features.StringFeatures), "feature type (str, vec)")
	flag.StringVar(&opts.layout, "layout", string(core.OverwriteArtifacts), "artifact layout for cross validation (overwrite, per_fold)")
	flag.StringVar(&opts.progress, "progress", "log", "progress reporting (log, bar, none)")
	flag.BoolVar(&opts.publish, "publish", false, "upload the model directory to the object store")
	flag.StringVar(&opts.name, "name", "", "run name, defaults to the model directory name")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	if opts.dataPath == "" || opts.modelDir == "" {
		flag.Usage()
		log.Fatalf("-data and -model-dir are required")
	}
	if opts.name == "" {
		opts.name = filepath.Base(filepath.Clean(opts.modelDir))
	}
	return opts
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadSettings(path string) (features.ChannelSettings, error) {
	if path == "" {
		return features.DefaultChannelSettings(), nil
	}
	return features.LoadChannelSettings(path)
}

func train(ctx context.Context, opts options, cfg *config.Config, db *gorm.DB) error {
	format, err := corpus.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	sentences, err := corpus.Load(opts.dataPath, format, splitList(opts.attrColumns))
	if err != nil {
		return err
	}

	settings, err := loadSettings(opts.channels)
	if err != nil {
		return err
	}

	labels := splitList(opts.labels)
	if len(labels) == 0 {
		labels = corpus.Labels(sentences)
		slog.Info("scoring labels found in corpus", "labels", labels)
	}
	if len(labels) == 0 {
		return fmt.Errorf("no entity labels to score")
	}

	progress, err := core.NewProgress(opts.progress, os.Stderr)
	if err != nil {
		return err
	}

	engine, err := crfpp.NewCRFPP(cfg.CRF, crfpp.ExecRunner)
	if err != nil {
		return err
	}

	run, err := database.CreateRun(ctx, db, database.RunParams{
		Name:            opts.name,
		DataPath:        opts.dataPath,
		ModelDir:        opts.modelDir,
		FeatureType:     opts.featureType,
		Layout:          opts.layout,
		Folds:           opts.folds,
		CrossValidation: opts.cv,
		Seed:            opts.seed,
		Labels:          labels,
		ChannelSettings: settings,
	})
	if err != nil {
		return err
	}
	slog.Info("created training run", "run_id", run.Id, "name", run.Name)

	perf, err := runTraining(ctx, opts, engine, progress, settings, labels, sentences, db, run)
	if err != nil {
		markFailed(db, run.Id, err)
		return err
	}

	if err := perf.WriteTSV(os.Stdout); err != nil {
		return err
	}

	if opts.publish {
		store, err := storage.NewObjectStore(cfg)
		if err != nil {
			return err
		}
		location, err := storage.PublishModelDir(ctx, store, cfg.ModelBucketName, run.Id.String(), opts.modelDir)
		if err != nil {
			return err
		}
		if err := database.SetArtifactLocation(ctx, db, run.Id, location); err != nil {
			return err
		}
	}

	return nil
}

// markFailed records cause on the run. The run context may already be cancelled, so
// the update uses a fresh one.
func markFailed(db *gorm.DB, runId uuid.UUID, cause error) bool {
	if err := database.FailRun(context.Background(), db, runId, cause); err != nil {
		slog.Error("error marking run as failed", "run_id", runId, "cause", cause, "error", err)
		return false
	}
	return true
}

func runTraining(ctx context.Context, opts options, engine crfpp.Engine, progress core.Progress, settings features.ChannelSettings, labels []string, sentences []types.Sentence, db *gorm.DB, run *database.TrainingRun) (eval.Performance, error) {
	recorder := database.NewRunRecorder(ctx, db, run.Id)

	trainer, err := core.NewTrainer(engine, split.KFold{}, core.TrainerOptions{
		FeatureType: opts.featureType,
		Layout:      core.ArtifactLayout(opts.layout),
		Progress:    progress,
		Observer:    recorder,
	})
	if err != nil {
		return nil, err
	}

	perf, err := trainer.Train(ctx, opts.modelDir, sentences, settings, labels, opts.folds, opts.cv, opts.seed)
	if err != nil {
		return nil, err
	}
	if err := recorder.Err(); err != nil {
		return nil, fmt.Errorf("error recording folds: %w", err)
	}
	if err := database.CompleteRun(ctx, db, run.Id, perf); err != nil {
		return nil, err
	}
	return perf, nil
}

func main() {
	opts := parseFlags()
	cmd.SetupLogging(opts.logLevel)

	cfg := cmd.LoadConfig(opts.envFile)
	db := cmd.OpenRegistry(cfg)

	ctx, stop := cmd.SignalContext()
	defer stop()

	if err := train(ctx, opts, cfg, db); err != nil {
		slog.Error("training failed", "error", err)
		stop()
		os.Exit(1)
	}
}
