package api

import (
	"encoding/json"
	"log/slog"

	"crf-trainer/internal/database"
	"crf-trainer/pkg/api"
)

func convertScore(s database.LabelScore) api.LabelScore {
	return api.LabelScore{
		Label:     s.Label,
		TP:        s.TP,
		FP:        s.FP,
		FN:        s.FN,
		Precision: s.Precision,
		Recall:    s.Recall,
		F1:        s.F1,
	}
}

func convertRun(r database.TrainingRun) api.Run {
	run := api.Run{
		Id:               r.Id,
		Name:             r.Name,
		Status:           r.Status,
		DataPath:         r.DataPath,
		ModelDir:         r.ModelDir,
		FeatureType:      r.FeatureType,
		Layout:           r.Layout,
		FoldCount:        r.FoldCount,
		CrossValidation:  r.CrossValidation,
		Seed:             r.Seed,
		ArtifactLocation: r.ArtifactLocation.String,
		Error:            r.Error.String,
		CreationTime:     r.CreationTime,
	}

	if len(r.Labels) > 0 {
		if err := json.Unmarshal(r.Labels, &run.Labels); err != nil {
			slog.Error("invalid labels stored for run", "run_id", r.Id, "error", err)
		}
	}
	if r.CompletionTime.Valid {
		t := r.CompletionTime.Time
		run.CompletionTime = &t
	}
	return run
}

func convertRuns(rs []database.TrainingRun) []api.Run {
	runs := make([]api.Run, 0, len(rs))
	for _, r := range rs {
		runs = append(runs, convertRun(r))
	}
	return runs
}

// convertRunDetails attaches folds and scores. Scores stored under
// database.SummaryFold become the run level table.
func convertRunDetails(r database.TrainingRun) api.Run {
	run := convertRun(r)
	run.ChannelSettings = json.RawMessage(r.ChannelSettings)

	byFold := make(map[int][]api.LabelScore)
	for _, s := range r.Scores {
		byFold[s.Fold] = append(byFold[s.Fold], convertScore(s))
	}

	run.Scores = byFold[database.SummaryFold]
	for _, f := range r.Folds {
		run.Folds = append(run.Folds, api.Fold{
			Fold:           f.Fold,
			Dir:            f.Dir,
			TrainSentences: f.TrainSentences,
			TestSentences:  f.TestSentences,
			ErrorCount:     f.ErrorCount,
			CompletionTime: f.CompletionTime,
			Scores:         byFold[f.Fold],
		})
	}
	return run
}
