package eval

import (
	"fmt"

	"crf-trainer/internal/core/types"
)

// AnnotationSet returns the gold entities of a sentence.
func AnnotationSet(sentence types.Sentence) []types.Entity {
	return types.DecodeEntities(sentence.Texts(), sentence.Labels())
}

// PredictionSet returns the entities of a predicted label sequence over a sentence.
func PredictionSet(sentence types.Sentence, labels []string) []types.Entity {
	return types.DecodeEntities(sentence.Texts(), labels)
}

type LabelCounts struct {
	TP int
	FP int
	FN int
}

// MatchResult holds exact-span match counts for each declared label, in label order.
type MatchResult struct {
	Labels []string
	Counts map[string]LabelCounts
}

// Match aligns gold and predicted entity sets sentence by sentence. An entity is a
// true positive only when label, start and end all agree. Entities whose label is not
// declared are ignored.
func Match(gold, pred [][]types.Entity, labels []string) (MatchResult, error) {
	if len(gold) != len(pred) {
		return MatchResult{}, fmt.Errorf("cannot match %d gold sentences against %d predicted sentences", len(gold), len(pred))
	}

	result := MatchResult{
		Labels: append([]string(nil), labels...),
		Counts: make(map[string]LabelCounts, len(labels)),
	}
	for _, label := range labels {
		result.Counts[label] = LabelCounts{}
	}

	for i := range gold {
		goldKeys := make(map[types.Key]struct{}, len(gold[i]))
		for _, e := range gold[i] {
			goldKeys[e.Key()] = struct{}{}
		}
		predKeys := make(map[types.Key]struct{}, len(pred[i]))
		for _, e := range pred[i] {
			predKeys[e.Key()] = struct{}{}
		}

		for key := range predKeys {
			counts, ok := result.Counts[key.Label]
			if !ok {
				continue
			}
			if _, hit := goldKeys[key]; hit {
				counts.TP++
			} else {
				counts.FP++
			}
			result.Counts[key.Label] = counts
		}
		for key := range goldKeys {
			counts, ok := result.Counts[key.Label]
			if !ok {
				continue
			}
			if _, hit := predKeys[key]; !hit {
				counts.FN++
				result.Counts[key.Label] = counts
			}
		}
	}

	return result, nil
}
