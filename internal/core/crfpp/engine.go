package crfpp

import (
	"context"
	"fmt"
	"strings"

	"crf-trainer/internal/core/features"
)

// Engine is the external sequence learner/tagger.
type Engine interface {
	// Fit trains a model from a labeled feature file and a template, writing it to modelPath.
	Fit(ctx context.Context, featureFile, modelPath, templatePath string) error

	// Tag predicts one label per token row of a single sentence. Rows carry feature
	// values only; labels are never sent to the tagger.
	Tag(ctx context.Context, modelPath string, rows []features.Row) ([]string, error)
}

type EngineError struct {
	Op     string
	Cmd    string
	Stderr string
	Err    error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("crf engine %s failed (%s): %v", e.Op, e.Cmd, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
