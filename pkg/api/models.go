package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type LabelScore struct {
	Label     string
	TP        float64
	FP        float64
	FN        float64
	Precision float64
	Recall    float64
	F1        float64
}

type Fold struct {
	Fold           int
	Dir            string
	TrainSentences int
	TestSentences  int
	ErrorCount     int
	CompletionTime time.Time

	Scores []LabelScore
}

type Run struct {
	Id     uuid.UUID
	Name   string
	Status string

	DataPath        string
	ModelDir        string
	FeatureType     string
	Layout          string
	FoldCount       int
	CrossValidation bool
	Seed            int64

	Labels          []string
	ChannelSettings json.RawMessage `json:"ChannelSettings,omitempty"`

	ArtifactLocation string `json:"ArtifactLocation,omitempty"`
	Error            string `json:"Error,omitempty"`

	CreationTime   time.Time
	CompletionTime *time.Time `json:"CompletionTime,omitempty"`

	// Scores holds the single split or fold averaged performance table.
	Scores []LabelScore `json:"Scores,omitempty"`
	Folds  []Fold       `json:"Folds,omitempty"`
}

type ListRunsParams struct {
	Status string `schema:"status"`
	Limit  int    `schema:"limit"`
}
