package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunQueued    string = "QUEUED"
	RunRunning   string = "RUNNING"
	RunCompleted string = "COMPLETED"
	RunFailed    string = "FAILED"
)

// SummaryFold is the fold index under which the final (single split or averaged)
// scores of a run are stored.
const SummaryFold = -1

type TrainingRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name            string
	Status          string `gorm:"size:20;not null"`
	DataPath        string
	ModelDir        string `gorm:"not null"`
	FeatureType     string `gorm:"size:20;not null"`
	Layout          string `gorm:"size:20;not null"`
	FoldCount       int
	CrossValidation bool
	Seed            int64

	Labels          datatypes.JSON `gorm:"type:jsonb"` // ["PER","LOC",…]
	ChannelSettings datatypes.JSON `gorm:"type:jsonb"`

	ArtifactLocation sql.NullString
	Error            sql.NullString

	CreationTime   time.Time
	CompletionTime sql.NullTime

	Folds  []FoldRun    `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
	Scores []LabelScore `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

type FoldRun struct {
	RunId uuid.UUID `gorm:"type:uuid;primaryKey"`
	Fold  int       `gorm:"primaryKey;autoIncrement:false"`

	Dir            string
	TrainSentences int
	TestSentences  int
	ErrorCount     int
	CompletionTime time.Time
}

type LabelScore struct {
	RunId uuid.UUID `gorm:"type:uuid;primaryKey"`
	Fold  int       `gorm:"primaryKey;autoIncrement:false"`
	Label string    `gorm:"primaryKey"`

	TP        float64
	FP        float64
	FN        float64
	Precision float64
	Recall    float64
	F1        float64
}
