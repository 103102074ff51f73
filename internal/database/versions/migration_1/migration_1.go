package migration_1

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// TrainingRun carries the column introduced when runs started publishing their
// artifacts.
type TrainingRun struct {
	ArtifactLocation sql.NullString
}

func (TrainingRun) TableName() string {
	return "training_runs"
}

func Migration(db *gorm.DB) error {
	if db.Migrator().HasColumn(&TrainingRun{}, "artifact_location") {
		return nil
	}
	if err := db.Migrator().AddColumn(&TrainingRun{}, "ArtifactLocation"); err != nil {
		return fmt.Errorf("error adding ArtifactLocation column: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&TrainingRun{}, "ArtifactLocation"); err != nil {
		return fmt.Errorf("error dropping ArtifactLocation column: %w", err)
	}
	return nil
}
