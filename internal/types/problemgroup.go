package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	AppScaleSmall  = "small"
	AppScaleMedium = "medium"
	AppScaleLarge  = "large"
)

const (
	ModeDBOnly  = "db_only"
	ModeAPIOnly = "api_only"
	ModeBoth    = "both"
)

func ValidDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

func ValidAppScale(s string) bool {
	return s == AppScaleSmall || s == AppScaleMedium || s == AppScaleLarge
}

func ValidMode(m string) bool {
	return m == ModeDBOnly || m == ModeAPIOnly || m == ModeBoth
}

// ProblemGroup is one themed bundle of design problems. Rows are written only
// by the generator and are immutable afterwards.
type ProblemGroup struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"not null;column:title" json:"title"`
	Description string     `gorm:"not null;column:description" json:"description"`
	Difficulty  string     `gorm:"not null;index;column:difficulty" json:"difficulty"`
	AppScale    string     `gorm:"not null;column:app_scale" json:"app_scale"`
	Mode        string     `gorm:"not null;column:mode" json:"mode"`
	Problems    []*Problem `gorm:"foreignKey:ProblemGroupID;references:ID" json:"problems,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProblemGroup) TableName() string { return "problem_groups" }
