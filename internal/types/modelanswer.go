package types

import (
	"time"

	"github.com/google/uuid"
)

// ModelAnswer is written together with its problem and never returned from
// allocation responses.
type ModelAnswer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProblemID uuid.UUID `gorm:"type:uuid;not null;index:idx_problem_version,unique" json:"problem_id"`
	Problem   *Problem  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProblemID;references:ID" json:"-"`
	Version   int       `gorm:"not null;column:version;index:idx_problem_version,unique" json:"version"`
	Body      string    `gorm:"not null;column:body" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ModelAnswer) TableName() string { return "model_answers" }
