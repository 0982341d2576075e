package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	GradeIncorrect = 0
	GradePartial   = 1
	GradeCorrect   = 2
)

func ValidGrade(g int) bool {
	return g == GradeIncorrect || g == GradePartial || g == GradeCorrect
}

// Answer stores a graded submission. Grading is advisory: answers never gate
// the claim state machine, so a user may grade and re-grade freely before
// completing the group.
type Answer struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProblemID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"problem_id"`
	Problem    *Problem       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProblemID;references:ID" json:"-"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	AnswerBody string         `gorm:"not null;column:answer_body" json:"answer_body"`
	Grade      int            `gorm:"not null;column:grade" json:"grade"`
	Version    int            `gorm:"not null;column:version;default:1" json:"version"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Answer) TableName() string { return "answers" }
