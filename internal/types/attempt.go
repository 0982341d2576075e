package types

import (
	"time"

	"github.com/google/uuid"
)

// Attempt records that a user has permanently exhausted a problem group.
// Rows are insert-or-ignore only; they are never updated or deleted, and the
// (problem_group_id, user_id) pair is the sole source of truth for "has this
// user already seen this group".
type Attempt struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProblemGroupID uuid.UUID     `gorm:"type:uuid;not null;index:idx_group_user,unique" json:"problem_group_id"`
	ProblemGroup   *ProblemGroup `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProblemGroupID;references:ID" json:"-"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index:idx_group_user,unique" json:"user_id"`
	User           *User         `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (Attempt) TableName() string { return "attempts" }
