package types

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is the durable progress pointer: at most one row per user,
// and a non-null CurrentGroupID means a claim is outstanding. Claim and
// release both go through conditional updates on this row so the invariant
// holds across processes.
type UserProgress struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User           *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	CurrentGroupID *uuid.UUID `gorm:"type:uuid;column:current_group_id" json:"current_group_id,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }
