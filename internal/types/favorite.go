package types

import (
	"time"

	"github.com/google/uuid"
)

type FavoriteProblemGroup struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index:idx_user_group_fav,unique" json:"user_id"`
	User           *User         `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	ProblemGroupID uuid.UUID     `gorm:"type:uuid;not null;index:idx_user_group_fav,unique" json:"problem_group_id"`
	ProblemGroup   *ProblemGroup `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProblemGroupID;references:ID" json:"-"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (FavoriteProblemGroup) TableName() string { return "favorite_problem_groups" }
