package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProblemKindDB  = "db"
	ProblemKindAPI = "api"
)

func ValidProblemKind(k string) bool {
	return k == ProblemKindDB || k == ProblemKindAPI
}

type Problem struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProblemGroupID uuid.UUID     `gorm:"type:uuid;not null;index:idx_group_order,unique" json:"problem_group_id"`
	ProblemGroup   *ProblemGroup `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProblemGroupID;references:ID" json:"-"`
	Kind           string        `gorm:"not null;column:kind" json:"kind"`
	OrderIndex     int           `gorm:"not null;column:order_index;index:idx_group_order,unique" json:"order_index"`
	Body           string        `gorm:"not null;column:body" json:"body"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Problem) TableName() string { return "problems" }
