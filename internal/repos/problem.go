package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/types"
)

type ProblemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, problems []*types.Problem) ([]*types.Problem, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Problem, error)
	GetByGroupIDs(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID) ([]*types.Problem, error)
}

type problemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProblemRepo(db *gorm.DB, baseLog *logger.Logger) ProblemRepo {
	repoLog := baseLog.With("repo", "ProblemRepo")
	return &problemRepo{db: db, log: repoLog}
}

func (r *problemRepo) Create(ctx context.Context, tx *gorm.DB, problems []*types.Problem) ([]*types.Problem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(problems) == 0 {
		return []*types.Problem{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *problemRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Problem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Problem
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *problemRepo) GetByGroupIDs(ctx context.Context, tx *gorm.DB, groupIDs []uuid.UUID) ([]*types.Problem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Problem
	if len(groupIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("problem_group_id IN ?", groupIDs).
		Order("problem_group_id, order_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
