package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/types"
)

type ModelAnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ModelAnswer) ([]*types.ModelAnswer, error)
	GetByProblemIDs(ctx context.Context, tx *gorm.DB, problemIDs []uuid.UUID) ([]*types.ModelAnswer, error)
}

type modelAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModelAnswerRepo(db *gorm.DB, baseLog *logger.Logger) ModelAnswerRepo {
	repoLog := baseLog.With("repo", "ModelAnswerRepo")
	return &modelAnswerRepo{db: db, log: repoLog}
}

func (r *modelAnswerRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ModelAnswer) ([]*types.ModelAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.ModelAnswer{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *modelAnswerRepo) GetByProblemIDs(ctx context.Context, tx *gorm.DB, problemIDs []uuid.UUID) ([]*types.ModelAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ModelAnswer
	if len(problemIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("problem_id IN ?", problemIDs).
		Order("problem_id, version ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
