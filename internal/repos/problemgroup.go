package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/types"
)

type ProblemGroupRepo interface {
	Create(ctx context.Context, tx *gorm.DB, groups []*types.ProblemGroup) ([]*types.ProblemGroup, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProblemGroup, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ProblemGroup, error)
	CountByDifficulty(ctx context.Context, tx *gorm.DB, difficulty string) (int64, error)
	// FirstEligibleForUser returns the oldest group of the difficulty the
	// user has never attempted, or nil when none exists.
	FirstEligibleForUser(ctx context.Context, tx *gorm.DB, difficulty string, userID uuid.UUID) (*types.ProblemGroup, error)
	// RandomUnattempted returns a uniformly random group of the difficulty
	// that no user has ever attempted, or nil when none exists.
	RandomUnattempted(ctx context.Context, tx *gorm.DB, difficulty string) (*types.ProblemGroup, error)
}

type problemGroupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProblemGroupRepo(db *gorm.DB, baseLog *logger.Logger) ProblemGroupRepo {
	repoLog := baseLog.With("repo", "ProblemGroupRepo")
	return &problemGroupRepo{db: db, log: repoLog}
}

func (r *problemGroupRepo) Create(ctx context.Context, tx *gorm.DB, groups []*types.ProblemGroup) ([]*types.ProblemGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(groups) == 0 {
		return []*types.ProblemGroup{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *problemGroupRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProblemGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var result types.ProblemGroup
	err := transaction.WithContext(ctx).
		Preload("Problems", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("id = ?", id).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *problemGroupRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ProblemGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProblemGroup
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *problemGroupRepo) CountByDifficulty(ctx context.Context, tx *gorm.DB, difficulty string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ProblemGroup{}).
		Where("difficulty = ?", difficulty).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *problemGroupRepo) FirstEligibleForUser(ctx context.Context, tx *gorm.DB, difficulty string, userID uuid.UUID) (*types.ProblemGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	attempted := transaction.
		Model(&types.Attempt{}).
		Select("problem_group_id").
		Where("user_id = ?", userID)

	var result types.ProblemGroup
	err := transaction.WithContext(ctx).
		Where("difficulty = ?", difficulty).
		Where("id NOT IN (?)", attempted).
		Order("created_at ASC, id ASC").
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *problemGroupRepo) RandomUnattempted(ctx context.Context, tx *gorm.DB, difficulty string) (*types.ProblemGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	attempted := transaction.
		Model(&types.Attempt{}).
		Distinct("problem_group_id")

	var result types.ProblemGroup
	err := transaction.WithContext(ctx).
		Where("difficulty = ?", difficulty).
		Where("id NOT IN (?)", attempted).
		Order("random()").
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
