package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/types"
)

type AttemptRepo interface {
	// InsertIgnore records the attempt with ON CONFLICT DO NOTHING on the
	// (problem_group_id, user_id) pair, so duplicate and concurrent
	// completions collapse into a single row.
	InsertIgnore(ctx context.Context, tx *gorm.DB, row *types.Attempt) error
	Exists(ctx context.Context, tx *gorm.DB, groupID, userID uuid.UUID) (bool, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Attempt, error)
	// CountDistinctGroupsByDifficulty counts groups of the difficulty with
	// at least one attempt by anyone.
	CountDistinctGroupsByDifficulty(ctx context.Context, tx *gorm.DB, difficulty string) (int64, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	repoLog := baseLog.With("repo", "AttemptRepo")
	return &attemptRepo{db: db, log: repoLog}
}

func (r *attemptRepo) InsertIgnore(ctx context.Context, tx *gorm.DB, row *types.Attempt) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "problem_group_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *attemptRepo) Exists(ctx context.Context, tx *gorm.DB, groupID, userID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Attempt{}).
		Where("problem_group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *attemptRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Attempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Attempt
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *attemptRepo) CountDistinctGroupsByDifficulty(ctx context.Context, tx *gorm.DB, difficulty string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Attempt{}).
		Joins("JOIN problem_groups ON problem_groups.id = attempts.problem_group_id").
		Where("problem_groups.difficulty = ?", difficulty).
		Distinct("attempts.problem_group_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
