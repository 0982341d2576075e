package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/types"
)

type UserProgressRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProgress, error)
	// EnsureRow creates the user's progress row if missing. Safe to call
	// concurrently; the unique index on user_id makes it a no-op after the
	// first writer wins.
	EnsureRow(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	// ClaimGroup sets current_group_id only when it is currently null.
	// Returns false when another claim is already outstanding.
	ClaimGroup(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) (bool, error)
	// Release clears current_group_id only when it still points at groupID.
	// Returns false when the pointer did not match.
	Release(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) (bool, error)
}

type userProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	repoLog := baseLog.With("repo", "UserProgressRepo")
	return &userProgressRepo{db: db, log: repoLog}
}

func (r *userProgressRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, nil
	}

	var result types.UserProgress
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *userProgressRepo) EnsureRow(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := &types.UserProgress{
		ID:     uuid.New(),
		UserID: userID,
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *userProgressRepo) ClaimGroup(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.UserProgress{}).
		Where("user_id = ? AND current_group_id IS NULL", userID).
		Update("current_group_id", groupID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userProgressRepo) Release(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.UserProgress{}).
		Where("user_id = ? AND current_group_id = ?", userID, groupID).
		Update("current_group_id", nil)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
