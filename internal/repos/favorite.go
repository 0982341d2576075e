package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/types"
)

type FavoriteRepo interface {
	InsertIgnore(ctx context.Context, tx *gorm.DB, row *types.FavoriteProblemGroup) error
	Delete(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.FavoriteProblemGroup, error)
}

type favoriteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
	repoLog := baseLog.With("repo", "FavoriteRepo")
	return &favoriteRepo{db: db, log: repoLog}
}

func (r *favoriteRepo) InsertIgnore(ctx context.Context, tx *gorm.DB, row *types.FavoriteProblemGroup) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "problem_group_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return err
	}
	return nil
}

func (r *favoriteRepo) Delete(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND problem_group_id = ?", userID, groupID).
		Delete(&types.FavoriteProblemGroup{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *favoriteRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.FavoriteProblemGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.FavoriteProblemGroup
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
