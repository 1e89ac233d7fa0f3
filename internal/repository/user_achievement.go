package repository

import (
	"context"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type UserAchievementRepository interface {
	// CreateIfNotExists returns true only if this call inserted the row.
	CreateIfNotExists(ctx context.Context, userAchievement *entity.UserAchievement) (bool, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.UserAchievement, error)
}

type userAchievementRepository struct{}

func NewUserAchievementRepository() *userAchievementRepository {
	return &userAchievementRepository{}
}

func (r *userAchievementRepository) CreateIfNotExists(
	ctx context.Context, userAchievement *entity.UserAchievement,
) (bool, error) {
	tx := xcontext.DB(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(userAchievement)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected == 1, nil
}

// GetByUserID returns the unlocked achievements of user, oldest first.
func (r *userAchievementRepository) GetByUserID(
	ctx context.Context, userID string,
) ([]entity.UserAchievement, error) {
	result := []entity.UserAchievement{}
	err := xcontext.DB(ctx).
		Preload("Achievement").
		Where("user_id=?", userID).
		Order("unlocked_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
