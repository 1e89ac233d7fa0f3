package repository

import (
	"context"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	Upsert(ctx context.Context, achievement *entity.Achievement) error
	GetAll(ctx context.Context) ([]entity.Achievement, error)
	GetByKey(ctx context.Context, key string) (*entity.Achievement, error)
}

type achievementRepository struct{}

func NewAchievementRepository() *achievementRepository {
	return &achievementRepository{}
}

func (r *achievementRepository) Upsert(ctx context.Context, achievement *entity.Achievement) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":        achievement.Name,
				"description": achievement.Description,
				"points":      achievement.Points,
				"tier":        achievement.Tier,
			}),
		}).Create(achievement).Error
}

func (r *achievementRepository) GetAll(ctx context.Context) ([]entity.Achievement, error) {
	result := []entity.Achievement{}
	err := xcontext.DB(ctx).
		Order("points ASC").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *achievementRepository) GetByKey(ctx context.Context, key string) (*entity.Achievement, error) {
	result := &entity.Achievement{}
	if err := xcontext.DB(ctx).Where(&entity.Achievement{Key: key}).Take(result).Error; err != nil {
		return nil, err
	}

	return result, nil
}
