package repository

import (
	"context"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type ActivityEventRepository interface {
	// CreateIfNotExists returns false without error if an event with the
	// same idempotency key was already recorded.
	CreateIfNotExists(ctx context.Context, event *entity.ActivityEvent) (bool, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.ActivityEvent, error)
	Count(ctx context.Context, userID string, activityType entity.ActivityType) (int64, error)
}

type activityEventRepository struct{}

func NewActivityEventRepository() *activityEventRepository {
	return &activityEventRepository{}
}

func (r *activityEventRepository) CreateIfNotExists(
	ctx context.Context, event *entity.ActivityEvent,
) (bool, error) {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected == 1, nil
}

func (r *activityEventRepository) GetByIdempotencyKey(
	ctx context.Context, key string,
) (*entity.ActivityEvent, error) {
	result := &entity.ActivityEvent{}
	if err := xcontext.DB(ctx).Where("idempotency_key=?", key).Take(result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *activityEventRepository) Count(
	ctx context.Context, userID string, activityType entity.ActivityType,
) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.ActivityEvent{}).
		Where("user_id=? AND type=?", userID, activityType).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}
