package repository

import (
	"context"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

type RadarSnapshotRepository interface {
	Create(ctx context.Context, snapshot *entity.RadarSnapshot) error
	GetList(ctx context.Context, userID string, offset, limit int) ([]entity.RadarSnapshot, error)
	Count(ctx context.Context, userID string) (int64, error)
}

type radarSnapshotRepository struct{}

func NewRadarSnapshotRepository() *radarSnapshotRepository {
	return &radarSnapshotRepository{}
}

func (r *radarSnapshotRepository) Create(ctx context.Context, snapshot *entity.RadarSnapshot) error {
	return xcontext.DB(ctx).Create(snapshot).Error
}

// GetList returns the snapshots of user, newest first.
func (r *radarSnapshotRepository) GetList(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.RadarSnapshot, error) {
	result := []entity.RadarSnapshot{}
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *radarSnapshotRepository) Count(ctx context.Context, userID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.RadarSnapshot{}).
		Where("user_id=?", userID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}
