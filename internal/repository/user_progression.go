package repository

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm/clause"
)

// ErrStaleVersion is returned when the row was changed by another writer
// since it was read.
var ErrStaleVersion = errors.New("stale version of user progression")

type UserProgressionRepository interface {
	CreateIfNotExists(ctx context.Context, progression *entity.UserProgression) error
	Get(ctx context.Context, userID string) (*entity.UserProgression, error)

	// GetForUpdate locks the row until the end of the running transaction on
	// databases supporting row locks.
	GetForUpdate(ctx context.Context, userID string) (*entity.UserProgression, error)

	// UpdateIfVersion writes progression only if the stored version is still
	// version, then bumps it. ErrStaleVersion is returned otherwise.
	UpdateIfVersion(ctx context.Context, progression *entity.UserProgression, version int64) error

	// GetLeaderboard orders users by experience points then level, both
	// descending. Ties are broken by user id descending.
	GetLeaderboard(ctx context.Context, offset, limit int) ([]entity.UserProgression, error)

	// CountAhead returns the number of users placed before progression on
	// the leaderboard.
	CountAhead(ctx context.Context, progression *entity.UserProgression) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type userProgressionRepository struct{}

func NewUserProgressionRepository() *userProgressionRepository {
	return &userProgressionRepository{}
}

func (r *userProgressionRepository) CreateIfNotExists(
	ctx context.Context, progression *entity.UserProgression,
) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(progression).Error
}

func (r *userProgressionRepository) Get(
	ctx context.Context, userID string,
) (*entity.UserProgression, error) {
	result := &entity.UserProgression{}
	if err := xcontext.DB(ctx).Where("user_id=?", userID).Take(result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userProgressionRepository) GetForUpdate(
	ctx context.Context, userID string,
) (*entity.UserProgression, error) {
	result := &entity.UserProgression{}
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id=?", userID).
		Take(result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userProgressionRepository) UpdateIfVersion(
	ctx context.Context, progression *entity.UserProgression, version int64,
) error {
	now := time.Now()
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgression{}).
		Where("user_id=? AND version=?", progression.UserID, version).
		Updates(map[string]any{
			"experience_points": progression.ExperiencePoints,
			"level":             progression.Level,
			"rank":              progression.Rank,
			"level_progress":    progression.LevelProgress,
			"version":           version + 1,
			"updated_at":        now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrStaleVersion
	}

	progression.Version = version + 1
	progression.UpdatedAt = now
	return nil
}

func (r *userProgressionRepository) GetLeaderboard(
	ctx context.Context, offset, limit int,
) ([]entity.UserProgression, error) {
	result := []entity.UserProgression{}
	err := xcontext.DB(ctx).
		Order("experience_points DESC").
		Order("level DESC").
		Order("user_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userProgressionRepository) CountAhead(
	ctx context.Context, progression *entity.UserProgression,
) (int64, error) {
	xp, level, userID := progression.ExperiencePoints, progression.Level, progression.UserID

	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.UserProgression{}).
		Where("experience_points>?", xp).
		Or("experience_points=? AND level>?", xp, level).
		Or("experience_points=? AND level=? AND user_id>?", xp, level, userID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *userProgressionRepository) Count(ctx context.Context) (int64, error) {
	var result int64
	if err := xcontext.DB(ctx).Model(&entity.UserProgression{}).Count(&result).Error; err != nil {
		return 0, err
	}

	return result, nil
}
