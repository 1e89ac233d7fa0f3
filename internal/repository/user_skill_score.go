package repository

import (
	"context"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type UserSkillScoreRepository interface {
	Upsert(ctx context.Context, score *entity.UserSkillScore) error
	Get(ctx context.Context, userID string) (*entity.UserSkillScore, error)
}

type userSkillScoreRepository struct{}

func NewUserSkillScoreRepository() *userSkillScoreRepository {
	return &userSkillScoreRepository{}
}

// Upsert replaces every score of the user.
func (r *userSkillScoreRepository) Upsert(ctx context.Context, score *entity.UserSkillScore) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(score).Error
}

func (r *userSkillScoreRepository) Get(
	ctx context.Context, userID string,
) (*entity.UserSkillScore, error) {
	result := &entity.UserSkillScore{}
	if err := xcontext.DB(ctx).Where("user_id=?", userID).Take(result).Error; err != nil {
		return nil, err
	}

	return result, nil
}
