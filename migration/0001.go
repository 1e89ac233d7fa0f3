package migration

import (
	"context"

	"github.com/questx-lab/reputation/internal/domain/progression"
	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm"
)

// migrate0001 rewrites level, rank and progress of every user from its
// experience points. It repairs rows whose stored values disagree with the
// current level curve, such as rows imported with experience points only.
func migrate0001(ctx context.Context) error {
	rows := []entity.UserProgression{}
	return xcontext.DB(ctx).FindInBatches(&rows, 500, func(tx *gorm.DB, batch int) error {
		for _, row := range rows {
			state := progression.Derive(row.ExperiencePoints)
			err := tx.Model(&entity.UserProgression{}).
				Where("user_id=?", row.UserID).
				Updates(map[string]any{
					"level":          state.Level,
					"rank":           state.Rank,
					"level_progress": state.LevelProgress,
				}).Error
			if err != nil {
				return err
			}
		}

		return nil
	}).Error
}
