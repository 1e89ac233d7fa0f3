package repository

import (
	"testing"
	"time"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_userAchievementRepository_CreateIfNotExists(t *testing.T) {
	ctx := testutil.MockContext()
	achievementRepo := NewAchievementRepository()
	r := NewUserAchievementRepository()

	achievement := &entity.Achievement{
		ID:     "achievement1",
		Key:    "first_commit",
		Name:   "First Commit",
		Points: 50,
		Tier:   entity.AchievementTierBronze,
	}
	require.NoError(t, achievementRepo.Upsert(ctx, achievement))

	unlock := func() (bool, error) {
		return r.CreateIfNotExists(ctx, &entity.UserAchievement{
			UserID:        "user1",
			AchievementID: achievement.ID,
			UnlockedAt:    time.Now(),
		})
	}

	inserted, err := unlock()
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = unlock()
	require.NoError(t, err)
	require.False(t, inserted)

	result, err := r.GetByUserID(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "first_commit", result[0].Achievement.Key)
}
