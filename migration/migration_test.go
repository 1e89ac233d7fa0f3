package migration

import (
	"context"
	"testing"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newContext(t *testing.T) context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return xcontext.WithDB(context.Background(), db)
}

func TestMigrate(t *testing.T) {
	ctx := newContext(t)

	applied, err := Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0000", "0001"}, applied)

	applied, err = Migrate(ctx)
	require.NoError(t, err)
	require.Empty(t, applied)
}

func TestMigrate0001_RepairsDerivedFields(t *testing.T) {
	ctx := newContext(t)
	require.NoError(t, AutoMigrate(ctx))

	rows := []entity.UserProgression{
		{UserID: "user1", ExperiencePoints: 1000, Level: 1},
		{UserID: "user2", ExperiencePoints: 0, Level: 7, Rank: entity.RankGold, LevelProgress: 50},
	}
	require.NoError(t, xcontext.DB(ctx).Create(&rows).Error)

	require.NoError(t, migrate0001(ctx))

	row := entity.UserProgression{}
	require.NoError(t, xcontext.DB(ctx).Take(&row, "user_id=?", "user1").Error)
	// 100*4^1.5 = 800 <= 1000 < 100*5^1.5 = 1118.
	require.Equal(t, 4, row.Level)
	require.Equal(t, entity.RankNovice, row.Rank)
	require.InDelta(t, float64(200)/318*100, row.LevelProgress, 0.01)

	row = entity.UserProgression{}
	require.NoError(t, xcontext.DB(ctx).Take(&row, "user_id=?", "user2").Error)
	require.Equal(t, 1, row.Level)
	require.Equal(t, entity.RankNovice, row.Rank)
	require.Zero(t, row.LevelProgress)
}
