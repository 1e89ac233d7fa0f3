package progression

import (
	"context"
	"testing"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/testutil"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestEngine() *Engine {
	return NewEngine(
		repository.NewUserProgressionRepository(),
		repository.NewPointTransactionRepository(),
		testutil.MockIDGenerator(),
	)
}

func sumTransactions(t *testing.T, ctx context.Context, userID string) int64 {
	var sum int64
	err := xcontext.DB(ctx).
		Model(&entity.PointTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id=?", userID).
		Scan(&sum).Error
	require.NoError(t, err)
	return sum
}

func TestEngine_AwardPoints(t *testing.T) {
	ctx := testutil.MockContext()
	engine := newTestEngine()

	result, err := engine.AwardPoints(ctx, "user1", "COMMIT_PUSH", 100, map[string]any{"event_id": "1"})
	require.NoError(t, err)
	require.Equal(t, 1, result.OldLevel)
	require.Equal(t, 1, result.NewLevel)
	require.False(t, result.LeveledUp)
	require.Equal(t, int64(100), result.ExperiencePoints)
	require.Equal(t, int64(100), result.Transaction.Points)
	require.Equal(t, "COMMIT_PUSH", result.Transaction.Activity)

	result, err = engine.AwardPoints(ctx, "user1", "PR_MERGED", 182, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.OldLevel)
	require.Equal(t, 2, result.NewLevel)
	require.True(t, result.LeveledUp)
	require.Equal(t, int64(282), result.ExperiencePoints)
	require.Equal(t, float64(0), result.LevelProgress)

	stored, err := repository.NewUserProgressionRepository().Get(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, int64(282), stored.ExperiencePoints)
	require.Equal(t, 2, stored.Level)
	require.Equal(t, entity.RankNovice, stored.Rank)
	require.Equal(t, int64(2), stored.Version)

	require.Equal(t, stored.ExperiencePoints, sumTransactions(t, ctx, "user1"))
}

func TestEngine_AwardPoints_ClampsAtZero(t *testing.T) {
	ctx := testutil.MockContext()
	engine := newTestEngine()

	_, err := engine.AwardPoints(ctx, "user1", "COMMIT_PUSH", 30, nil)
	require.NoError(t, err)

	result, err := engine.AwardPoints(ctx, "user1", "penalty", -100, nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), result.ExperiencePoints)
	require.Equal(t, 1, result.NewLevel)
	require.Equal(t, int64(-30), result.Transaction.Points)
	require.EqualValues(t, -100, result.Transaction.Metadata["requested_points"])

	// The ledger still reconciles with the experience.
	require.Equal(t, int64(0), sumTransactions(t, ctx, "user1"))
}

func TestEngine_AwardPoints_JoinsTransaction(t *testing.T) {
	ctx := testutil.MockContext()
	engine := newTestEngine()

	txCtx := xcontext.WithDBTransaction(ctx)
	_, err := engine.AwardPoints(txCtx, "user1", "COMMIT_PUSH", 50, nil)
	require.NoError(t, err)
	xcontext.WithRollbackDBTransaction(txCtx)

	profile, err := engine.Profile(ctx, "user1")
	require.NoError(t, err)
	require.False(t, profile.Found)
	require.Equal(t, int64(0), sumTransactions(t, ctx, "user1"))
}

func TestEngine_AwardPoints_StaleVersion(t *testing.T) {
	ctx := testutil.MockContext()
	repo := repository.NewUserProgressionRepository()

	require.NoError(t, repo.CreateIfNotExists(ctx, &entity.UserProgression{
		UserID: "user1", Level: 1, Rank: entity.RankNovice,
	}))

	err := repo.UpdateIfVersion(ctx, &entity.UserProgression{UserID: "user1", Level: 1}, 5)
	require.ErrorIs(t, err, repository.ErrStaleVersion)
}

func TestEngine_AwardPoints_Concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	engine := newTestEngine()

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := engine.AwardPoints(ctx, "user1", "COMMIT_PUSH", 10, nil)
			return err
		})
	}
	require.NoError(t, g.Wait())

	profile, err := engine.Profile(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, int64(200), profile.ExperiencePoints)
	require.Equal(t, int64(200), sumTransactions(t, ctx, "user1"))
}

func TestEngine_Profile(t *testing.T) {
	ctx := testutil.MockContext()
	engine := newTestEngine()

	profile, err := engine.Profile(ctx, "nobody")
	require.NoError(t, err)
	require.False(t, profile.Found)
	require.Equal(t, 1, profile.Level)
	require.Equal(t, entity.RankNovice, profile.Rank)
	require.Equal(t, int64(282), profile.XPForNextLevel)
	require.Equal(t, int64(0), profile.XPIntoCurrentLevel)

	_, err = engine.AwardPoints(ctx, "user1", "COMMIT_PUSH", 600, nil)
	require.NoError(t, err)

	profile, err = engine.Profile(ctx, "user1")
	require.NoError(t, err)
	require.True(t, profile.Found)
	require.Equal(t, 3, profile.Level)
	require.Equal(t, int64(800), profile.XPForNextLevel)
	require.Equal(t, int64(81), profile.XPIntoCurrentLevel)
}
