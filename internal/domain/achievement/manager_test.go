package achievement

import (
	"context"
	"testing"
	"time"

	"github.com/questx-lab/reputation/internal/domain/progression"
	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/testutil"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, ctx context.Context) *Manager {
	manager, err := New(
		repository.NewAchievementRepository(),
		repository.NewUserAchievementRepository(),
		repository.NewSkillRawMetricsRepository(),
		repository.NewActivityEventRepository(),
		progression.NewEngine(
			repository.NewUserProgressionRepository(),
			repository.NewPointTransactionRepository(),
			testutil.MockIDGenerator(),
		),
	)
	require.NoError(t, err)
	require.NoError(t, manager.SeedCatalog(ctx))
	return manager
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	keys := []string{}
	for _, e := range catalog {
		keys = append(keys, e.Key)
	}

	require.ElementsMatch(t, []string{
		"first_commit", "commit_centurion", "first_merge", "architect", "bug_hunter",
		"security_guardian", "helpful_reviewer", "rising_star", "first_repository",
	}, keys)
}

func TestParseCatalog_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{
			name: "duplicated key",
			data: `
[[achievement]]
key = "a"
tier = "bronze"
threshold = 1

[[achievement]]
key = "a"
tier = "bronze"
threshold = 1
`,
		},
		{
			name: "unknown tier",
			data: `
[[achievement]]
key = "a"
tier = "wood"
threshold = 1
`,
		},
		{
			name: "unknown activity",
			data: `
[[achievement]]
key = "a"
tier = "gold"
threshold = 1
activities = ["DEPLOYED"]
`,
		},
		{
			name: "zero threshold",
			data: `
[[achievement]]
key = "a"
tier = "gold"
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalog(tc.data)
			require.Error(t, err)
		})
	}
}

func TestNewScanners_UnknownMetric(t *testing.T) {
	_, err := NewScanners([]CatalogEntry{{Key: "a", Metric: "coffee_drunk", Threshold: 1}}, nil, nil)
	require.Error(t, err)
}

func TestSeedCatalog_StableIDs(t *testing.T) {
	ctx := testutil.MockContext()
	manager := newManager(t, ctx)
	require.NoError(t, manager.SeedCatalog(ctx))

	catalog, err := manager.GetCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 9)

	for _, a := range catalog {
		require.Equal(t, AchievementID(a.Key), a.ID)
	}

	// Ordered by points, then key.
	require.Equal(t, "first_commit", catalog[0].Key)
	require.Equal(t, "first_repository", catalog[1].Key)
}

func TestCheckAchievements_UniqueUnderReplay(t *testing.T) {
	ctx := testutil.MockContext()
	manager := newManager(t, ctx)

	err := repository.NewSkillRawMetricsRepository().Increase(ctx, "user1", repository.MetricsDelta{
		CommitsPushed: 1, LinesChanged: 20,
	})
	require.NoError(t, err)

	unlocked, err := manager.CheckAchievements(ctx, "user1", entity.ActivityCommitPush)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	require.Equal(t, "first_commit", unlocked[0].Achievement.Key)
	require.Equal(t, int64(50), unlocked[0].Award.ExperiencePoints)

	unlocked, err = manager.CheckAchievements(ctx, "user1", entity.ActivityCommitPush)
	require.NoError(t, err)
	require.Empty(t, unlocked)

	userAchievements, err := manager.GetUserAchievements(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, userAchievements, 1)
	require.Equal(t, "first_commit", userAchievements[0].Achievement.Key)

	total, err := repository.NewPointTransactionRepository().SumPoints(
		ctx, "user1", entity.AchievementActivityPrefix+"first_commit", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, int64(50), total)

	count, err := repository.NewPointTransactionRepository().Count(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestCheckAchievements_ActivityFilter(t *testing.T) {
	ctx := testutil.MockContext()
	manager := newManager(t, ctx)

	err := repository.NewSkillRawMetricsRepository().Increase(ctx, "user1", repository.MetricsDelta{
		CommitsPushed: 1,
	})
	require.NoError(t, err)

	unlocked, err := manager.CheckAchievements(ctx, "user1", entity.ActivityBugFixed)
	require.NoError(t, err)
	require.Empty(t, unlocked)
}

func TestCheckAchievements_FirstRepository(t *testing.T) {
	ctx := testutil.MockContext()
	manager := newManager(t, ctx)

	unlocked, err := manager.CheckAchievements(ctx, "user1", entity.ActivityRepoCreated)
	require.NoError(t, err)
	require.Empty(t, unlocked)

	inserted, err := repository.NewActivityEventRepository().CreateIfNotExists(ctx, &entity.ActivityEvent{
		SnowFlakeBase: entity.SnowFlakeBase{ID: testutil.MockIDGenerator().Next()},
		UserID:        "user1",
		Type:          entity.ActivityRepoCreated,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	unlocked, err = manager.CheckAchievements(ctx, "user1", entity.ActivityRepoCreated)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	require.Equal(t, "first_repository", unlocked[0].Achievement.Key)
}

func TestCheckAchievements_RollbackWithOuterTransaction(t *testing.T) {
	ctx := testutil.MockContext()
	manager := newManager(t, ctx)

	err := repository.NewSkillRawMetricsRepository().Increase(ctx, "user1", repository.MetricsDelta{
		PRMerged: 1,
	})
	require.NoError(t, err)

	txCtx := xcontext.WithDBTransaction(ctx)
	unlocked, err := manager.CheckAchievements(txCtx, "user1", entity.ActivityPRMerged)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	xcontext.WithRollbackDBTransaction(txCtx)

	userAchievements, err := manager.GetUserAchievements(ctx, "user1")
	require.NoError(t, err)
	require.Empty(t, userAchievements)

	// The unlock was rolled back, so it happens again.
	unlocked, err = manager.CheckAchievements(ctx, "user1", entity.ActivityPRMerged)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
}
