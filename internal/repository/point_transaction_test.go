package repository

import (
	"testing"
	"time"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_pointTransactionRepository_SumPoints(t *testing.T) {
	ctx := testutil.MockContext()
	r := NewPointTransactionRepository()
	idGenerator := testutil.MockIDGenerator()

	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	transactions := []entity.PointTransaction{
		{UserID: "user1", Points: 20, Activity: "PR_REVIEW"},
		{UserID: "user1", Points: 15, Activity: "PR_REVIEW"},
		{UserID: "user1", Points: 10, Activity: "COMMIT_PUSH"},
		{UserID: "user2", Points: 20, Activity: "PR_REVIEW"},
		{UserID: "user1", Points: 20, Activity: "PR_REVIEW", SnowFlakeBase: entity.SnowFlakeBase{CreatedAt: yesterday}},
	}
	for i := range transactions {
		transactions[i].ID = idGenerator.Next()
		require.NoError(t, r.Create(ctx, &transactions[i]))
	}

	today := now.Truncate(time.Hour)
	sum, err := r.SumPoints(ctx, "user1", "PR_REVIEW", today, today.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(35), sum)

	sum, err = r.SumPoints(ctx, "user1", "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, int64(65), sum)

	sum, err = r.SumPoints(ctx, "user3", "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Zero(t, sum)

	list, err := r.GetList(ctx, "user1", 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)

	total, err := r.Count(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
}
