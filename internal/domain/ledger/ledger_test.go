package ledger

import (
	"testing"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	ctx := testutil.MockContext()
	l := New(repository.NewActivityEventRepository(), testutil.MockIDGenerator())

	first, duplicate, err := l.Record(ctx, "user1", entity.ActivityCommitPush, map[string]any{"linesChanged": 12}, "")
	require.NoError(t, err)
	require.False(t, duplicate)

	second, duplicate, err := l.Record(ctx, "user1", entity.ActivityCommitPush, nil, "")
	require.NoError(t, err)
	require.False(t, duplicate)
	require.Greater(t, second.ID, first.ID)

	count, err := repository.NewActivityEventRepository().Count(ctx, "user1", entity.ActivityCommitPush)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestRecord_Idempotency(t *testing.T) {
	ctx := testutil.MockContext()
	l := New(repository.NewActivityEventRepository(), testutil.MockIDGenerator())

	first, duplicate, err := l.Record(ctx, "user1", entity.ActivityBugFixed, nil, "delivery-1")
	require.NoError(t, err)
	require.False(t, duplicate)

	again, duplicate, err := l.Record(ctx, "user1", entity.ActivityBugFixed, nil, "delivery-1")
	require.NoError(t, err)
	require.True(t, duplicate)
	require.Equal(t, first.ID, again.ID)

	_, _, err = l.Record(ctx, "user2", entity.ActivityBugFixed, nil, "delivery-1")
	require.ErrorIs(t, err, ErrKeyReused)

	count, err := repository.NewActivityEventRepository().Count(ctx, "user1", entity.ActivityBugFixed)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
