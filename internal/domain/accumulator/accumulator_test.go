package accumulator

import (
	"testing"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestComputeDelta(t *testing.T) {
	testCases := []struct {
		name         string
		activityType entity.ActivityType
		metadata     map[string]any
		want         Result
	}{
		{
			name:         "small commit",
			activityType: entity.ActivityCommitPush,
			metadata:     map[string]any{"linesChanged": 5},
			want: Result{
				Delta:        repository.MetricsDelta{CurrentStreak: 1},
				RejectReason: RejectReasonSmallCommit,
			},
		},
		{
			name:         "commit at threshold",
			activityType: entity.ActivityCommitPush,
			metadata:     map[string]any{"linesChanged": 10},
			want: Result{
				Delta:        repository.MetricsDelta{CurrentStreak: 1},
				RejectReason: RejectReasonSmallCommit,
			},
		},
		{
			name:         "commit above threshold",
			activityType: entity.ActivityCommitPush,
			metadata:     map[string]any{"linesChanged": 11},
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{CommitsPushed: 1, LinesChanged: 11, CurrentStreak: 1},
			},
		},
		{
			name:         "commit with string lines",
			activityType: entity.ActivityCommitPush,
			metadata:     map[string]any{"linesChanged": "42"},
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{CommitsPushed: 1, LinesChanged: 42, CurrentStreak: 1},
			},
		},
		{
			name:         "commit with malformed lines",
			activityType: entity.ActivityCommitPush,
			metadata:     map[string]any{"linesChanged": "many"},
			want: Result{
				Delta:        repository.MetricsDelta{CurrentStreak: 1},
				RejectReason: RejectReasonSmallCommit,
			},
		},
		{
			name:         "commit without metadata",
			activityType: entity.ActivityCommitPush,
			want: Result{
				Delta:        repository.MetricsDelta{CurrentStreak: 1},
				RejectReason: RejectReasonSmallCommit,
			},
		},
		{
			name:         "large feature",
			activityType: entity.ActivityPRMerged,
			metadata:     map[string]any{"isLargeFeature": true},
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{PRMerged: 1, LargeFeaturesMerged: 1, CurrentStreak: 1},
			},
		},
		{
			name:         "truthy large feature",
			activityType: entity.ActivityPRMerged,
			metadata:     map[string]any{"isLargeFeature": 1},
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{PRMerged: 1, LargeFeaturesMerged: 1, CurrentStreak: 1},
			},
		},
		{
			name:         "small feature",
			activityType: entity.ActivityPRMerged,
			metadata:     map[string]any{"isLargeFeature": false},
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{PRMerged: 1, CurrentStreak: 1},
			},
		},
		{
			name:         "bug fixed",
			activityType: entity.ActivityBugFixed,
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{BugsFixed: 1, CurrentStreak: 1},
			},
		},
		{
			name:         "security fix",
			activityType: entity.ActivitySecurityFix,
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{VulnerabilitiesFixed: 1, CurrentStreak: 1},
			},
		},
		{
			name:         "review",
			activityType: entity.ActivityPRReview,
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{PRReviewsGiven: 1, CurrentStreak: 1},
			},
		},
		{
			name:         "star",
			activityType: entity.ActivityCommunityStar,
			want: Result{
				Counted: true,
				Delta:   repository.MetricsDelta{StarsReceived: 1, CurrentStreak: 1},
			},
		},
		{
			name:         "repository created",
			activityType: entity.ActivityRepoCreated,
			want:         Result{Delta: repository.MetricsDelta{CurrentStreak: 1}},
		},
		{
			name:         "unknown type",
			activityType: entity.ActivityType("DEPLOYED"),
			want:         Result{Delta: repository.MetricsDelta{CurrentStreak: 1}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ComputeDelta(tc.activityType, tc.metadata))
		})
	}
}

func TestAccumulator_AntiAbuse(t *testing.T) {
	ctx := testutil.MockContext()
	acc := New(repository.NewSkillRawMetricsRepository())

	result, err := acc.Apply(ctx, "user1", entity.ActivityCommitPush, map[string]any{"linesChanged": 5})
	require.NoError(t, err)
	require.False(t, result.Counted)

	metrics, err := acc.Get(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, int64(0), metrics.CommitsPushed)
	require.Equal(t, int64(0), metrics.LinesChanged)
	require.Equal(t, int64(1), metrics.CurrentStreak)

	result, err = acc.Apply(ctx, "user1", entity.ActivityCommitPush, map[string]any{"linesChanged": 11})
	require.NoError(t, err)
	require.True(t, result.Counted)

	metrics, err = acc.Get(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, int64(1), metrics.CommitsPushed)
	require.Equal(t, int64(11), metrics.LinesChanged)
	require.Equal(t, int64(2), metrics.CurrentStreak)
}

func TestAccumulator_Concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	acc := New(repository.NewSkillRawMetricsRepository())

	const n = 30
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := acc.Apply(ctx, "user1", entity.ActivityCommitPush, map[string]any{"linesChanged": 20})
			return err
		})
	}
	require.NoError(t, g.Wait())

	metrics, err := acc.Get(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, int64(n), metrics.CommitsPushed)
	require.Equal(t, int64(n*20), metrics.LinesChanged)
	require.Equal(t, int64(n), metrics.CurrentStreak)
}

func TestAccumulator_Reset(t *testing.T) {
	ctx := testutil.MockContext()
	acc := New(repository.NewSkillRawMetricsRepository())

	_, err := acc.Apply(ctx, "user1", entity.ActivityBugFixed, nil)
	require.NoError(t, err)

	require.NoError(t, acc.Reset(ctx, "user1"))

	metrics, err := acc.Get(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, entity.SkillRawMetrics{UserID: "user1", UpdatedAt: metrics.UpdatedAt}, *metrics)
}
