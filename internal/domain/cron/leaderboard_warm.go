package cron

import (
	"context"
	"time"

	"github.com/questx-lab/reputation/internal/domain/statistic"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

// LeaderboardWarmCronJob rebuilds the cached leaderboard, fixing any drift
// between the cache and the database.
type LeaderboardWarmCronJob struct {
	leaderboard statistic.Leaderboard
	interval    time.Duration
}

func NewLeaderboardWarmCronJob(
	leaderboard statistic.Leaderboard,
	interval time.Duration,
) *LeaderboardWarmCronJob {
	return &LeaderboardWarmCronJob{leaderboard: leaderboard, interval: interval}
}

func (job *LeaderboardWarmCronJob) Do(ctx context.Context) {
	if err := job.leaderboard.Rebuild(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot rebuild leaderboard: %v", err)
		return
	}

	top, err := job.leaderboard.GetLeaderboard(ctx, 0, xcontext.Configs(ctx).Cron.LeaderboardWarmSize)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot read rebuilt leaderboard: %v", err)
		return
	}

	xcontext.Logger(ctx).Infof("Leaderboard rebuilt, top %d users are ready", len(top))
}

func (job *LeaderboardWarmCronJob) RunNow() bool {
	return true
}

func (job *LeaderboardWarmCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
