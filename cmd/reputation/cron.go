package main

import (
	"github.com/questx-lab/reputation/internal/domain/cron"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(cctx *cli.Context) error {
	if err := s.setup(cctx); err != nil {
		return err
	}

	s.loadRedisClient()
	s.loadLeaderboard()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewLeaderboardWarmCronJob(
		s.leaderboard, xcontext.Configs(s.ctx).Cron.LeaderboardWarmInterval))

	cronJobManager.Start(s.ctx)
	return nil
}
