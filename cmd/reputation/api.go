package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/questx-lab/reputation/internal/common"
	"github.com/questx-lab/reputation/internal/middleware"
	"github.com/questx-lab/reputation/pkg/prometheus"
	"github.com/questx-lab/reputation/pkg/router"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func (s *srv) startApi(cctx *cli.Context) error {
	if err := s.setup(cctx); err != nil {
		return err
	}

	s.loadRedisClient()
	if err := s.loadPublisher(); err != nil {
		xcontext.Logger(s.ctx).Warnf("Level ups will not be published: %v", err)
	}

	if xcontext.Configs(s.ctx).Reputation.AsyncRecalculation {
		s.loadAsynqClient()
		defer s.closeAsynqClient()
	}

	if err := s.loadDomains(); err != nil {
		return err
	}

	cfg := xcontext.Configs(s.ctx).ApiServer
	server := &http.Server{
		Addr:    cfg.Address(),
		Handler: s.loadRouter().Handler(cfg),
	}

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot shutdown api server: %v", err)
		}
	}()

	xcontext.Logger(s.ctx).Infof("Starting api server on %s", cfg.Address())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Api server stopped")
	return nil
}

func (s *srv) loadRouter() *router.Router {
	defaultRouter := router.New(s.ctx)
	defaultRouter.Before(middleware.WithStartTime())
	defaultRouter.After(middleware.Prometheus())
	defaultRouter.After(middleware.Logger())
	defaultRouter.Static(http.MethodGet, "/metrics", prometheus.NewHandler(common.PromCollectors()...))

	// Ingestion API.
	{
		router.POST(defaultRouter, "/ingestEvent", s.reputationDomain.IngestEvent)
		router.POST(defaultRouter, "/resetMetrics", s.reputationDomain.ResetMetrics)
	}

	// Read API.
	{
		router.GET(defaultRouter, "/getRadar", s.reputationDomain.GetRadar)
		router.GET(defaultRouter, "/getRadarHistory", s.reputationDomain.GetRadarHistory)
		router.GET(defaultRouter, "/getPermissions", s.reputationDomain.GetPermissions)
		router.GET(defaultRouter, "/checkPermission", s.reputationDomain.CheckPermission)
		router.GET(defaultRouter, "/getProgression", s.reputationDomain.GetProgressionProfile)
		router.GET(defaultRouter, "/getLeaderboard", s.reputationDomain.GetLeaderboard)
		router.GET(defaultRouter, "/getTransactions", s.reputationDomain.GetTransactionHistory)
		router.GET(defaultRouter, "/getAchievements", s.reputationDomain.GetAchievementCatalog)
		router.GET(defaultRouter, "/getUserAchievements", s.reputationDomain.GetUserAchievements)
	}

	return defaultRouter
}
