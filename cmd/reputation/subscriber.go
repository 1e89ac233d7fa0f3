package main

import (
	"github.com/questx-lab/reputation/internal/domain/ingestion"
	"github.com/questx-lab/reputation/pkg/kafka"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startSubscriber(cctx *cli.Context) error {
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

	cfg := xcontext.Configs(s.ctx).Kafka
	handler := ingestion.NewActivitySubscribeHandler(s.reputationDomain)
	subscriber, err := kafka.NewSubscriber(
		cfg.ClientID,
		cfg.ConsumerGroup,
		cfg.Addrs,
		[]string{cfg.ActivityTopic},
		handler.Subscribe,
	)
	if err != nil {
		return err
	}

	subscriber.Subscribe(s.ctx)
	xcontext.Logger(s.ctx).Infof("Subscribed to topic %s", cfg.ActivityTopic)

	<-s.ctx.Done()
	return subscriber.Stop(s.ctx)
}
