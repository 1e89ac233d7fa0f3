package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/questx-lab/reputation/internal/domain/normalizer"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

const workerConcurrency = 10

func (s *srv) startWorker(cctx *cli.Context) error {
	if err := s.setup(cctx); err != nil {
		return err
	}

	s.loadNormalizer()

	errorHandler := asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		xcontext.Logger(s.ctx).Errorf("Task %s failed: %v", task.Type(), err)
	})

	cfg := xcontext.Configs(s.ctx).Redis
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB},
		asynq.Config{
			Concurrency:  workerConcurrency,
			Queues:       map[string]int{normalizer.QueueRecalculate: 1},
			ErrorHandler: errorHandler,
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(normalizer.TypeRecalculate, normalizer.NewTaskHandler(s.ctx, s.normalizer))

	if err := server.Start(mux); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Worker started")
	<-s.ctx.Done()
	server.Shutdown()
	return nil
}
