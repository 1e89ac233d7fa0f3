package cron

import (
	"context"
	"time"

	"github.com/questx-lab/reputation/pkg/xcontext"
	"golang.org/x/sync/errgroup"
)

type CronJob interface {
	Do(context.Context)
	// RunNow makes the first run happen at Start instead of at Next.
	RunNow() bool
	Next() time.Time
}

type CronJobManager struct {
	jobs []CronJob
}

func NewCronJobManager() *CronJobManager {
	return &CronJobManager{}
}

// Register must be called before Start.
func (m *CronJobManager) Register(job CronJob) {
	m.jobs = append(m.jobs, job)
}

// Start runs every registered job on its own schedule and blocks until ctx is
// done. A run in progress is never interrupted, Start waits for it.
func (m *CronJobManager) Start(ctx context.Context) {
	xcontext.Logger(ctx).Infof("Cron job manager started with %d jobs", len(m.jobs))

	group := errgroup.Group{}
	for _, job := range m.jobs {
		job := job
		group.Go(func() error {
			m.loop(ctx, job)
			return nil
		})
	}

	_ = group.Wait()
	xcontext.Logger(ctx).Infof("Cron job manager stopped")
}

func (m *CronJobManager) loop(ctx context.Context, job CronJob) {
	if job.RunNow() {
		m.run(ctx, job)
	}

	for {
		timer := time.NewTimer(time.Until(job.Next()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.run(ctx, job)
		}
	}
}

func (m *CronJobManager) run(ctx context.Context, job CronJob) {
	if ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			xcontext.Logger(ctx).Errorf("%T panicked: %v", job, r)
		}
	}()

	start := time.Now()
	job.Do(ctx)
	xcontext.Logger(ctx).Infof("%T ok in %s", job, time.Since(start))
}
