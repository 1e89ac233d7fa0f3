package normalizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

const (
	TypeRecalculate  = "radar:recalculate"
	QueueRecalculate = "default"
)

// Scheduler decides when the radar of a user is recalculated after its raw
// metrics changed. Raw metrics are always written before Schedule is called.
type Scheduler interface {
	Schedule(ctx context.Context, userID string) error
}

// SyncScheduler recalculates inline, in the caller's transaction if any.
type SyncScheduler struct {
	normalizer *Normalizer
}

func NewSyncScheduler(normalizer *Normalizer) *SyncScheduler {
	return &SyncScheduler{normalizer: normalizer}
}

func (s *SyncScheduler) Schedule(ctx context.Context, userID string) error {
	_, err := s.normalizer.Recalculate(ctx, userID)
	return err
}

type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector looks up and removes tasks by id, *asynq.Inspector
// implements it.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}

// errTaskIDBusy is returned when a task id is held by a task that can not
// pick up the latest raw metrics anymore.
var errTaskIDBusy = errors.New("task id is held by a running task")

const maxEnqueueAttempts = 3

// AsynqScheduler defers recalculation to the worker. Tasks are enqueued once
// the caller's transaction commits. At most one waiting task exists per user,
// further events within the delay are folded into it since the task always
// reads the latest raw metrics. While that task runs, a follow-up task is
// enqueued under a second id.
type AsynqScheduler struct {
	enqueuer   Enqueuer
	inspector  TaskInspector
	normalizer *Normalizer
	queue      string
	delay      time.Duration
}

func NewAsynqScheduler(
	enqueuer Enqueuer,
	inspector TaskInspector,
	normalizer *Normalizer,
	queue string,
	delay time.Duration,
) *AsynqScheduler {
	return &AsynqScheduler{
		enqueuer:   enqueuer,
		inspector:  inspector,
		normalizer: normalizer,
		queue:      queue,
		delay:      delay,
	}
}

type recalculatePayload struct {
	UserID string `json:"user_id"`
}

// Schedule never fails the caller. If the task cannot be enqueued the radar
// is recalculated inline, after the caller's transaction committed.
func (s *AsynqScheduler) Schedule(ctx context.Context, userID string) error {
	xcontext.AfterCommit(ctx, func(ctx context.Context) {
		err := s.enqueue(userID)
		if err == nil {
			return
		}

		xcontext.Logger(ctx).Errorf("Cannot enqueue radar recalculation of user %s, recalculate now: %v", userID, err)
		if _, err := s.normalizer.Recalculate(ctx, userID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot recalculate radar of user %s: %v", userID, err)
		}
	})

	return nil
}

func (s *AsynqScheduler) enqueue(userID string) error {
	payload, err := json.Marshal(recalculatePayload{UserID: userID})
	if err != nil {
		return err
	}

	id := TypeRecalculate + ":" + userID
	for _, taskID := range []string{id, id + ":next"} {
		err := s.enqueueOrFold(taskID, payload)
		if !errors.Is(err, errTaskIDBusy) {
			return err
		}
	}

	// Both ids are running, the timestamp makes the id unique.
	return s.enqueueTask(fmt.Sprintf("%s:%d", id, time.Now().UnixNano()), payload)
}

// enqueueOrFold enqueues the task under taskID. A waiting task with the same
// id already covers the latest raw metrics, nothing is enqueued then. Archived
// or completed tasks are deleted to free the id.
func (s *AsynqScheduler) enqueueOrFold(taskID string, payload []byte) error {
	for attempt := 0; attempt < maxEnqueueAttempts; attempt++ {
		err := s.enqueueTask(taskID, payload)
		if !errors.Is(err, asynq.ErrTaskIDConflict) {
			return err
		}

		info, err := s.inspector.GetTaskInfo(s.queue, taskID)
		if errors.Is(err, asynq.ErrTaskNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		switch info.State {
		case asynq.TaskStatePending, asynq.TaskStateScheduled,
			asynq.TaskStateRetry, asynq.TaskStateAggregating:
			return nil

		case asynq.TaskStateActive:
			return errTaskIDBusy

		default:
			err := s.inspector.DeleteTask(s.queue, taskID)
			if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
				return err
			}
		}
	}

	return errTaskIDBusy
}

func (s *AsynqScheduler) enqueueTask(taskID string, payload []byte) error {
	_, err := s.enqueuer.Enqueue(
		asynq.NewTask(TypeRecalculate, payload),
		asynq.TaskID(taskID),
		asynq.Queue(s.queue),
		asynq.ProcessIn(s.delay),
		asynq.MaxRetry(5),
	)
	return err
}

// NewTaskHandler handles TypeRecalculate tasks. Asynq creates the task
// context itself, so database, logger and configs are taken from baseCtx.
func NewTaskHandler(baseCtx context.Context, normalizer *Normalizer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload recalculatePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			xcontext.Logger(baseCtx).Errorf("Invalid radar recalculation payload: %v", err)
			return errors.Join(err, asynq.SkipRetry)
		}

		ctx = xcontext.WithConfigs(ctx, xcontext.Configs(baseCtx))
		ctx = xcontext.WithLogger(ctx, xcontext.Logger(baseCtx))
		ctx = xcontext.WithDB(ctx, xcontext.DB(baseCtx))

		_, err := normalizer.Recalculate(ctx, payload.UserID)
		return err
	}
}
