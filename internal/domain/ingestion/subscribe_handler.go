package ingestion

import (
	"context"
	"encoding/json"
	"time"

	"github.com/questx-lab/reputation/internal/domain"
	"github.com/questx-lab/reputation/internal/model"
	"github.com/questx-lab/reputation/pkg/errorx"
	"github.com/questx-lab/reputation/pkg/pubsub"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

const (
	minRetryBackoff = 200 * time.Millisecond
	maxRetryBackoff = 30 * time.Second
)

type ActivitySubscribeHandler interface {
	Subscribe(ctx context.Context, topic string, pack *pubsub.Pack, t time.Time) error
}

type activitySubscribeHandler struct {
	reputationDomain domain.ReputationDomain
	backoff          func(attempt int) time.Duration
}

func NewActivitySubscribeHandler(reputationDomain domain.ReputationDomain) ActivitySubscribeHandler {
	return &activitySubscribeHandler{
		reputationDomain: reputationDomain,
		backoff:          retryBackoff,
	}
}

// retryBackoff doubles from minRetryBackoff on every attempt, capped at
// maxRetryBackoff.
func retryBackoff(attempt int) time.Duration {
	backoff := minRetryBackoff
	for i := 1; i < attempt && backoff < maxRetryBackoff; i++ {
		backoff *= 2
	}

	return min(backoff, maxRetryBackoff)
}

// Subscribe ingests one activity event read from the queue. Malformed or
// rejected messages are dropped. Transient failures are retried until they
// succeed, an error is returned only when ctx is done so the message stays
// unacknowledged and is delivered again.
func (s *activitySubscribeHandler) Subscribe(
	ctx context.Context, topic string, pack *pubsub.Pack, t time.Time,
) error {
	var req model.IngestEventRequest
	if err := json.Unmarshal(pack.Msg, &req); err != nil {
		xcontext.Logger(ctx).Errorf("Unable to unmarshal activity event of topic %s: %v", topic, err)
		return nil
	}

	for attempt := 1; ; attempt++ {
		resp, err := s.reputationDomain.IngestEvent(ctx, &req)
		if err == nil {
			xcontext.Logger(ctx).Debugf("Ingested event %s of user %s (duplicate=%t)",
				resp.EventID, req.UserID, resp.Duplicate)
			return nil
		}

		if !errorx.Retryable(err) {
			xcontext.Logger(ctx).Errorf("Dropped event of user %s sent at %s: %v",
				req.UserID, t.Format(time.RFC3339), err)
			return nil
		}

		backoff := s.backoff(attempt)
		xcontext.Logger(ctx).Warnf("Unable to ingest event of user %s (attempt %d), retry in %s: %v",
			req.UserID, attempt, backoff, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}
