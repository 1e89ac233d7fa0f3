package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/idutil"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/datatypes"
)

// Ledger is the append-only record of every ingested activity event.
type Ledger struct {
	eventRepo   repository.ActivityEventRepository
	idGenerator *idutil.Generator
}

func New(eventRepo repository.ActivityEventRepository, idGenerator *idutil.Generator) *Ledger {
	return &Ledger{eventRepo: eventRepo, idGenerator: idGenerator}
}

// Record persists the event and returns it. If idempotencyKey is not empty
// and an event with that key already exists, the existing event is returned
// with duplicate set to true.
func (l *Ledger) Record(
	ctx context.Context,
	userID string,
	activityType entity.ActivityType,
	metadata map[string]any,
	idempotencyKey string,
) (event *entity.ActivityEvent, duplicate bool, err error) {
	event = &entity.ActivityEvent{
		SnowFlakeBase: entity.SnowFlakeBase{ID: l.idGenerator.Next()},
		UserID:        userID,
		Type:          activityType,
		Metadata:      datatypes.JSONMap(metadata),
		IdempotencyKey: sql.NullString{
			Valid:  idempotencyKey != "",
			String: idempotencyKey,
		},
	}

	inserted, err := l.eventRepo.CreateIfNotExists(ctx, event)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record event of user %s: %v", userID, err)
		return nil, false, err
	}

	if inserted {
		return event, false, nil
	}

	existing, err := l.eventRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get event by idempotency key %s: %v", idempotencyKey, err)
		return nil, false, err
	}

	if existing.UserID != userID || existing.Type != activityType {
		xcontext.Logger(ctx).Warnf("Idempotency key %s was reused by another event", idempotencyKey)
		return nil, false, ErrKeyReused
	}

	return existing, true, nil
}

var ErrKeyReused = errors.New("idempotency key belongs to another event")
