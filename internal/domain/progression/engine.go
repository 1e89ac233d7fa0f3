package progression

import (
	"context"
	"errors"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/idutil"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrConflict means another writer updated the progression of the same user
// in between. The whole operation is safe to retry.
var ErrConflict = errors.New("progression was updated concurrently")

type AwardResult struct {
	OldLevel         int
	NewLevel         int
	LeveledUp        bool
	ExperiencePoints int64
	Rank             entity.ProgressionRank
	LevelProgress    float64
	Transaction      *entity.PointTransaction
}

type Profile struct {
	Found              bool
	ExperiencePoints   int64
	Level              int
	Rank               entity.ProgressionRank
	LevelProgress      float64
	XPForNextLevel     int64
	XPIntoCurrentLevel int64
}

type Engine struct {
	progressionRepo repository.UserProgressionRepository
	transactionRepo repository.PointTransactionRepository
	idGenerator     *idutil.Generator
}

func NewEngine(
	progressionRepo repository.UserProgressionRepository,
	transactionRepo repository.PointTransactionRepository,
	idGenerator *idutil.Generator,
) *Engine {
	return &Engine{
		progressionRepo: progressionRepo,
		transactionRepo: transactionRepo,
		idGenerator:     idGenerator,
	}
}

// AwardPoints adds points (possibly negative) to the experience of user and
// records the transaction. Experience never goes below zero, the recorded
// transaction carries the amount actually applied and, when it differs, the
// requested amount in its metadata.
//
// If ctx is inside a database transaction the award joins it. ErrConflict is
// returned when the progression row changed since it was read.
func (e *Engine) AwardPoints(
	ctx context.Context,
	userID, activity string,
	points int64,
	metadata map[string]any,
) (*AwardResult, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	current, err := e.getOrCreateForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := Derive(current.ExperiencePoints + points)
	updated := &entity.UserProgression{
		UserID:           userID,
		ExperiencePoints: next.ExperiencePoints,
		Level:            next.Level,
		Rank:             next.Rank,
		LevelProgress:    next.LevelProgress,
	}

	if err := e.progressionRepo.UpdateIfVersion(ctx, updated, current.Version); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			return nil, ErrConflict
		}

		xcontext.Logger(ctx).Errorf("Cannot update progression of user %s: %v", userID, err)
		return nil, err
	}

	applied := next.ExperiencePoints - current.ExperiencePoints
	txMetadata := datatypes.JSONMap{}
	for k, v := range metadata {
		txMetadata[k] = v
	}

	if applied != points {
		txMetadata["requested_points"] = points
	}

	transaction := &entity.PointTransaction{
		SnowFlakeBase: entity.SnowFlakeBase{ID: e.idGenerator.Next()},
		UserID:        userID,
		Points:        applied,
		Activity:      activity,
		Metadata:      txMetadata,
	}
	if err := e.transactionRepo.Create(ctx, transaction); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create point transaction of user %s: %v", userID, err)
		return nil, err
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit award of user %s: %v", userID, err)
		return nil, err
	}

	return &AwardResult{
		OldLevel:         current.Level,
		NewLevel:         next.Level,
		LeveledUp:        next.Level > current.Level,
		ExperiencePoints: next.ExperiencePoints,
		Rank:             next.Rank,
		LevelProgress:    next.LevelProgress,
		Transaction:      transaction,
	}, nil
}

func (e *Engine) getOrCreateForUpdate(ctx context.Context, userID string) (*entity.UserProgression, error) {
	current, err := e.progressionRepo.GetForUpdate(ctx, userID)
	if err == nil {
		return current, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get progression of user %s: %v", userID, err)
		return nil, err
	}

	initial := Derive(0)
	err = e.progressionRepo.CreateIfNotExists(ctx, &entity.UserProgression{
		UserID:           userID,
		ExperiencePoints: initial.ExperiencePoints,
		Level:            initial.Level,
		Rank:             initial.Rank,
		LevelProgress:    initial.LevelProgress,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create progression of user %s: %v", userID, err)
		return nil, err
	}

	current, err = e.progressionRepo.GetForUpdate(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get progression of user %s: %v", userID, err)
		return nil, err
	}

	return current, nil
}

// Profile returns the progression of user. A user without any award gets the
// level 1 profile with Found set to false.
func (e *Engine) Profile(ctx context.Context, userID string) (*Profile, error) {
	found := true
	state := Derive(0)

	current, err := e.progressionRepo.Get(ctx, userID)
	switch {
	case err == nil:
		state = Derive(current.ExperiencePoints)
	case errors.Is(err, gorm.ErrRecordNotFound):
		found = false
	default:
		xcontext.Logger(ctx).Errorf("Cannot get progression of user %s: %v", userID, err)
		return nil, err
	}

	nextLevel := state.Level + 1
	if state.Level >= MaxLevel {
		nextLevel = MaxLevel
	}

	return &Profile{
		Found:              found,
		ExperiencePoints:   state.ExperiencePoints,
		Level:              state.Level,
		Rank:               state.Rank,
		LevelProgress:      state.LevelProgress,
		XPForNextLevel:     XPForLevel(nextLevel),
		XPIntoCurrentLevel: state.ExperiencePoints - XPForLevel(state.Level),
	}, nil
}
