package statistic

import (
	"context"
	"errors"

	"github.com/questx-lab/reputation/internal/domain/progression"
	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"github.com/questx-lab/reputation/pkg/xredis"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const loadBatchSize = 1000

type Entry struct {
	UserID           string
	ExperiencePoints int64
	Level            int
	Rank             entity.ProgressionRank
	Position         int
}

// Leaderboard orders users by experience points then level, both
// descending. Positions start at 1 and have no gaps, ties are broken by user
// id.
type Leaderboard interface {
	GetLeaderboard(ctx context.Context, offset, limit int) ([]Entry, error)

	// GetPosition returns 0 if the user has no progression.
	GetPosition(ctx context.Context, userID string) (int, error)

	// Update sets the experience points of user in the cache. It must be
	// called after the change is committed.
	Update(ctx context.Context, userID string, experiencePoints int64) error

	// Rebuild replaces the cache with the current database content.
	Rebuild(ctx context.Context) error
}

type leaderboard struct {
	progressionRepo repository.UserProgressionRepository

	// Optional, the database is queried directly if it is nil.
	redisClient xredis.Client
}

func New(
	progressionRepo repository.UserProgressionRepository,
	redisClient xredis.Client,
) *leaderboard {
	return &leaderboard{progressionRepo: progressionRepo, redisClient: redisClient}
}

func (l *leaderboard) GetLeaderboard(ctx context.Context, offset, limit int) ([]Entry, error) {
	if l.redisClient != nil {
		entries, err := l.getFromCache(ctx, offset, limit)
		if err == nil {
			return entries, nil
		}

		xcontext.Logger(ctx).Warnf("Cannot get leaderboard from redis, fall back to database: %v", err)
	}

	progressions, err := l.progressionRepo.GetLeaderboard(ctx, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get leaderboard: %v", err)
		return nil, err
	}

	entries := []Entry{}
	for i, p := range progressions {
		entries = append(entries, toEntry(p.UserID, p.ExperiencePoints, offset+i+1))
	}

	return entries, nil
}

func (l *leaderboard) getFromCache(ctx context.Context, offset, limit int) ([]Entry, error) {
	if err := l.ensureCache(ctx); err != nil {
		return nil, err
	}

	results, err := l.redisClient.ZRevRangeWithScores(ctx, redisKeyLeaderboard, offset, limit)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for i, z := range results {
		userID, ok := z.Member.(string)
		if !ok {
			return nil, errors.New("invalid leaderboard member")
		}

		entries = append(entries, toEntry(userID, int64(z.Score), offset+i+1))
	}

	return entries, nil
}

func (l *leaderboard) GetPosition(ctx context.Context, userID string) (int, error) {
	if l.redisClient != nil {
		if err := l.ensureCache(ctx); err == nil {
			rank, err := l.redisClient.ZRevRank(ctx, redisKeyLeaderboard, userID)
			if err == nil {
				return int(rank) + 1, nil
			}

			if errors.Is(err, redis.Nil) {
				return 0, nil
			}

			xcontext.Logger(ctx).Warnf("Cannot get rev rank from redis: %v", err)
		}
	}

	p, err := l.progressionRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get progression of user %s: %v", userID, err)
		return 0, err
	}

	ahead, err := l.progressionRepo.CountAhead(ctx, p)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get position of user %s: %v", userID, err)
		return 0, err
	}

	return int(ahead) + 1, nil
}

func (l *leaderboard) Update(ctx context.Context, userID string, experiencePoints int64) error {
	if l.redisClient == nil {
		return nil
	}

	// A missing set is loaded from database on the next read.
	if _, err := l.redisClient.ZAddIfExists(
		ctx, redisKeyLeaderboard, userID, float64(experiencePoints),
	); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update leaderboard cache: %v", err)
		return err
	}

	return nil
}

func (l *leaderboard) ensureCache(ctx context.Context) error {
	ok, err := l.redisClient.Exists(ctx, redisKeyLeaderboard)
	if err != nil {
		return err
	}

	if ok {
		return nil
	}

	return l.Rebuild(ctx)
}

func (l *leaderboard) Rebuild(ctx context.Context) error {
	if l.redisClient == nil {
		return nil
	}

	members := []redis.Z{}
	for offset := 0; ; offset += loadBatchSize {
		progressions, err := l.progressionRepo.GetLeaderboard(ctx, offset, loadBatchSize)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot load leaderboard from database: %v", err)
			return err
		}

		for _, p := range progressions {
			members = append(members, redis.Z{Score: float64(p.ExperiencePoints), Member: p.UserID})
		}

		if len(progressions) < loadBatchSize {
			break
		}
	}

	if err := l.redisClient.ReplaceSortedSet(ctx, redisKeyLeaderboard, members); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot replace leaderboard cache: %v", err)
		return err
	}

	return nil
}

func toEntry(userID string, experiencePoints int64, position int) Entry {
	state := progression.Derive(experiencePoints)
	return Entry{
		UserID:           userID,
		ExperiencePoints: state.ExperiencePoints,
		Level:            state.Level,
		Rank:             state.Rank,
		Position:         position,
	}
}
