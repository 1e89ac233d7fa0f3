package achievement

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/questx-lab/reputation/internal/domain/progression"
	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

type Awarder interface {
	AwardPoints(
		ctx context.Context,
		userID, activity string,
		points int64,
		metadata map[string]any,
	) (*progression.AwardResult, error)
}

type Unlocked struct {
	Achievement entity.Achievement
	Award       *progression.AwardResult
}

type Manager struct {
	// Written only at initialization, readonly afterwards.
	scanners []Scanner
	catalog  []CatalogEntry

	// Achievements by key, filled by SeedCatalog.
	achievements *xsync.MapOf[string, *entity.Achievement]

	achievementRepo     repository.AchievementRepository
	userAchievementRepo repository.UserAchievementRepository
	awarder             Awarder
}

func NewManager(
	catalog []CatalogEntry,
	achievementRepo repository.AchievementRepository,
	userAchievementRepo repository.UserAchievementRepository,
	awarder Awarder,
	scanners ...Scanner,
) *Manager {
	return &Manager{
		scanners:            scanners,
		catalog:             catalog,
		achievements:        xsync.NewMapOf[*entity.Achievement](),
		achievementRepo:     achievementRepo,
		userAchievementRepo: userAchievementRepo,
		awarder:             awarder,
	}
}

// SeedCatalog writes the catalog to the database. Running it again updates
// names, descriptions, points and tiers but keeps ids.
func (m *Manager) SeedCatalog(ctx context.Context) error {
	for _, e := range m.catalog {
		a := e.Entity()
		if err := m.achievementRepo.Upsert(ctx, a); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot seed achievement %s: %v", e.Key, err)
			return err
		}

		m.achievements.Store(a.Key, a)
	}

	return nil
}

func (m *Manager) getAchievement(ctx context.Context, key string) (*entity.Achievement, error) {
	if a, ok := m.achievements.Load(key); ok {
		return a, nil
	}

	a, err := m.achievementRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	m.achievements.Store(key, a)
	return a, nil
}

// CheckAchievements unlocks every achievement whose condition the user meets
// after activity and awards its bonus. An achievement is unlocked and
// awarded at most once per user, the bonus is only given by the call that
// inserted the unlock. Both writes join the transaction of ctx if any.
func (m *Manager) CheckAchievements(
	ctx context.Context, userID string, activity entity.ActivityType,
) ([]Unlocked, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	result := []Unlocked{}
	for _, scanner := range m.scanners {
		if !scanner.Triggers(activity) {
			continue
		}

		ok, err := scanner.Scan(ctx, userID)
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		achievement, err := m.getAchievement(ctx, scanner.Key())
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get achievement %s: %v", scanner.Key(), err)
			return nil, err
		}

		inserted, err := m.userAchievementRepo.CreateIfNotExists(ctx, &entity.UserAchievement{
			UserID:        userID,
			AchievementID: achievement.ID,
			UnlockedAt:    time.Now(),
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot unlock achievement %s for user %s: %v",
				achievement.Key, userID, err)
			return nil, err
		}

		if !inserted {
			continue
		}

		award, err := m.awarder.AwardPoints(
			ctx, userID, entity.AchievementActivityPrefix+achievement.Key, achievement.Points,
			map[string]any{"achievement_id": achievement.ID, "tier": string(achievement.Tier)},
		)
		if err != nil {
			return nil, err
		}

		result = append(result, Unlocked{Achievement: *achievement, Award: award})
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit achievements of user %s: %v", userID, err)
		return nil, err
	}

	return result, nil
}

func (m *Manager) GetCatalog(ctx context.Context) ([]entity.Achievement, error) {
	achievements, err := m.achievementRepo.GetAll(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get achievement catalog: %v", err)
		return nil, err
	}

	return achievements, nil
}

func (m *Manager) GetUserAchievements(ctx context.Context, userID string) ([]entity.UserAchievement, error) {
	achievements, err := m.userAchievementRepo.GetByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get achievements of user %s: %v", userID, err)
		return nil, err
	}

	return achievements, nil
}

// Keys returns the keys of every scanned achievement.
func (m *Manager) Keys() []string {
	keys := make([]string, 0, len(m.scanners))
	for _, s := range m.scanners {
		keys = append(keys, s.Key())
	}

	return keys
}

// New builds a manager over the shipped catalog.
func New(
	achievementRepo repository.AchievementRepository,
	userAchievementRepo repository.UserAchievementRepository,
	metricsRepo repository.SkillRawMetricsRepository,
	eventRepo repository.ActivityEventRepository,
	awarder Awarder,
) (*Manager, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("load achievement catalog: %w", err)
	}

	scanners, err := NewScanners(catalog, metricsRepo, eventRepo)
	if err != nil {
		return nil, err
	}

	return NewManager(catalog, achievementRepo, userAchievementRepo, awarder, scanners...), nil
}
