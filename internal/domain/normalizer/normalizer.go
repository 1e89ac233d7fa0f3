package normalizer

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/idutil"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm"
)

type Normalizer struct {
	metricsRepo  repository.SkillRawMetricsRepository
	scoreRepo    repository.UserSkillScoreRepository
	snapshotRepo repository.RadarSnapshotRepository
	benchmarks   BenchmarkProvider
	idGenerator  *idutil.Generator
}

func New(
	metricsRepo repository.SkillRawMetricsRepository,
	scoreRepo repository.UserSkillScoreRepository,
	snapshotRepo repository.RadarSnapshotRepository,
	benchmarks BenchmarkProvider,
	idGenerator *idutil.Generator,
) *Normalizer {
	return &Normalizer{
		metricsRepo:  metricsRepo,
		scoreRepo:    scoreRepo,
		snapshotRepo: snapshotRepo,
		benchmarks:   benchmarks,
		idGenerator:  idGenerator,
	}
}

// Compute derives the radar scores from raw metrics. It is deterministic.
func Compute(metrics *entity.SkillRawMetrics, b Benchmarks) entity.SkillScores {
	return entity.SkillScores{
		Coding: normalize(
			float64(metrics.CommitsPushed)*10+float64(metrics.LinesChanged)/100, b.Coding),
		Quality:         normalize(float64(metrics.PRMerged)*2, b.Quality),
		BugDetection:    normalize(float64(metrics.BugsFixed)*5, b.BugDetection),
		Security:        normalize(float64(metrics.VulnerabilitiesFixed)*10, b.Security),
		Collaboration:   normalize(float64(metrics.PRReviewsGiven)*5, b.Collaboration),
		Architecture:    normalize(float64(metrics.LargeFeaturesMerged)*20, b.Architecture),
		Consistency:     normalize(float64(metrics.CurrentStreak)*3, b.Consistency),
		CommunityImpact: normalize(float64(metrics.StarsReceived)*5, b.CommunityImpact),
	}
}

func normalize(value, benchmark float64) float64 {
	if benchmark <= 0 {
		return 0
	}

	score := value / benchmark * 100
	if score < 0 {
		return 0
	}

	if score > 100 {
		return 100
	}

	return score
}

// Recalculate replaces the scores of user with the ones derived from the
// current raw metrics and appends a snapshot of them. A user without raw
// metrics gets all-zero scores.
func (n *Normalizer) Recalculate(ctx context.Context, userID string) (*entity.UserSkillScore, error) {
	metrics, err := n.metricsRepo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get raw metrics of user %s: %v", userID, err)
			return nil, err
		}

		metrics = &entity.SkillRawMetrics{UserID: userID}
	}

	score := &entity.UserSkillScore{
		UserID:           userID,
		SkillScores:      Compute(metrics, n.benchmarks.Benchmarks()),
		LastCalculatedAt: time.Now(),
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := n.scoreRepo.Upsert(ctx, score); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save skill score of user %s: %v", userID, err)
		return nil, err
	}

	snapshot := &entity.RadarSnapshot{
		SnowFlakeBase: entity.SnowFlakeBase{ID: n.idGenerator.Next()},
		UserID:        userID,
		SkillScores:   score.SkillScores,
	}
	if err := n.snapshotRepo.Create(ctx, snapshot); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create radar snapshot of user %s: %v", userID, err)
		return nil, err
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit recalculation of user %s: %v", userID, err)
		return nil, err
	}

	return score, nil
}

// History returns the latest snapshots of user, newest first, together with
// the total number of snapshots.
func (n *Normalizer) History(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.RadarSnapshot, int64, error) {
	snapshots, err := n.snapshotRepo.GetList(ctx, userID, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get radar snapshots of user %s: %v", userID, err)
		return nil, 0, err
	}

	total, err := n.snapshotRepo.Count(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count radar snapshots of user %s: %v", userID, err)
		return nil, 0, err
	}

	return snapshots, total, nil
}
