package repository

import (
	"context"
	"time"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricsDelta holds the amount added to each counter, all values are >= 0.
type MetricsDelta struct {
	CommitsPushed        int64
	LinesChanged         int64
	PRMerged             int64
	LargeFeaturesMerged  int64
	BugsFixed            int64
	VulnerabilitiesFixed int64
	PRReviewsGiven       int64
	StarsReceived        int64
	CurrentStreak        int64
}

type SkillRawMetricsRepository interface {
	// Increase adds every counter of delta in one statement, creating the row
	// if it is missing. Concurrent calls never lose an increment.
	Increase(ctx context.Context, userID string, delta MetricsDelta) error
	Get(ctx context.Context, userID string) (*entity.SkillRawMetrics, error)
	Reset(ctx context.Context, userID string) error
}

type skillRawMetricsRepository struct{}

func NewSkillRawMetricsRepository() *skillRawMetricsRepository {
	return &skillRawMetricsRepository{}
}

func (r *skillRawMetricsRepository) Increase(
	ctx context.Context, userID string, delta MetricsDelta,
) error {
	return increaseQuery(xcontext.DB(ctx), userID, delta).Error
}

// increment refers to the stored value of column. The column is qualified,
// postgres rejects a bare name in ON CONFLICT as ambiguous with excluded.
func increment(column string, delta int64) clause.Expr {
	return gorm.Expr("?+?", clause.Column{Table: clause.CurrentTable, Name: column}, delta)
}

func increaseQuery(db *gorm.DB, userID string, delta MetricsDelta) *gorm.DB {
	now := time.Now()
	return db.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"commits_pushed":        increment("commits_pushed", delta.CommitsPushed),
				"lines_changed":         increment("lines_changed", delta.LinesChanged),
				"pr_merged":             increment("pr_merged", delta.PRMerged),
				"large_features_merged": increment("large_features_merged", delta.LargeFeaturesMerged),
				"bugs_fixed":            increment("bugs_fixed", delta.BugsFixed),
				"vulnerabilities_fixed": increment("vulnerabilities_fixed", delta.VulnerabilitiesFixed),
				"pr_reviews_given":      increment("pr_reviews_given", delta.PRReviewsGiven),
				"stars_received":        increment("stars_received", delta.StarsReceived),
				"current_streak":        increment("current_streak", delta.CurrentStreak),
				"updated_at":            now,
			}),
		}).
		Create(&entity.SkillRawMetrics{
			UserID:               userID,
			CommitsPushed:        delta.CommitsPushed,
			LinesChanged:         delta.LinesChanged,
			PRMerged:             delta.PRMerged,
			LargeFeaturesMerged:  delta.LargeFeaturesMerged,
			BugsFixed:            delta.BugsFixed,
			VulnerabilitiesFixed: delta.VulnerabilitiesFixed,
			PRReviewsGiven:       delta.PRReviewsGiven,
			StarsReceived:        delta.StarsReceived,
			CurrentStreak:        delta.CurrentStreak,
			UpdatedAt:            now,
		})
}

func (r *skillRawMetricsRepository) Get(
	ctx context.Context, userID string,
) (*entity.SkillRawMetrics, error) {
	result := &entity.SkillRawMetrics{}
	if err := xcontext.DB(ctx).Where("user_id=?", userID).Take(result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *skillRawMetricsRepository) Reset(ctx context.Context, userID string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.SkillRawMetrics{}).
		Where("user_id=?", userID).
		Updates(map[string]any{
			"commits_pushed":        0,
			"lines_changed":         0,
			"pr_merged":             0,
			"large_features_merged": 0,
			"bugs_fixed":            0,
			"vulnerabilities_fixed": 0,
			"pr_reviews_given":      0,
			"stars_received":        0,
			"current_streak":        0,
			"updated_at":            time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
