package achievement

import (
	"context"
	"errors"
	"fmt"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm"
)

type Scanner interface {
	// Key returns the key of the achievement this scanner decides on.
	Key() string

	// Triggers reports whether an activity of this type may unlock the
	// achievement.
	Triggers(activity entity.ActivityType) bool

	// Scan reports whether the user currently meets the condition.
	Scan(ctx context.Context, userID string) (bool, error)
}

type activityFilter []entity.ActivityType

func (f activityFilter) Triggers(activity entity.ActivityType) bool {
	if len(f) == 0 {
		return true
	}

	for _, a := range f {
		if a == activity {
			return true
		}
	}

	return false
}

var metricSelectors = map[string]func(*entity.SkillRawMetrics) int64{
	"commits_pushed":        func(m *entity.SkillRawMetrics) int64 { return m.CommitsPushed },
	"lines_changed":         func(m *entity.SkillRawMetrics) int64 { return m.LinesChanged },
	"pr_merged":             func(m *entity.SkillRawMetrics) int64 { return m.PRMerged },
	"large_features_merged": func(m *entity.SkillRawMetrics) int64 { return m.LargeFeaturesMerged },
	"bugs_fixed":            func(m *entity.SkillRawMetrics) int64 { return m.BugsFixed },
	"vulnerabilities_fixed": func(m *entity.SkillRawMetrics) int64 { return m.VulnerabilitiesFixed },
	"pr_reviews_given":      func(m *entity.SkillRawMetrics) int64 { return m.PRReviewsGiven },
	"stars_received":        func(m *entity.SkillRawMetrics) int64 { return m.StarsReceived },
	"current_streak":        func(m *entity.SkillRawMetrics) int64 { return m.CurrentStreak },
}

// metricScanner unlocks when a raw metric counter reaches the threshold.
type metricScanner struct {
	activityFilter

	key         string
	threshold   int64
	selector    func(*entity.SkillRawMetrics) int64
	metricsRepo repository.SkillRawMetricsRepository
}

func (s *metricScanner) Key() string {
	return s.key
}

func (s *metricScanner) Scan(ctx context.Context, userID string) (bool, error) {
	metrics, err := s.metricsRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get raw metrics of user %s: %v", userID, err)
		return false, err
	}

	return s.selector(metrics) >= s.threshold, nil
}

// eventCountScanner unlocks when the user has recorded enough events of one
// type. It serves activities which move no raw metric, like REPO_CREATED.
type eventCountScanner struct {
	activityFilter

	key          string
	threshold    int64
	activityType entity.ActivityType
	eventRepo    repository.ActivityEventRepository
}

func (s *eventCountScanner) Key() string {
	return s.key
}

func (s *eventCountScanner) Scan(ctx context.Context, userID string) (bool, error) {
	n, err := s.eventRepo.Count(ctx, userID, s.activityType)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count %s events of user %s: %v", s.activityType, userID, err)
		return false, err
	}

	return n >= s.threshold, nil
}

var eventCountMetrics = map[string]entity.ActivityType{
	"repositories_created": entity.ActivityRepoCreated,
}

// NewScanners builds one scanner per catalog entry.
func NewScanners(
	entries []CatalogEntry,
	metricsRepo repository.SkillRawMetricsRepository,
	eventRepo repository.ActivityEventRepository,
) ([]Scanner, error) {
	scanners := []Scanner{}
	for _, e := range entries {
		filter := activityFilter{}
		for _, a := range e.Activities {
			filter = append(filter, entity.ActivityType(a))
		}

		if selector, ok := metricSelectors[e.Metric]; ok {
			scanners = append(scanners, &metricScanner{
				activityFilter: filter,
				key:            e.Key,
				threshold:      e.Threshold,
				selector:       selector,
				metricsRepo:    metricsRepo,
			})
			continue
		}

		if activityType, ok := eventCountMetrics[e.Metric]; ok {
			scanners = append(scanners, &eventCountScanner{
				activityFilter: filter,
				key:            e.Key,
				threshold:      e.Threshold,
				activityType:   activityType,
				eventRepo:      eventRepo,
			})
			continue
		}

		return nil, fmt.Errorf("achievement %s: unknown metric %s", e.Key, e.Metric)
	}

	return scanners, nil
}
