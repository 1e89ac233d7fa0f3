package accumulator

import (
	"context"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

// A commit is only counted if it changed strictly more lines than this.
const MinLinesForCommit = 10

const RejectReasonSmallCommit = "small_commit"

// Result describes what an event did to the raw metrics.
type Result struct {
	Delta repository.MetricsDelta

	// Counted is true if the event changed a skill counter, the streak
	// aside.
	Counted bool

	// RejectReason is set when anti-abuse rules discarded the event.
	RejectReason string
}

type deltaFunc func(metadata map[string]any) Result

var dispatch = map[entity.ActivityType]deltaFunc{
	entity.ActivityCommitPush: func(metadata map[string]any) Result {
		m := decodeMetadata[commitMetadata](metadata)
		if m.LinesChanged <= MinLinesForCommit {
			return Result{RejectReason: RejectReasonSmallCommit}
		}

		return Result{
			Counted: true,
			Delta:   repository.MetricsDelta{CommitsPushed: 1, LinesChanged: m.LinesChanged},
		}
	},
	entity.ActivityPRMerged: func(metadata map[string]any) Result {
		m := decodeMetadata[prMergedMetadata](metadata)
		delta := repository.MetricsDelta{PRMerged: 1}
		if m.IsLargeFeature {
			delta.LargeFeaturesMerged = 1
		}

		return Result{Counted: true, Delta: delta}
	},
	entity.ActivityBugFixed: func(map[string]any) Result {
		return Result{Counted: true, Delta: repository.MetricsDelta{BugsFixed: 1}}
	},
	entity.ActivitySecurityFix: func(map[string]any) Result {
		return Result{Counted: true, Delta: repository.MetricsDelta{VulnerabilitiesFixed: 1}}
	},
	entity.ActivityPRReview: func(map[string]any) Result {
		return Result{Counted: true, Delta: repository.MetricsDelta{PRReviewsGiven: 1}}
	},
	entity.ActivityCommunityStar: func(map[string]any) Result {
		return Result{Counted: true, Delta: repository.MetricsDelta{StarsReceived: 1}}
	},
}

// ComputeDelta maps an event to its counter deltas. Types missing from the
// dispatch table only move the streak.
func ComputeDelta(activityType entity.ActivityType, metadata map[string]any) Result {
	result := Result{}
	if fn, ok := dispatch[activityType]; ok {
		result = fn(metadata)
	}

	// The streak counts every processed event, calendar days are not
	// considered.
	result.Delta.CurrentStreak = 1
	return result
}

type Accumulator struct {
	metricsRepo repository.SkillRawMetricsRepository
}

func New(metricsRepo repository.SkillRawMetricsRepository) *Accumulator {
	return &Accumulator{metricsRepo: metricsRepo}
}

// Apply writes every delta of the event in one statement, so either all of
// them or none are applied.
func (a *Accumulator) Apply(
	ctx context.Context,
	userID string,
	activityType entity.ActivityType,
	metadata map[string]any,
) (*Result, error) {
	result := ComputeDelta(activityType, metadata)
	if err := a.metricsRepo.Increase(ctx, userID, result.Delta); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot increase raw metrics of user %s: %v", userID, err)
		return nil, err
	}

	if result.RejectReason != "" {
		xcontext.Logger(ctx).Debugf("Event %s of user %s is not counted: %s",
			activityType, userID, result.RejectReason)
	}

	return &result, nil
}

// Reset sets every counter of user back to zero.
func (a *Accumulator) Reset(ctx context.Context, userID string) error {
	return a.metricsRepo.Reset(ctx, userID)
}

func (a *Accumulator) Get(ctx context.Context, userID string) (*entity.SkillRawMetrics, error) {
	return a.metricsRepo.Get(ctx, userID)
}
