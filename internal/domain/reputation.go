package domain

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/structs"
	"github.com/questx-lab/reputation/internal/common"
	"github.com/questx-lab/reputation/internal/domain/accumulator"
	"github.com/questx-lab/reputation/internal/domain/achievement"
	"github.com/questx-lab/reputation/internal/domain/governance"
	"github.com/questx-lab/reputation/internal/domain/ledger"
	"github.com/questx-lab/reputation/internal/domain/normalizer"
	"github.com/questx-lab/reputation/internal/domain/progression"
	"github.com/questx-lab/reputation/internal/domain/statistic"
	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/model"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/dateutil"
	"github.com/questx-lab/reputation/pkg/errorx"
	"github.com/questx-lab/reputation/pkg/keylock"
	"github.com/questx-lab/reputation/pkg/pubsub"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm"
)

type ReputationDomain interface {
	IngestEvent(context.Context, *model.IngestEventRequest) (*model.IngestEventResponse, error)
	GetRadar(context.Context, *model.GetRadarRequest) (*model.GetRadarResponse, error)
	GetRadarHistory(context.Context, *model.GetRadarHistoryRequest) (*model.GetRadarHistoryResponse, error)
	GetPermissions(context.Context, *model.GetPermissionsRequest) (*model.GetPermissionsResponse, error)
	CheckPermission(context.Context, *model.CheckPermissionRequest) (*model.CheckPermissionResponse, error)
	GetProgressionProfile(context.Context, *model.GetProgressionRequest) (*model.GetProgressionResponse, error)
	GetLeaderboard(context.Context, *model.GetLeaderboardRequest) (*model.GetLeaderboardResponse, error)
	GetTransactionHistory(context.Context, *model.GetTransactionsRequest) (*model.GetTransactionsResponse, error)
	GetAchievementCatalog(context.Context, *model.GetAchievementsRequest) (*model.GetAchievementsResponse, error)
	GetUserAchievements(context.Context, *model.GetUserAchievementsRequest) (*model.GetUserAchievementsResponse, error)
	ResetMetrics(context.Context, *model.ResetMetricsRequest) (*model.ResetMetricsResponse, error)
}

type reputationDomain struct {
	ledger             *ledger.Ledger
	accumulator        *accumulator.Accumulator
	normalizer         *normalizer.Normalizer
	scheduler          normalizer.Scheduler
	progressionEngine  *progression.Engine
	governanceEngine   *governance.Engine
	achievementManager *achievement.Manager
	leaderboard        statistic.Leaderboard
	scoreRepo          repository.UserSkillScoreRepository
	transactionRepo    repository.PointTransactionRepository

	// Optional, level ups are not published if it is nil.
	publisher pubsub.Publisher

	// Events of one user are processed one at a time, in arrival order.
	userLock *keylock.KeyLock
}

func NewReputationDomain(
	ledger *ledger.Ledger,
	accumulator *accumulator.Accumulator,
	normalizer *normalizer.Normalizer,
	scheduler normalizer.Scheduler,
	progressionEngine *progression.Engine,
	governanceEngine *governance.Engine,
	achievementManager *achievement.Manager,
	leaderboard statistic.Leaderboard,
	scoreRepo repository.UserSkillScoreRepository,
	transactionRepo repository.PointTransactionRepository,
	publisher pubsub.Publisher,
) *reputationDomain {
	return &reputationDomain{
		ledger:             ledger,
		accumulator:        accumulator,
		normalizer:         normalizer,
		scheduler:          scheduler,
		progressionEngine:  progressionEngine,
		governanceEngine:   governanceEngine,
		achievementManager: achievementManager,
		leaderboard:        leaderboard,
		scoreRepo:          scoreRepo,
		transactionRepo:    transactionRepo,
		publisher:          publisher,
		userLock:           keylock.New(),
	}
}

// ingestResult is what one committed attempt of IngestEvent produced.
type ingestResult struct {
	event     *entity.ActivityEvent
	duplicate bool
	counted   bool
	reject    string
	points    int64
	unlocked  []achievement.Unlocked
	oldLevel  int
	newLevel  int
	xp        int64
	rank      entity.ProgressionRank
	awarded   bool
}

type activityAwardMetadata struct {
	EventID      string  `structs:"event_id"`
	BasePoints   int64   `structs:"base_points"`
	XPMultiplier float64 `structs:"xp_multiplier"`
	Capped       bool    `structs:"capped"`
}

func (d *reputationDomain) IngestEvent(
	ctx context.Context, req *model.IngestEventRequest,
) (*model.IngestEventResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	if req.Type == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty event type")
	}

	activityType := entity.ActivityType(strings.ToUpper(req.Type))
	startTime := time.Now()

	unlock := d.userLock.Lock(req.UserID)
	defer unlock()

	maxRetries := xcontext.Configs(ctx).Reputation.MaxConflictRetries
	var result *ingestResult
	var err error
	for attempt := 0; ; attempt++ {
		result, err = d.ingestOnce(ctx, req, activityType)
		if !errors.Is(err, progression.ErrConflict) || attempt >= maxRetries {
			break
		}

		common.PromCounters[common.ProgressionConflictsTotal].WithLabelValues().Inc()
		xcontext.Logger(ctx).Warnf("Conflict when ingesting event of user %s, retry %d", req.UserID, attempt+1)
	}

	if err != nil {
		if errors.Is(err, progression.ErrConflict) {
			xcontext.Logger(ctx).Errorf("Give up ingesting event of user %s after %d retries", req.UserID, maxRetries)
			return nil, errorx.New(errorx.Unavailable, "Too many concurrent updates, try again later")
		}

		if errors.Is(err, ledger.ErrKeyReused) {
			return nil, errorx.New(errorx.AlreadyExists, "Idempotency key is used by another event")
		}

		return nil, errorx.New(errorx.Unavailable, "Cannot ingest the event")
	}

	if !result.duplicate {
		d.afterIngest(ctx, req.UserID, activityType, result)
		common.PromHistograms[common.IngestDurationSeconds].
			WithLabelValues(string(activityType)).
			Observe(time.Since(startTime).Seconds())
	}

	resp := &model.IngestEventResponse{
		EventID:              strconv.FormatInt(result.event.ID, 10),
		Duplicate:            result.duplicate,
		Counted:              result.counted,
		PointsAwarded:        result.points,
		LeveledUp:            result.newLevel > result.oldLevel,
		Level:                result.newLevel,
		UnlockedAchievements: []string{},
	}
	for _, u := range result.unlocked {
		resp.UnlockedAchievements = append(resp.UnlockedAchievements, u.Achievement.Key)
	}

	return resp, nil
}

// ingestOnce runs the whole pipeline of one event in a single transaction.
func (d *reputationDomain) ingestOnce(
	ctx context.Context,
	req *model.IngestEventRequest,
	activityType entity.ActivityType,
) (*ingestResult, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	event, duplicate, err := d.ledger.Record(ctx, req.UserID, activityType, req.Metadata, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	result := &ingestResult{event: event, duplicate: duplicate}
	if duplicate {
		return result, xcontext.WithCommitDBTransaction(ctx)
	}

	accumulated, err := d.accumulator.Apply(ctx, req.UserID, activityType, req.Metadata)
	if err != nil {
		return nil, err
	}
	result.counted = accumulated.Counted
	result.reject = accumulated.RejectReason

	if err := d.scheduler.Schedule(ctx, req.UserID); err != nil {
		return nil, err
	}

	result.unlocked, err = d.achievementManager.CheckAchievements(ctx, req.UserID, activityType)
	if err != nil {
		return nil, err
	}

	for _, u := range result.unlocked {
		result.track(u.Award)
	}

	award, err := d.awardActivityPoints(ctx, req.UserID, activityType, event, accumulated)
	if err != nil {
		return nil, err
	}

	if award != nil {
		result.points = award.Transaction.Points
		result.track(award)
	}

	if !result.awarded {
		profile, err := d.progressionEngine.Profile(ctx, req.UserID)
		if err != nil {
			return nil, err
		}

		result.oldLevel, result.newLevel = profile.Level, profile.Level
		result.xp, result.rank = profile.ExperiencePoints, profile.Rank
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit event of user %s: %v", req.UserID, err)
		return nil, err
	}

	return result, nil
}

func (r *ingestResult) track(award *progression.AwardResult) {
	if !r.awarded {
		r.oldLevel = award.OldLevel
		r.awarded = true
	}

	r.newLevel = award.NewLevel
	r.xp = award.ExperiencePoints
	r.rank = award.Rank
}

// awardActivityPoints gives the configured points of the activity, scaled by
// the multiplier of the user's current permissions. Review points are capped
// per UTC day. Nil is returned when there is nothing to award.
func (d *reputationDomain) awardActivityPoints(
	ctx context.Context,
	userID string,
	activityType entity.ActivityType,
	event *entity.ActivityEvent,
	accumulated *accumulator.Result,
) (*progression.AwardResult, error) {
	cfg := xcontext.Configs(ctx).Reputation
	base := common.ActivityPoints(cfg, activityType)
	if base <= 0 || accumulated.RejectReason != "" {
		return nil, nil
	}

	permissions, _ := d.governanceEngine.GetPermissions(ctx, userID)
	points := int64(math.Floor(float64(base) * permissions.XPMultiplier))

	capped := false
	if activityType == entity.ActivityPRReview && cfg.CollabDailyCap > 0 {
		now := time.Now()
		earned, err := d.transactionRepo.SumPoints(
			ctx, userID, string(activityType), dateutil.Day(now), dateutil.NextDay(now))
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot sum review points of user %s: %v", userID, err)
			return nil, err
		}

		if remaining := int64(cfg.CollabDailyCap) - earned; points > remaining {
			points = max(remaining, 0)
			capped = true
		}
	}

	if points <= 0 {
		return nil, nil
	}

	metadata := structs.Map(activityAwardMetadata{
		EventID:      strconv.FormatInt(event.ID, 10),
		BasePoints:   base,
		XPMultiplier: permissions.XPMultiplier,
		Capped:       capped,
	})

	return d.progressionEngine.AwardPoints(ctx, userID, string(activityType), points, metadata)
}

// afterIngest runs the side effects of a committed event. Their failures are
// logged only, the event itself is already durable.
func (d *reputationDomain) afterIngest(
	ctx context.Context,
	userID string,
	activityType entity.ActivityType,
	result *ingestResult,
) {
	common.PromCounters[common.EventsIngestedTotal].WithLabelValues(string(activityType)).Inc()
	if result.reject != "" {
		common.PromCounters[common.EventsRejectedTotal].WithLabelValues(result.reject).Inc()
	}

	for _, u := range result.unlocked {
		common.PromCounters[common.AchievementsUnlockedTotal].WithLabelValues(u.Achievement.Key).Inc()
	}

	if !result.awarded {
		return
	}

	if err := d.leaderboard.Update(ctx, userID, result.xp); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot update leaderboard for user %s: %v", userID, err)
	}

	if result.newLevel <= result.oldLevel {
		return
	}

	common.PromCounters[common.LevelUpsTotal].WithLabelValues().Inc()
	if d.publisher == nil {
		return
	}

	b, err := json.Marshal(model.ProgressionEvent{
		UserID:           userID,
		OldLevel:         result.oldLevel,
		NewLevel:         result.newLevel,
		Rank:             string(result.rank),
		ExperiencePoints: result.xp,
		EventID:          strconv.FormatInt(result.event.ID, 10),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal progression event: %v", err)
		return
	}

	topic := xcontext.Configs(ctx).Kafka.ProgressionTopic
	if err := d.publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(userID), Msg: b}); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish level up of user %s: %v", userID, err)
	}
}

func (d *reputationDomain) GetRadar(
	ctx context.Context, req *model.GetRadarRequest,
) (*model.GetRadarResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	score, err := d.scoreRepo.Get(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "No radar data yet")
		}

		xcontext.Logger(ctx).Errorf("Cannot get skill score of user %s: %v", req.UserID, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot get radar")
	}

	resp := model.GetRadarResponse(model.ConvertRadar(score))
	return &resp, nil
}

func (d *reputationDomain) GetRadarHistory(
	ctx context.Context, req *model.GetRadarHistoryRequest,
) (*model.GetRadarHistoryResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	apiCfg := xcontext.Configs(ctx).ApiServer
	offset, limit, ok := common.Pagination(req.Offset, req.Limit, apiCfg.DefaultLimit, apiCfg.MaxLimit)
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Invalid offset or limit")
	}

	snapshots, total, err := d.normalizer.History(ctx, req.UserID, offset, limit)
	if err != nil {
		return nil, errorx.New(errorx.Unavailable, "Cannot get radar history")
	}

	resp := &model.GetRadarHistoryResponse{Snapshots: []model.RadarSnapshot{}, Total: total}
	for i := range snapshots {
		resp.Snapshots = append(resp.Snapshots, model.ConvertRadarSnapshot(&snapshots[i]))
	}

	return resp, nil
}

func (d *reputationDomain) GetPermissions(
	ctx context.Context, req *model.GetPermissionsRequest,
) (*model.GetPermissionsResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	permissions, found := d.governanceEngine.GetPermissions(ctx, req.UserID)
	return &model.GetPermissionsResponse{
		Permissions: model.Permissions{
			CanAutoMerge:           permissions.CanAutoMerge,
			CanCreateOrg:           permissions.CanCreateOrg,
			CanUseAdvancedSecurity: permissions.CanUseAdvancedSecurity,
			XPMultiplier:           permissions.XPMultiplier,
			AIAccessLevel:          string(permissions.AIAccessLevel),
		},
		HasScores: found,
	}, nil
}

func (d *reputationDomain) CheckPermission(
	ctx context.Context, req *model.CheckPermissionRequest,
) (*model.CheckPermissionResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	return &model.CheckPermissionResponse{
		Allowed: d.governanceEngine.CheckPermission(ctx, req.UserID, req.Action),
	}, nil
}

func (d *reputationDomain) GetProgressionProfile(
	ctx context.Context, req *model.GetProgressionRequest,
) (*model.GetProgressionResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	profile, err := d.progressionEngine.Profile(ctx, req.UserID)
	if err != nil {
		return nil, errorx.New(errorx.Unavailable, "Cannot get progression")
	}

	position := 0
	if profile.Found {
		position, err = d.leaderboard.GetPosition(ctx, req.UserID)
		if err != nil {
			return nil, errorx.New(errorx.Unavailable, "Cannot get leaderboard position")
		}
	}

	return &model.GetProgressionResponse{
		UserID:              req.UserID,
		Found:               profile.Found,
		ExperiencePoints:    profile.ExperiencePoints,
		Level:               profile.Level,
		Rank:                string(profile.Rank),
		LevelProgress:       profile.LevelProgress,
		XPForNextLevel:      profile.XPForNextLevel,
		XPIntoCurrentLevel:  profile.XPIntoCurrentLevel,
		LeaderboardPosition: position,
	}, nil
}

func (d *reputationDomain) GetLeaderboard(
	ctx context.Context, req *model.GetLeaderboardRequest,
) (*model.GetLeaderboardResponse, error) {
	cfg := xcontext.Configs(ctx)
	offset, limit, ok := common.Pagination(
		req.Offset, req.Limit, cfg.ApiServer.DefaultLimit, cfg.Reputation.LeaderboardMaxLimit)
	if !ok {
		return nil, errorx.New(errorx.BadRequest,
			"Limit must be at most %d and offset must not be negative", cfg.Reputation.LeaderboardMaxLimit)
	}

	entries, err := d.leaderboard.GetLeaderboard(ctx, offset, limit)
	if err != nil {
		return nil, errorx.New(errorx.Unavailable, "Cannot get leaderboard")
	}

	resp := &model.GetLeaderboardResponse{Entries: []model.LeaderboardEntry{}}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, model.LeaderboardEntry{
			Position:         e.Position,
			UserID:           e.UserID,
			ExperiencePoints: e.ExperiencePoints,
			Level:            e.Level,
			Rank:             string(e.Rank),
		})
	}

	return resp, nil
}

func (d *reputationDomain) GetTransactionHistory(
	ctx context.Context, req *model.GetTransactionsRequest,
) (*model.GetTransactionsResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	apiCfg := xcontext.Configs(ctx).ApiServer
	offset, limit, ok := common.Pagination(req.Offset, req.Limit, apiCfg.DefaultLimit, apiCfg.MaxLimit)
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Invalid offset or limit")
	}

	transactions, err := d.transactionRepo.GetList(ctx, req.UserID, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get transactions of user %s: %v", req.UserID, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot get transactions")
	}

	total, err := d.transactionRepo.Count(ctx, req.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count transactions of user %s: %v", req.UserID, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot get transactions")
	}

	resp := &model.GetTransactionsResponse{Transactions: []model.PointTransaction{}, Total: total}
	for i := range transactions {
		resp.Transactions = append(resp.Transactions, model.ConvertPointTransaction(&transactions[i]))
	}

	return resp, nil
}

func (d *reputationDomain) GetAchievementCatalog(
	ctx context.Context, req *model.GetAchievementsRequest,
) (*model.GetAchievementsResponse, error) {
	achievements, err := d.achievementManager.GetCatalog(ctx)
	if err != nil {
		return nil, errorx.New(errorx.Unavailable, "Cannot get achievements")
	}

	resp := &model.GetAchievementsResponse{Achievements: []model.Achievement{}}
	for i := range achievements {
		resp.Achievements = append(resp.Achievements, model.ConvertAchievement(&achievements[i]))
	}

	return resp, nil
}

func (d *reputationDomain) GetUserAchievements(
	ctx context.Context, req *model.GetUserAchievementsRequest,
) (*model.GetUserAchievementsResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	achievements, err := d.achievementManager.GetUserAchievements(ctx, req.UserID)
	if err != nil {
		return nil, errorx.New(errorx.Unavailable, "Cannot get achievements")
	}

	resp := &model.GetUserAchievementsResponse{Achievements: []model.UserAchievement{}}
	for i := range achievements {
		resp.Achievements = append(resp.Achievements, model.ConvertUserAchievement(&achievements[i]))
	}

	return resp, nil
}

// ResetMetrics zeroes the raw metrics of a user and recalculates the radar.
// Experience, achievements and history are kept.
func (d *reputationDomain) ResetMetrics(
	ctx context.Context, req *model.ResetMetricsRequest,
) (*model.ResetMetricsResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	unlock := d.userLock.Lock(req.UserID)
	defer unlock()

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.accumulator.Reset(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "User has no metrics")
		}

		xcontext.Logger(ctx).Errorf("Cannot reset metrics of user %s: %v", req.UserID, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot reset metrics")
	}

	if err := d.scheduler.Schedule(ctx, req.UserID); err != nil {
		return nil, errorx.New(errorx.Unavailable, "Cannot reset metrics")
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot commit metrics reset of user %s: %v", req.UserID, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot reset metrics")
	}

	return &model.ResetMetricsResponse{}, nil
}
