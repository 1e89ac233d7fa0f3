package governance

import (
	"context"
	"errors"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/internal/repository"
	"github.com/questx-lab/reputation/pkg/enum"
	"github.com/questx-lab/reputation/pkg/xcontext"
	"gorm.io/gorm"
)

type AIAccessLevel string

var (
	AIAccessBasic      = enum.New(AIAccessLevel("BASIC"))
	AIAccessAssisted   = enum.New(AIAccessLevel("ASSISTED"))
	AIAccessAutonomous = enum.New(AIAccessLevel("AUTONOMOUS"))
)

type Action string

var (
	ActionAutoMerge           = enum.New(Action("canAutoMerge"))
	ActionCreateOrg           = enum.New(Action("canCreateOrg"))
	ActionUseAdvancedSecurity = enum.New(Action("canUseAdvancedSecurity"))
)

const (
	autoMergeQualityThreshold      = 80
	createOrgArchitectureThreshold = 60
	advancedSecurityThreshold      = 70
	bonusConsistencyThreshold      = 90
	autonomousCodingThreshold      = 85
	assistedCodingThreshold        = 50

	BonusXPMultiplier   = 1.2
	DefaultXPMultiplier = 1.0
)

type Permissions struct {
	CanAutoMerge           bool
	CanCreateOrg           bool
	CanUseAdvancedSecurity bool
	XPMultiplier           float64
	AIAccessLevel          AIAccessLevel
}

// Default is granted to users who have no scores yet.
func Default() Permissions {
	return Permissions{
		XPMultiplier:  DefaultXPMultiplier,
		AIAccessLevel: AIAccessBasic,
	}
}

// Evaluate derives permissions from scores. Every threshold is strict.
func Evaluate(scores entity.SkillScores) Permissions {
	p := Permissions{
		CanAutoMerge:           scores.Quality > autoMergeQualityThreshold,
		CanCreateOrg:           scores.Architecture > createOrgArchitectureThreshold,
		CanUseAdvancedSecurity: scores.Security > advancedSecurityThreshold,
		XPMultiplier:           DefaultXPMultiplier,
		AIAccessLevel:          AIAccessBasic,
	}

	if scores.Consistency > bonusConsistencyThreshold {
		p.XPMultiplier = BonusXPMultiplier
	}

	switch {
	case scores.Coding > autonomousCodingThreshold:
		p.AIAccessLevel = AIAccessAutonomous
	case scores.Coding > assistedCodingThreshold:
		p.AIAccessLevel = AIAccessAssisted
	}

	return p
}

// Allows reports the boolean permission named by action. Unknown actions are
// never allowed.
func (p Permissions) Allows(action string) bool {
	a, err := enum.ToEnum[Action](action)
	if err != nil {
		return false
	}

	switch a {
	case ActionAutoMerge:
		return p.CanAutoMerge
	case ActionCreateOrg:
		return p.CanCreateOrg
	case ActionUseAdvancedSecurity:
		return p.CanUseAdvancedSecurity
	default:
		return false
	}
}

type Engine struct {
	scoreRepo repository.UserSkillScoreRepository
}

func NewEngine(scoreRepo repository.UserSkillScoreRepository) *Engine {
	return &Engine{scoreRepo: scoreRepo}
}

// GetPermissions never fails because of missing data, a user without scores
// or a storage failure both get Default. Found tells whether scores were
// read.
func (e *Engine) GetPermissions(ctx context.Context, userID string) (Permissions, bool) {
	score, err := e.scoreRepo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Warnf("Cannot get skill score of user %s, use default permissions: %v",
				userID, err)
		}

		return Default(), false
	}

	return Evaluate(score.SkillScores), true
}

func (e *Engine) CheckPermission(ctx context.Context, userID, action string) bool {
	permissions, _ := e.GetPermissions(ctx, userID)
	return permissions.Allows(action)
}
