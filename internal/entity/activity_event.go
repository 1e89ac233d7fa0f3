package entity

import (
	"database/sql"

	"github.com/questx-lab/reputation/pkg/enum"
	"gorm.io/datatypes"
)

type ActivityType string

var (
	ActivityCommitPush    = enum.New(ActivityType("COMMIT_PUSH"))
	ActivityPRMerged      = enum.New(ActivityType("PR_MERGED"))
	ActivityBugFixed      = enum.New(ActivityType("BUG_FIXED"))
	ActivitySecurityFix   = enum.New(ActivityType("SECURITY_FIX"))
	ActivityPRReview      = enum.New(ActivityType("PR_REVIEW"))
	ActivityCommunityStar = enum.New(ActivityType("COMMUNITY_STAR"))
	ActivityRepoCreated   = enum.New(ActivityType("REPO_CREATED"))
)

// ActivityEvent is the audit trail of everything ingested. Rows are never
// updated nor deleted.
type ActivityEvent struct {
	SnowFlakeBase

	UserID   string `gorm:"index;not null"`
	Type     ActivityType
	Metadata datatypes.JSONMap

	// IdempotencyKey is optional, a second event with the same key is not
	// recorded.
	IdempotencyKey sql.NullString `gorm:"unique"`
}
