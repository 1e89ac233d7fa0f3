package model

type IngestEventRequest struct {
	UserID         string         `json:"user_id"`
	Type           string         `json:"type"`
	Metadata       map[string]any `json:"metadata"`
	IdempotencyKey string         `json:"idempotency_key"`
}

type IngestEventResponse struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`

	// Counted is false when anti-abuse rules discarded the counters of the
	// event.
	Counted              bool     `json:"counted"`
	PointsAwarded        int64    `json:"points_awarded"`
	LeveledUp            bool     `json:"leveled_up"`
	Level                int      `json:"level"`
	UnlockedAchievements []string `json:"unlocked_achievements"`
}

type GetRadarRequest struct {
	UserID string `json:"user_id" form:"user_id"`
}

type GetRadarResponse Radar

type GetRadarHistoryRequest struct {
	UserID string `json:"user_id" form:"user_id"`
	Offset int    `json:"offset" form:"offset"`
	Limit  int    `json:"limit" form:"limit"`
}

type GetRadarHistoryResponse struct {
	Snapshots []RadarSnapshot `json:"snapshots"`
	Total     int64           `json:"total"`
}

type GetPermissionsRequest struct {
	UserID string `json:"user_id" form:"user_id"`
}

type GetPermissionsResponse struct {
	Permissions Permissions `json:"permissions"`

	// HasScores is false when the default permissions were returned.
	HasScores bool `json:"has_scores"`
}

type CheckPermissionRequest struct {
	UserID string `json:"user_id" form:"user_id"`
	Action string `json:"action" form:"action"`
}

type CheckPermissionResponse struct {
	Allowed bool `json:"allowed"`
}

type GetProgressionRequest struct {
	UserID string `json:"user_id" form:"user_id"`
}

type GetProgressionResponse ProgressionProfile

type GetLeaderboardRequest struct {
	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetLeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

type GetTransactionsRequest struct {
	UserID string `json:"user_id" form:"user_id"`
	Offset int    `json:"offset" form:"offset"`
	Limit  int    `json:"limit" form:"limit"`
}

type GetTransactionsResponse struct {
	Transactions []PointTransaction `json:"transactions"`
	Total        int64              `json:"total"`
}

type GetAchievementsRequest struct{}

type GetAchievementsResponse struct {
	Achievements []Achievement `json:"achievements"`
}

type GetUserAchievementsRequest struct {
	UserID string `json:"user_id" form:"user_id"`
}

type GetUserAchievementsResponse struct {
	Achievements []UserAchievement `json:"achievements"`
}

type ResetMetricsRequest struct {
	UserID string `json:"user_id"`
}

type ResetMetricsResponse struct{}

// ProgressionEvent is published when a user levels up.
type ProgressionEvent struct {
	UserID           string `json:"user_id"`
	OldLevel         int    `json:"old_level"`
	NewLevel         int    `json:"new_level"`
	Rank             string `json:"rank"`
	ExperiencePoints int64  `json:"experience_points"`
	EventID          string `json:"event_id"`
}
