package model

type SkillScores struct {
	Coding          float64 `json:"coding"`
	Quality         float64 `json:"quality"`
	BugDetection    float64 `json:"bug_detection"`
	Security        float64 `json:"security"`
	Collaboration   float64 `json:"collaboration"`
	Architecture    float64 `json:"architecture"`
	Consistency     float64 `json:"consistency"`
	CommunityImpact float64 `json:"community_impact"`
}

type Radar struct {
	UserID           string      `json:"user_id"`
	Scores           SkillScores `json:"scores"`
	LastCalculatedAt string      `json:"last_calculated_at"`
}

type RadarSnapshot struct {
	ID        string      `json:"id"`
	Scores    SkillScores `json:"scores"`
	CreatedAt string      `json:"created_at"`
}

type Permissions struct {
	CanAutoMerge           bool    `json:"can_auto_merge"`
	CanCreateOrg           bool    `json:"can_create_org"`
	CanUseAdvancedSecurity bool    `json:"can_use_advanced_security"`
	XPMultiplier           float64 `json:"xp_multiplier"`
	AIAccessLevel          string  `json:"ai_access_level"`
}

type ProgressionProfile struct {
	UserID              string  `json:"user_id"`
	Found               bool    `json:"found"`
	ExperiencePoints    int64   `json:"experience_points"`
	Level               int     `json:"level"`
	Rank                string  `json:"rank"`
	LevelProgress       float64 `json:"level_progress"`
	XPForNextLevel      int64   `json:"xp_for_next_level"`
	XPIntoCurrentLevel  int64   `json:"xp_into_current_level"`
	LeaderboardPosition int     `json:"leaderboard_position"`
}

type LeaderboardEntry struct {
	Position         int    `json:"position"`
	UserID           string `json:"user_id"`
	ExperiencePoints int64  `json:"experience_points"`
	Level            int    `json:"level"`
	Rank             string `json:"rank"`
}

type PointTransaction struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Points    int64          `json:"points"`
	Activity  string         `json:"activity"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt string         `json:"created_at"`
}

type Achievement struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int64  `json:"points"`
	Tier        string `json:"tier"`
}

type UserAchievement struct {
	Achievement Achievement `json:"achievement"`
	UnlockedAt  string      `json:"unlocked_at"`
}
