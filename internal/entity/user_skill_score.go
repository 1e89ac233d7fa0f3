package entity

import "time"

// SkillScores are the eight radar dimensions, each in [0, 100].
type SkillScores struct {
	Coding          float64
	Quality         float64
	BugDetection    float64
	Security        float64
	Collaboration   float64
	Architecture    float64
	Consistency     float64
	CommunityImpact float64
}

type UserSkillScore struct {
	UserID string `gorm:"primaryKey"`
	SkillScores
	LastCalculatedAt time.Time
}

// RadarSnapshot is an immutable copy of a user's scores taken at every
// recalculation.
type RadarSnapshot struct {
	SnowFlakeBase

	UserID string `gorm:"index;not null"`
	SkillScores
}
