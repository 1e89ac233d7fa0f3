package entity

import "time"

type SkillRawMetrics struct {
	UserID string `gorm:"primaryKey"`

	CommitsPushed        int64 `gorm:"not null;default:0"`
	LinesChanged         int64 `gorm:"not null;default:0"`
	PRMerged             int64 `gorm:"column:pr_merged;not null;default:0"`
	LargeFeaturesMerged  int64 `gorm:"not null;default:0"`
	BugsFixed            int64 `gorm:"not null;default:0"`
	VulnerabilitiesFixed int64 `gorm:"not null;default:0"`
	PRReviewsGiven       int64 `gorm:"column:pr_reviews_given;not null;default:0"`
	StarsReceived        int64 `gorm:"not null;default:0"`
	CurrentStreak        int64 `gorm:"not null;default:0"`

	UpdatedAt time.Time
}
