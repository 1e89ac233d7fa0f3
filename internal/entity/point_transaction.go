package entity

import "gorm.io/datatypes"

// Achievement bonuses are recorded with the activity "achievement:<key>".
const AchievementActivityPrefix = "achievement:"

type PointTransaction struct {
	SnowFlakeBase

	UserID   string `gorm:"index;not null"`
	Points   int64
	Activity string `gorm:"index"`
	Metadata datatypes.JSONMap
}
