package entity

import (
	"time"

	"github.com/questx-lab/reputation/pkg/enum"
)

type AchievementTier string

var (
	AchievementTierBronze   = enum.New(AchievementTier("bronze"))
	AchievementTierSilver   = enum.New(AchievementTier("silver"))
	AchievementTierGold     = enum.New(AchievementTier("gold"))
	AchievementTierPlatinum = enum.New(AchievementTier("platinum"))
)

type Achievement struct {
	ID          string `gorm:"primaryKey"`
	Key         string `gorm:"unique;not null"`
	Name        string
	Description string
	Points      int64
	Tier        AchievementTier
}

// UserAchievement exists at most once per (user, achievement) pair.
type UserAchievement struct {
	UserID        string      `gorm:"primaryKey"`
	AchievementID string      `gorm:"primaryKey"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID"`
	UnlockedAt    time.Time
}
