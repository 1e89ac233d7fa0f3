package entity

import (
	"time"

	"github.com/questx-lab/reputation/pkg/enum"
)

type ProgressionRank string

var (
	RankNovice   = enum.New(ProgressionRank("Novice"))
	RankBronze   = enum.New(ProgressionRank("Bronze"))
	RankSilver   = enum.New(ProgressionRank("Silver"))
	RankGold     = enum.New(ProgressionRank("Gold"))
	RankPlatinum = enum.New(ProgressionRank("Platinum"))
	RankDiamond  = enum.New(ProgressionRank("Diamond"))
	RankLegend   = enum.New(ProgressionRank("Legend"))
)

type UserProgression struct {
	UserID string `gorm:"primaryKey"`

	ExperiencePoints int64 `gorm:"not null;default:0;index:idx_user_progressions_leaderboard,priority:1"`
	Level            int   `gorm:"not null;default:1;index:idx_user_progressions_leaderboard,priority:2"`
	Rank             ProgressionRank
	LevelProgress    float64

	// Version is bumped by every write, a writer holding a stale version
	// loses.
	Version int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
