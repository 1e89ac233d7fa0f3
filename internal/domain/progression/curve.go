package progression

import (
	"math"

	"github.com/questx-lab/reputation/internal/entity"
)

const (
	MinLevel = 1
	MaxLevel = 100
)

// rankThresholds must stay sorted by level descending, the first match wins.
var rankThresholds = []struct {
	level int
	rank  entity.ProgressionRank
}{
	{100, entity.RankLegend},
	{75, entity.RankDiamond},
	{50, entity.RankPlatinum},
	{25, entity.RankGold},
	{10, entity.RankSilver},
	{5, entity.RankBronze},
}

// XPForLevel is the experience needed to reach level, floor(100 * level^1.5).
func XPForLevel(level int) int64 {
	if level <= MinLevel {
		return 0
	}

	return int64(math.Floor(100 * math.Pow(float64(level), 1.5)))
}

// LevelFromXP returns the highest level whose threshold is covered by xp,
// within [MinLevel, MaxLevel].
func LevelFromXP(xp int64) int {
	if xp <= 0 {
		return MinLevel
	}

	level := int(math.Floor(math.Pow(float64(xp)/100, 1/1.5)))
	level = clampLevel(level)

	// The closed form is computed in floating point and may be off by one
	// around exact thresholds, e.g. 282 xp gives 1.99.
	for level < MaxLevel && XPForLevel(level+1) <= xp {
		level++
	}

	for level > MinLevel && XPForLevel(level) > xp {
		level--
	}

	return level
}

// LevelProgress is the percentage of the way from level to level+1, in
// [0, 100].
func LevelProgress(xp int64, level int) float64 {
	current := XPForLevel(level)
	next := XPForLevel(level + 1)
	if next <= current {
		return 0
	}

	progress := float64(xp-current) / float64(next-current) * 100
	return math.Max(0, math.Min(100, progress))
}

func RankOf(level int) entity.ProgressionRank {
	for _, t := range rankThresholds {
		if level >= t.level {
			return t.rank
		}
	}

	return entity.RankNovice
}

// State is everything derived from an amount of experience.
type State struct {
	ExperiencePoints int64
	Level            int
	Rank             entity.ProgressionRank
	LevelProgress    float64
}

func Derive(xp int64) State {
	if xp < 0 {
		xp = 0
	}

	level := LevelFromXP(xp)
	return State{
		ExperiencePoints: xp,
		Level:            level,
		Rank:             RankOf(level),
		LevelProgress:    LevelProgress(xp, level),
	}
}

func clampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}

	if level > MaxLevel {
		return MaxLevel
	}

	return level
}
