package progression

import (
	"testing"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestXPForLevel(t *testing.T) {
	require.Equal(t, int64(0), XPForLevel(0))
	require.Equal(t, int64(0), XPForLevel(1))
	require.Equal(t, int64(282), XPForLevel(2))
	require.Equal(t, int64(519), XPForLevel(3))
	require.Equal(t, int64(800), XPForLevel(4))
	require.Equal(t, int64(100000), XPForLevel(100))
}

func TestLevelFromXP(t *testing.T) {
	testCases := []struct {
		xp    int64
		level int
	}{
		{xp: 0, level: 1},
		{xp: -50, level: 1},
		{xp: 281, level: 1},
		{xp: 282, level: 2},
		{xp: 518, level: 2},
		{xp: 519, level: 3},
		{xp: 800, level: 4},
		{xp: 99999, level: 99},
		{xp: 100000, level: 100},
		{xp: 10000000, level: 100},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.level, LevelFromXP(tc.xp), "xp=%d", tc.xp)
	}
}

func TestLevelFromXP_Monotonic(t *testing.T) {
	prev := LevelFromXP(0)
	for xp := int64(0); xp <= 120000; xp++ {
		level := LevelFromXP(xp)
		require.GreaterOrEqual(t, level, prev, "xp=%d", xp)
		require.LessOrEqual(t, XPForLevel(level), xp, "xp=%d", xp)
		if level < MaxLevel {
			require.Greater(t, XPForLevel(level+1), xp, "xp=%d", xp)
		}
		prev = level
	}
}

func TestLevelProgress(t *testing.T) {
	require.Equal(t, float64(0), LevelProgress(0, 1))
	require.InDelta(t, 50, LevelProgress(141, 1), 0.2)
	require.Equal(t, float64(0), LevelProgress(282, 2))
	require.Equal(t, float64(100), LevelProgress(10000, 2))
	require.Equal(t, float64(0), LevelProgress(0, 5))

	for xp := int64(0); xp <= 120000; xp += 7 {
		progress := LevelProgress(xp, LevelFromXP(xp))
		require.GreaterOrEqual(t, progress, float64(0))
		require.LessOrEqual(t, progress, float64(100))
	}
}

func TestRankOf(t *testing.T) {
	testCases := []struct {
		level int
		rank  entity.ProgressionRank
	}{
		{1, entity.RankNovice},
		{4, entity.RankNovice},
		{5, entity.RankBronze},
		{9, entity.RankBronze},
		{10, entity.RankSilver},
		{25, entity.RankGold},
		{49, entity.RankGold},
		{50, entity.RankPlatinum},
		{75, entity.RankDiamond},
		{99, entity.RankDiamond},
		{100, entity.RankLegend},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.rank, RankOf(tc.level), "level=%d", tc.level)
	}
}

func TestDerive(t *testing.T) {
	state := Derive(0)
	require.Equal(t, State{ExperiencePoints: 0, Level: 1, Rank: entity.RankNovice, LevelProgress: 0}, state)

	state = Derive(-10)
	require.Equal(t, int64(0), state.ExperiencePoints)
	require.Equal(t, 1, state.Level)

	state = Derive(1118)
	require.Equal(t, 5, state.Level)
	require.Equal(t, entity.RankBronze, state.Rank)
}
