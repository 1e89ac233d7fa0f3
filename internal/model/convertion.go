package model

import (
	"strconv"
	"time"

	"github.com/questx-lab/reputation/internal/entity"
)

const DefaultTimeLayout string = time.RFC3339Nano

func ConvertSkillScores(s entity.SkillScores) SkillScores {
	return SkillScores{
		Coding:          s.Coding,
		Quality:         s.Quality,
		BugDetection:    s.BugDetection,
		Security:        s.Security,
		Collaboration:   s.Collaboration,
		Architecture:    s.Architecture,
		Consistency:     s.Consistency,
		CommunityImpact: s.CommunityImpact,
	}
}

func ConvertRadar(s *entity.UserSkillScore) Radar {
	if s == nil {
		return Radar{}
	}

	return Radar{
		UserID:           s.UserID,
		Scores:           ConvertSkillScores(s.SkillScores),
		LastCalculatedAt: s.LastCalculatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertRadarSnapshot(s *entity.RadarSnapshot) RadarSnapshot {
	if s == nil {
		return RadarSnapshot{}
	}

	return RadarSnapshot{
		ID:        strconv.FormatInt(s.ID, 10),
		Scores:    ConvertSkillScores(s.SkillScores),
		CreatedAt: s.CreatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertPointTransaction(t *entity.PointTransaction) PointTransaction {
	if t == nil {
		return PointTransaction{}
	}

	metadata := map[string]any{}
	for k, v := range t.Metadata {
		metadata[k] = v
	}

	return PointTransaction{
		ID:        strconv.FormatInt(t.ID, 10),
		UserID:    t.UserID,
		Points:    t.Points,
		Activity:  t.Activity,
		Metadata:  metadata,
		CreatedAt: t.CreatedAt.Format(DefaultTimeLayout),
	}
}

func ConvertAchievement(a *entity.Achievement) Achievement {
	if a == nil {
		return Achievement{}
	}

	return Achievement{
		ID:          a.ID,
		Key:         a.Key,
		Name:        a.Name,
		Description: a.Description,
		Points:      a.Points,
		Tier:        string(a.Tier),
	}
}

func ConvertUserAchievement(a *entity.UserAchievement) UserAchievement {
	if a == nil {
		return UserAchievement{}
	}

	return UserAchievement{
		Achievement: ConvertAchievement(&a.Achievement),
		UnlockedAt:  a.UnlockedAt.Format(DefaultTimeLayout),
	}
}
