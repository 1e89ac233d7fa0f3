package common

import (
	"strings"

	"github.com/questx-lab/reputation/config"
	"github.com/questx-lab/reputation/internal/entity"
)

// ActivityPoints returns the experience points configured for an activity
// type. Keys loaded from files are lowercased, so every case is accepted.
func ActivityPoints(cfg config.ReputationConfigs, activityType entity.ActivityType) int64 {
	key := string(activityType)
	for _, k := range []string{key, strings.ToLower(key), strings.ToUpper(key)} {
		if points, ok := cfg.ActivityPoints[k]; ok {
			return int64(points)
		}
	}

	return 0
}

// Pagination validates offset and limit of a list request. A zero limit
// means defaultLimit.
func Pagination(offset, limit, defaultLimit, maxLimit int) (int, int, bool) {
	if offset < 0 || limit < 0 || limit > maxLimit {
		return 0, 0, false
	}

	if limit == 0 {
		limit = defaultLimit
	}

	return offset, limit, true
}
