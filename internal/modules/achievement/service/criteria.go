package service

import (
	"encoding/json"

	"github.com/idlecampus/progress-engine/internal/model"
	"gorm.io/datatypes"
)

// Criterion keys recognized by the evaluator. Unknown keys are ignored so
// old engine versions tolerate newer catalog rows.
const (
	criterionChallengesCompleted = "challenges_completed"
	criterionLevelsCompleted     = "levels_completed"
	criterionStreakDays          = "streak_days"
	criterionLevel               = "level"
	criterionTotalXP             = "total_xp"
)

// meetsCriteria evaluates an achievement's criteria against the stats
// snapshot. Criteria combine with OR: any single satisfied criterion
// unlocks. Empty criteria never unlock.
func meetsCriteria(stats *model.UserStats, criteria datatypes.JSONMap) bool {
	for key, raw := range criteria {
		threshold, ok := numericValue(raw)
		if !ok {
			continue
		}
		var actual int64
		switch key {
		case criterionChallengesCompleted:
			actual = int64(stats.TotalChallengesCompleted)
		case criterionLevelsCompleted:
			actual = int64(stats.TotalLevelsCompleted)
		case criterionStreakDays:
			actual = int64(stats.CurrentStreakDays)
		case criterionLevel:
			actual = int64(stats.CurrentLevel)
		case criterionTotalXP:
			actual = stats.TotalXP
		default:
			continue
		}
		if actual >= threshold {
			return true
		}
	}
	return false
}

// numericValue handles the shapes a JSON column yields: float64 after a
// round trip through the driver, int when built in code.
func numericValue(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
