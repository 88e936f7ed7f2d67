package service

import "math"

// LevelStatus describes where a user sits on the leveling curve.
type LevelStatus struct {
	CurrentLevel      int    `json:"current_level"`
	TotalXP           int64  `json:"total_xp"`
	XPForCurrentLevel int64  `json:"xp_for_current_level"` // cumulative XP at which the current level began
	XPForNextLevel    int64  `json:"xp_for_next_level"`    // cumulative XP required for the next level
	XPProgress        int64  `json:"xp_progress"`          // XP earned past the current level threshold
	RankName          string `json:"rank_name"`
}

// XPForLevel returns the cumulative XP required to reach level+1 from
// level 1: a triangular schedule, 100 * level * (level+1) / 2.
func XPForLevel(level int) int64 {
	if level < 0 {
		return 0
	}
	l := int64(level)
	return 100 * l * (l + 1) / 2
}

// LevelFromXP is the closed-form inverse of the triangular schedule:
// level = floor((-1 + sqrt(1 + 8*xp/100)) / 2) + 1, floored at 1.
func LevelFromXP(totalXP int64) int {
	if totalXP <= 0 {
		return 1
	}
	level := int(math.Floor((-1+math.Sqrt(1+8*float64(totalXP)/100))/2)) + 1
	if level < 1 {
		return 1
	}
	return level
}

// RankName maps a character level to its display rank.
func RankName(level int) string {
	switch {
	case level < 5:
		return "Novice"
	case level < 10:
		return "Apprentice"
	case level < 20:
		return "Practitioner"
	case level < 30:
		return "Expert"
	case level < 50:
		return "Master"
	default:
		return "Grandmaster"
	}
}

// BuildLevelStatus derives the progress-within-level view from the cached
// aggregate.
func BuildLevelStatus(totalXP int64, currentLevel int) LevelStatus {
	floor := XPForLevel(currentLevel - 1)
	return LevelStatus{
		CurrentLevel:      currentLevel,
		TotalXP:           totalXP,
		XPForCurrentLevel: floor,
		XPForNextLevel:    XPForLevel(currentLevel),
		XPProgress:        totalXP - floor,
		RankName:          RankName(currentLevel),
	}
}
