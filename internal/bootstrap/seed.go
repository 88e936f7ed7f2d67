package bootstrap

import (
	"log"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate creates the engine's schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Challenge{},
		&model.ChallengeLevel{},
		&model.Achievement{},
		&model.Skill{},
		&model.DailyChallenge{},
		&model.UserStats{},
		&model.ChallengeProgress{},
		&model.LevelAttempt{},
		&model.XPTransaction{},
		&model.UserAchievement{},
		&model.UserSkill{},
		&model.Notification{},
	)
}

// SeedCatalog inserts the baseline achievements and skills. Idempotent:
// existing slugs are left untouched.
func SeedCatalog(db *gorm.DB) error {
	if err := seedAchievements(db); err != nil {
		return err
	}
	if err := seedSkills(db); err != nil {
		return err
	}
	return nil
}

func seedAchievements(db *gorm.DB) error {
	achievements := []model.Achievement{
		{
			Slug:     "first-steps",
			Name:     "First Steps",
			Rarity:   "common",
			XPReward: 50,
			Criteria: datatypes.JSONMap{"levels_completed": 1},
			IsActive: true,
		},
		{
			Slug:     "challenge-finisher",
			Name:     "Challenge Finisher",
			Rarity:   "common",
			XPReward: 100,
			Criteria: datatypes.JSONMap{"challenges_completed": 1},
			IsActive: true,
		},
		{
			Slug:     "dedicated-learner",
			Name:     "Dedicated Learner",
			Rarity:   "rare",
			XPReward: 150,
			Criteria: datatypes.JSONMap{"streak_days": 7},
			IsActive: true,
		},
		{
			Slug:     "level-ten",
			Name:     "Double Digits",
			Rarity:   "rare",
			XPReward: 200,
			Criteria: datatypes.JSONMap{"level": 10},
			IsActive: true,
		},
		{
			Slug:     "xp-collector",
			Name:     "XP Collector",
			Rarity:   "epic",
			XPReward: 300,
			Criteria: datatypes.JSONMap{"total_xp": 10000},
			IsActive: true,
		},
		{
			Slug:     "marathon-runner",
			Name:     "Marathon Runner",
			Rarity:   "epic",
			XPReward: 400,
			Criteria: datatypes.JSONMap{"streak_days": 30},
			IsActive: true,
		},
		{
			Slug:     "completionist",
			Name:     "Completionist",
			Rarity:   "legendary",
			XPReward: 500,
			Criteria: datatypes.JSONMap{"challenges_completed": 10},
			IsActive: true,
		},
	}

	for _, a := range achievements {
		var count int64
		if err := db.Model(&model.Achievement{}).
			Where("slug = ?", a.Slug).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			a.ID = uuid.New()
			if err := db.Create(&a).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedSkills(db *gorm.DB) error {
	skills := []model.Skill{
		{Slug: "problem-solving", Name: "Problem Solving", Category: strPtr("core"), MaxLevel: 5},
		{Slug: "system-design", Name: "System Design", Category: strPtr("core"), MaxLevel: 5},
		{Slug: "debugging", Name: "Debugging", Category: strPtr("core"), MaxLevel: 5},
		{Slug: "testing", Name: "Testing", Category: strPtr("craft"), MaxLevel: 5},
		{Slug: "collaboration", Name: "Collaboration", Category: strPtr("craft"), MaxLevel: 3},
	}

	for _, s := range skills {
		var count int64
		if err := db.Model(&model.Skill{}).
			Where("slug = ?", s.Slug).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			s.ID = uuid.New()
			if err := db.Create(&s).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedSampleChallenges creates a small development catalog. Only used in
// development; production catalogs come from the authoring pipeline.
func SeedSampleChallenges(db *gorm.DB) error {
	challenges := []struct {
		slug      string
		title     string
		category  string
		track     string
		order     int
		xpRewards []int64
	}{
		{"url-shortener", "Design a URL Shortener", "system-design", "fundamentals", 1, []int64{100, 150, 200, 250, 300}},
		{"rate-limiter", "Build a Rate Limiter", "system-design", "fundamentals", 2, []int64{120, 170, 220, 270, 320}},
		{"chat-system", "Design a Chat System", "system-design", "systems", 1, []int64{150, 200, 250, 300, 400}},
	}

	for _, c := range challenges {
		var count int64
		if err := db.Model(&model.Challenge{}).
			Where("slug = ?", c.slug).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		challenge := model.Challenge{
			ID:           uuid.New(),
			Slug:         c.slug,
			Title:        c.title,
			Category:     strPtr(c.category),
			TrackID:      strPtr(c.track),
			OrderInTrack: c.order,
			IsActive:     true,
		}
		if err := db.Create(&challenge).Error; err != nil {
			return err
		}

		for i, xp := range c.xpRewards {
			level := model.ChallengeLevel{
				ID:          uuid.New(),
				ChallengeID: challenge.ID,
				LevelNumber: i + 1,
				XPReward:    xp,
			}
			if err := db.Create(&level).Error; err != nil {
				return err
			}
		}
		log.Printf("✅ Seeded challenge %s with %d levels", c.slug, len(c.xpRewards))
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
