package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/bootstrap"
	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens an isolated in-memory database with the full schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, bootstrap.Migrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, username string) uuid.UUID {
	t.Helper()

	user := model.User{ID: uuid.New(), Username: username}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

// CreateChallenge seeds a challenge whose levels reward the given XP
// amounts, level numbers starting at 1.
func CreateChallenge(t *testing.T, db *gorm.DB, slug string, xpRewards ...int64) uuid.UUID {
	t.Helper()

	challenge := model.Challenge{
		ID:       uuid.New(),
		Slug:     slug,
		Title:    slug,
		IsActive: true,
	}
	require.NoError(t, db.Create(&challenge).Error)

	for i, xp := range xpRewards {
		level := model.ChallengeLevel{
			ID:          uuid.New(),
			ChallengeID: challenge.ID,
			LevelNumber: i + 1,
			XPReward:    xp,
		}
		require.NoError(t, db.Create(&level).Error)
	}
	return challenge.ID
}

func CreateAchievement(t *testing.T, db *gorm.DB, slug string, xpReward int64, criteria map[string]interface{}) uuid.UUID {
	t.Helper()

	a := model.Achievement{
		ID:       uuid.New(),
		Slug:     slug,
		Name:     slug,
		Rarity:   "common",
		XPReward: xpReward,
		Criteria: criteria,
		IsActive: true,
	}
	require.NoError(t, db.Create(&a).Error)
	return a.ID
}

func CreateSkill(t *testing.T, db *gorm.DB, slug string, maxLevel int) uuid.UUID {
	t.Helper()

	s := model.Skill{
		ID:       uuid.New(),
		Slug:     slug,
		Name:     slug,
		MaxLevel: maxLevel,
	}
	require.NoError(t, db.Create(&s).Error)
	return s.ID
}
