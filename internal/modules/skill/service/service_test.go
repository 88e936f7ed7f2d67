package service

import (
	"context"
	"testing"

	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/internal/modules/skill/repository"
	xprepo "github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	"github.com/idlecampus/progress-engine/internal/testutil"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(db *gorm.DB) Service {
	return NewService(db, repository.NewRepository(db), xprepo.NewRepository(db))
}

func giveLevel(t *testing.T, db *gorm.DB, userID uuid.UUID, level int) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserStats{
		UserID:       userID,
		CurrentLevel: level,
		TotalXP:      100 * int64(level) * int64(level+1) / 2,
	}).Error)
}

func TestAllocatePoint_SpendsOnePoint(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "alice")
	skillID := testutil.CreateSkill(t, db, "debugging", 5)
	giveLevel(t, db, userID, 3)

	result, err := newTestService(db).AllocatePoint(context.Background(), userID, skillID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CurrentLevel)
	assert.Equal(t, 1, result.PointsAllocated)
	assert.Equal(t, 2, result.PointsRemaining)
	assert.Nil(t, result.MasteredAt)
}

func TestAllocatePoint_BudgetIsCharacterLevel(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "bob")
	skillID := testutil.CreateSkill(t, db, "testing", 5)
	giveLevel(t, db, userID, 2)
	svc := newTestService(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.AllocatePoint(ctx, userID, skillID)
		require.NoError(t, err)
	}

	_, err := svc.AllocatePoint(ctx, userID, skillID)
	assert.ErrorIs(t, err, apperror.ErrNoPointsAvailable)
}

func TestAllocatePoint_LevelOneHasSinglePoint(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "carol")
	skillID := testutil.CreateSkill(t, db, "system-design", 5)

	// level 1 with zero allocations leaves one point, spend it first
	giveLevel(t, db, userID, 1)
	svc := newTestService(db)
	ctx := context.Background()

	_, err := svc.AllocatePoint(ctx, userID, skillID)
	require.NoError(t, err)

	_, err = svc.AllocatePoint(ctx, userID, skillID)
	assert.ErrorIs(t, err, apperror.ErrNoPointsAvailable)
}

func TestAllocatePoint_UnknownSkill(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "dave")
	giveLevel(t, db, userID, 5)

	_, err := newTestService(db).AllocatePoint(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrSkillNotFound)
}

func TestAllocatePoint_CapsAtMaxLevelAndMasters(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "erin")
	skillID := testutil.CreateSkill(t, db, "collaboration", 2)
	giveLevel(t, db, userID, 10)
	svc := newTestService(db)
	ctx := context.Background()

	_, err := svc.AllocatePoint(ctx, userID, skillID)
	require.NoError(t, err)

	result, err := svc.AllocatePoint(ctx, userID, skillID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CurrentLevel)
	require.NotNil(t, result.MasteredAt)
	mastered := *result.MasteredAt

	// further points still spend but the level stays capped
	result, err = svc.AllocatePoint(ctx, userID, skillID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CurrentLevel)
	assert.Equal(t, 3, result.PointsAllocated)
	assert.Equal(t, mastered.Unix(), result.MasteredAt.Unix())
}

func TestListSkills_MergesCatalogAndAllocations(t *testing.T) {
	db := testutil.NewTestDB(t)
	userID := testutil.CreateUser(t, db, "frank")
	investedID := testutil.CreateSkill(t, db, "a-invested", 5)
	testutil.CreateSkill(t, db, "b-untouched", 5)
	giveLevel(t, db, userID, 4)
	svc := newTestService(db)
	ctx := context.Background()

	_, err := svc.AllocatePoint(ctx, userID, investedID)
	require.NoError(t, err)

	views, available, err := svc.ListSkills(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 3, available)
	require.Len(t, views, 2)
	byName := map[string]SkillView{}
	for _, v := range views {
		byName[v.Skill.Slug] = v
	}
	assert.Equal(t, 1, byName["a-invested"].PointsAllocated)
	assert.Equal(t, 0, byName["b-untouched"].PointsAllocated)
}
