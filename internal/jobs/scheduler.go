package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	leaderboardservice "github.com/idlecampus/progress-engine/internal/modules/leaderboard/service"
	xpservice "github.com/idlecampus/progress-engine/internal/modules/xp/service"
	"gorm.io/gorm"
)

type Jobs struct {
	db          *gorm.DB
	xpService   xpservice.Service
	leaderboard leaderboardservice.Service

	reconcileEvery  time.Duration
	percentileEvery time.Duration
}

func New(db *gorm.DB, xpService xpservice.Service, leaderboard leaderboardservice.Service, reconcileEvery, percentileEvery time.Duration) *Jobs {
	return &Jobs{
		db:              db,
		xpService:       xpService,
		leaderboard:     leaderboard,
		reconcileEvery:  reconcileEvery,
		percentileEvery: percentileEvery,
	}
}

// Start launches the background maintenance jobs: ledger reconciliation
// and rank percentile refresh.
func (j *Jobs) Start() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("❌ Failed to create scheduler: %v", err)
		return
	}
	sched.Start()

	if _, err := sched.NewJob(
		gocron.DurationJob(j.reconcileEvery),
		gocron.NewTask(j.reconcileLedgers),
	); err != nil {
		log.Printf("❌ Failed to schedule ledger reconciliation: %v", err)
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(j.percentileEvery),
		gocron.NewTask(j.refreshPercentiles),
	); err != nil {
		log.Printf("❌ Failed to schedule percentile refresh: %v", err)
	}
}

// reconcileLedgers verifies total_xp against the transaction ledger for
// every user and repairs drift. Drift should never happen; any hit is a
// bug worth the log line.
func (j *Jobs) reconcileLedgers() {
	ctx := context.Background()

	var userIDs []uuid.UUID
	if err := j.db.WithContext(ctx).
		Raw("SELECT user_id FROM user_stats").
		Scan(&userIDs).Error; err != nil {
		log.Printf("[Scheduler] Failed to list users for reconciliation: %v", err)
		return
	}

	repaired := 0
	for _, userID := range userIDs {
		drift, err := j.xpService.Reconcile(ctx, userID)
		if err != nil {
			log.Printf("[Scheduler] Reconciliation failed for user %s: %v", userID, err)
			continue
		}
		if drift != 0 {
			log.Printf("⚠️ Repaired XP drift of %d for user %s", drift, userID)
			repaired++
		}
	}
	if repaired > 0 {
		log.Printf("✅ Ledger reconciliation repaired %d users", repaired)
	}
}

func (j *Jobs) refreshPercentiles() {
	if err := j.leaderboard.RefreshRankPercentiles(context.Background()); err != nil {
		log.Printf("[Scheduler] Percentile refresh failed: %v", err)
	}
}
