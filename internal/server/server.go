package server

import (
	"strings"
	"time"

	"github.com/idlecampus/progress-engine/internal/config"
	"github.com/idlecampus/progress-engine/internal/middleware"

	achievementHttp "github.com/idlecampus/progress-engine/internal/modules/achievement/delivery/http"
	achievementRepo "github.com/idlecampus/progress-engine/internal/modules/achievement/repository"
	achievementService "github.com/idlecampus/progress-engine/internal/modules/achievement/service"

	catalogHttp "github.com/idlecampus/progress-engine/internal/modules/catalog/delivery/http"
	catalogRepo "github.com/idlecampus/progress-engine/internal/modules/catalog/repository"
	catalogService "github.com/idlecampus/progress-engine/internal/modules/catalog/service"

	leaderboardHttp "github.com/idlecampus/progress-engine/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "github.com/idlecampus/progress-engine/internal/modules/leaderboard/repository"
	leaderboardService "github.com/idlecampus/progress-engine/internal/modules/leaderboard/service"

	notifHttp "github.com/idlecampus/progress-engine/internal/modules/notification/delivery/http"
	notifRepo "github.com/idlecampus/progress-engine/internal/modules/notification/repository"
	notifService "github.com/idlecampus/progress-engine/internal/modules/notification/service"

	progressHttp "github.com/idlecampus/progress-engine/internal/modules/progress/delivery/http"
	progressRepo "github.com/idlecampus/progress-engine/internal/modules/progress/repository"
	progressService "github.com/idlecampus/progress-engine/internal/modules/progress/service"

	searchService "github.com/idlecampus/progress-engine/internal/modules/search/service"

	skillHttp "github.com/idlecampus/progress-engine/internal/modules/skill/delivery/http"
	skillRepo "github.com/idlecampus/progress-engine/internal/modules/skill/repository"
	skillService "github.com/idlecampus/progress-engine/internal/modules/skill/service"

	streakService "github.com/idlecampus/progress-engine/internal/modules/streak/service"

	xpHttp "github.com/idlecampus/progress-engine/internal/modules/xp/delivery/http"
	xpRepo "github.com/idlecampus/progress-engine/internal/modules/xp/repository"
	xpService "github.com/idlecampus/progress-engine/internal/modules/xp/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client

	// exposed for the jobs wiring in main
	XPService          xpService.Service
	LeaderboardService leaderboardService.Service
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, meiliClient meilisearch.ServiceManager) *Server {
	// Repositories
	statsRepository := xpRepo.NewRepository(db)
	achievementRepository := achievementRepo.NewRepository(db)
	notificationRepository := notifRepo.NewRepository(db)
	skillRepository := skillRepo.NewRepository(db)
	catalogRepository := catalogRepo.NewRepository(db)
	progressRepository := progressRepo.NewRepository(db)
	leaderboardRepository := leaderboardRepo.NewRepository(db)

	// Services
	xpSvc := xpService.NewService(db, statsRepository)
	streakSvc := streakService.NewService(db, statsRepository)
	notificationSvc := notifService.NewService(notificationRepository, redisClient)
	achievementSvc := achievementService.NewService(achievementRepository, statsRepository, notificationRepository, xpSvc)
	skillSvc := skillService.NewService(db, skillRepository, statsRepository)
	meiliSvc := searchService.NewService(meiliClient)
	catalogSvc := catalogService.NewService(catalogRepository, progressRepository, meiliSvc)
	leaderboardSvc := leaderboardService.NewService(leaderboardRepository, redisClient)
	progressSvc := progressService.NewService(db, progressRepository, statsRepository, catalogRepository,
		xpSvc, streakSvc, achievementSvc, skillSvc, notificationSvc)

	// Handlers
	xpHandler := xpHttp.NewXPHandler(xpSvc, streakSvc)
	achievementHandler := achievementHttp.NewAchievementHandler(achievementSvc)
	skillHandler := skillHttp.NewSkillHandler(skillSvc)
	catalogHandler := catalogHttp.NewCatalogHandler(catalogSvc)
	progressHandler := progressHttp.NewProgressHandler(progressSvc, catalogSvc)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Completion flow
		protected.POST("/challenges/:challenge_id/levels/:level/complete", progressHandler.CompleteLevel)
		protected.GET("/progress/me", progressHandler.GetMyProgress)

		// XP and streak
		protected.GET("/xp/level", xpHandler.GetLevel)
		protected.GET("/xp/streak", xpHandler.GetStreak)
		protected.GET("/xp/history", xpHandler.GetHistory)

		// Skill tree
		protected.GET("/skills", skillHandler.ListSkills)
		protected.POST("/skills/:skill_id/allocate", skillHandler.AllocatePoint)

		// Leaderboard
		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		protected.GET("/leaderboard/rank", leaderboardHandler.GetMyRank)

		// Challenge catalog
		protected.GET("/challenges", catalogHandler.ListChallenges)
		protected.GET("/challenges/search", catalogHandler.SearchChallenges)
		protected.GET("/challenges/daily", catalogHandler.GetDailyChallenge)
		protected.GET("/challenges/:challenge_id", catalogHandler.GetChallenge)
		protected.GET("/challenges/:challenge_id/unlocked", catalogHandler.CheckUnlocked)

		// Achievements
		protected.GET("/achievements", achievementHandler.ListCatalog)
		protected.GET("/achievements/me", achievementHandler.ListMine)

		// Notifications
		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return &Server{
		engine:             router,
		db:                 db,
		redisClient:        redisClient,
		XPService:          xpSvc,
		LeaderboardService: leaderboardSvc,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
