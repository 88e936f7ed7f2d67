package main

import (
	"log"
	"strings"

	"github.com/idlecampus/progress-engine/internal/bootstrap"
	"github.com/idlecampus/progress-engine/internal/config"
	"github.com/idlecampus/progress-engine/internal/jobs"
	"github.com/idlecampus/progress-engine/internal/server"
	"github.com/idlecampus/progress-engine/pkg/database"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close(db)

	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := bootstrap.SeedCatalog(db); err != nil {
		log.Fatalf("failed to seed catalog: %v", err)
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedSampleChallenges(db); err != nil {
			log.Fatalf("failed to seed sample challenges: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	} else {
		log.Println("⚠️ REDIS_URL not set, leaderboard caching and realtime notifications disabled")
	}

	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliSearchHost != "" {
		host := cfg.MeiliSearchHost
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient = meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}

	srv := server.NewServer(cfg, db, redisClient, meiliClient)

	jobs.New(db, srv.XPService, srv.LeaderboardService, cfg.ReconcileInterval, cfg.PercentileRefresh).Start()

	log.Printf("🚀 Progress engine listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
