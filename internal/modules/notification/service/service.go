package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/internal/modules/notification/repository"
	"github.com/idlecampus/progress-engine/pkg/apperror"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Service interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error

	// Publish pushes an already-committed notification to the realtime
	// channel. Best effort; failures are logged, never returned.
	Publish(ctx context.Context, n model.Notification)
}

type notificationService struct {
	repo  repository.Repository
	redis *redis.Client
}

func NewService(repo repository.Repository, redisClient *redis.Client) Service {
	return &notificationService{repo: repo, redis: redisClient}
}

func (s *notificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.repo.MarkAsRead(ctx, userID, notificationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) Publish(ctx context.Context, n model.Notification) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("⚠️ Failed to marshal notification %s: %v", n.ID, err)
		return
	}
	channel := "user_notifications:" + n.UserID.String()
	if err := s.redis.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("⚠️ Failed to publish notification to %s: %v", channel, err)
	}
}
