package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/idlecampus/progress-engine/internal/modules/catalog/repository"
	progressrepo "github.com/idlecampus/progress-engine/internal/modules/progress/repository"
	searchservice "github.com/idlecampus/progress-engine/internal/modules/search/service"
)

const dailyXPMultiplier = 2.0

// UnlockStatus explains whether a user may start a challenge.
type UnlockStatus struct {
	Unlocked             bool     `json:"unlocked"`
	MissingPrerequisites []string `json:"missing_prerequisites,omitempty"`
}

type Service interface {
	ListChallenges(ctx context.Context, category, trackID string) ([]model.Challenge, error)
	GetChallenge(ctx context.Context, idOrSlug string) (*model.Challenge, error)
	CheckUnlocked(ctx context.Context, userID uuid.UUID, idOrSlug string) (*UnlockStatus, error)
	GetDailyChallenge(ctx context.Context) (*model.DailyChallenge, error)
	SearchChallenges(ctx context.Context, query string, limit int) ([]model.Challenge, error)
	ReindexChallenges(ctx context.Context) error
}

type catalogService struct {
	repo         repository.Repository
	progressRepo progressrepo.Repository
	search       searchservice.Service
}

func NewService(repo repository.Repository, progressRepo progressrepo.Repository, search searchservice.Service) Service {
	return &catalogService{repo: repo, progressRepo: progressRepo, search: search}
}

func (s *catalogService) ListChallenges(ctx context.Context, category, trackID string) ([]model.Challenge, error) {
	return s.repo.ListChallenges(ctx, category, trackID)
}

func (s *catalogService) GetChallenge(ctx context.Context, idOrSlug string) (*model.Challenge, error) {
	return s.repo.GetChallenge(ctx, idOrSlug)
}

// CheckUnlocked verifies every prerequisite challenge is completed.
// Prerequisites reference challenges by id or slug.
func (s *catalogService) CheckUnlocked(ctx context.Context, userID uuid.UUID, idOrSlug string) (*UnlockStatus, error) {
	challenge, err := s.repo.GetChallenge(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if len(challenge.Prerequisites) == 0 {
		return &UnlockStatus{Unlocked: true}, nil
	}

	status := &UnlockStatus{Unlocked: true}
	for _, prereq := range challenge.Prerequisites {
		dep, err := s.repo.GetChallenge(ctx, prereq)
		if err != nil {
			// a dangling reference never blocks the user
			log.Printf("⚠️ Challenge %s lists unknown prerequisite %q", challenge.Slug, prereq)
			continue
		}
		progress, err := s.progressRepo.GetProgress(ctx, userID, dep.ID)
		if err != nil {
			return nil, err
		}
		if progress == nil || progress.Status != model.StatusCompleted {
			status.Unlocked = false
			status.MissingPrerequisites = append(status.MissingPrerequisites, dep.Slug)
		}
	}
	return status, nil
}

// GetDailyChallenge returns today's featured challenge, picking one at
// random on first request of the day.
func (s *catalogService) GetDailyChallenge(ctx context.Context) (*model.DailyChallenge, error) {
	today := truncateToDay(time.Now())

	dc, err := s.repo.GetDailyChallenge(ctx, today)
	if err != nil {
		return nil, err
	}
	if dc != nil {
		return dc, nil
	}

	challenge, err := s.repo.RandomActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, nil
	}

	if err := s.repo.CreateDailyChallenge(ctx, &model.DailyChallenge{
		ChallengeID:  challenge.ID,
		Date:         today,
		XPMultiplier: dailyXPMultiplier,
	}); err != nil {
		return nil, err
	}
	// re-read so a concurrent winner's row is the one returned
	return s.repo.GetDailyChallenge(ctx, today)
}

func (s *catalogService) SearchChallenges(ctx context.Context, query string, limit int) ([]model.Challenge, error) {
	if !s.search.Enabled() {
		return s.repo.ListChallenges(ctx, "", "")
	}

	docs, err := s.search.SearchChallenges(query, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		if id, err := uuid.Parse(doc.ID); err == nil {
			ids = append(ids, id)
		}
	}
	challenges, err := s.repo.ListChallengesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// preserve relevance order from the index
	byID := make(map[uuid.UUID]model.Challenge, len(challenges))
	for _, c := range challenges {
		byID[c.ID] = c
	}
	ordered := make([]model.Challenge, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (s *catalogService) ReindexChallenges(ctx context.Context) error {
	if !s.search.Enabled() {
		return nil
	}
	challenges, err := s.repo.ListChallenges(ctx, "", "")
	if err != nil {
		return err
	}
	return s.search.IndexChallenges(challenges)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
