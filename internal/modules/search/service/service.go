package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/idlecampus/progress-engine/internal/model"
	"github.com/meilisearch/meilisearch-go"
)

const challengeIndex = "challenges"

// ChallengeDocument is the flattened shape pushed to the search index.
type ChallengeDocument struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags"`
}

type Service interface {
	// Enabled reports whether a search backend is configured. Callers
	// fall back to catalog listing when it is not.
	Enabled() bool
	IndexChallenges(challenges []model.Challenge) error
	SearchChallenges(query string, limit int) ([]ChallengeDocument, error)
}

type searchService struct {
	client meilisearch.ServiceManager
}

// NewService builds the search layer. client may be nil; the service then
// reports itself disabled instead of failing requests.
func NewService(client meilisearch.ServiceManager) Service {
	s := &searchService{client: client}
	if client != nil {
		s.configureIndex()
	}
	return s
}

func (s *searchService) Enabled() bool {
	return s.client != nil
}

func (s *searchService) configureIndex() {
	index := s.client.Index(challengeIndex)
	if _, err := index.UpdateSearchableAttributes(&[]string{"title", "description", "tags", "category", "slug"}); err != nil {
		log.Printf("⚠️ Failed to configure search index: %v", err)
	}

	filterableAttrs := []string{"category", "difficulty"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("⚠️ Failed to configure search filters: %v", err)
	}
}

func (s *searchService) IndexChallenges(challenges []model.Challenge) error {
	if s.client == nil {
		return nil
	}

	docs := make([]ChallengeDocument, 0, len(challenges))
	for _, c := range challenges {
		doc := ChallengeDocument{
			ID:         c.ID.String(),
			Slug:       c.Slug,
			Title:      c.Title,
			Difficulty: c.DifficultyBase,
			Tags:       c.Tags,
		}
		if c.Description != nil {
			doc.Description = *c.Description
		}
		if c.Category != nil {
			doc.Category = *c.Category
		}
		docs = append(docs, doc)
	}

	if _, err := s.client.Index(challengeIndex).AddDocuments(docs, strPtr("id")); err != nil {
		return fmt.Errorf("failed to index challenges: %w", err)
	}
	return nil
}

func (s *searchService) SearchChallenges(query string, limit int) ([]ChallengeDocument, error) {
	if s.client == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	res, err := s.client.Index(challengeIndex).Search(strings.TrimSpace(query), &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return decodeHits(res.Hits), nil
}

// decodeHits unmarshals search hits into documents, dropping any hit
// that does not fit the document shape.
func decodeHits(hits meilisearch.Hits) []ChallengeDocument {
	docs := make([]ChallengeDocument, 0, len(hits))
	for _, hit := range hits {
		var doc ChallengeDocument
		if err := hit.Decode(&doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func strPtr(s string) *string {
	return &s
}
