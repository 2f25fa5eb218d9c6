package service

import (
	"fmt"

	"postpilot/db/models"
	"postpilot/db/repository"
)

// Overview is the dashboard aggregate for one user.
type Overview struct {
	PendingPosts int64 `json:"pendingPosts"`
	ActivePosts  int64 `json:"activePosts"`
	Interactions int64 `json:"interactions"`
}

// StatsService derives dashboard numbers from the post and interaction
// tables. Pure read side: counts are recomputed on every call so they can
// never drift from the underlying state.
type StatsService struct {
	posts        repository.PostRepository
	interactions repository.InteractionRepository
}

// NewStatsService creates a new stats service
func NewStatsService(posts repository.PostRepository, interactions repository.InteractionRepository) *StatsService {
	return &StatsService{posts: posts, interactions: interactions}
}

// Overview computes the per-user dashboard counts.
func (s *StatsService) Overview(userID string) (*Overview, error) {
	pending, err := s.posts.CountByUserID(userID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("counting pending posts: %w", err)
	}
	active, err := s.posts.CountByUserID(userID, models.StatusPosted)
	if err != nil {
		return nil, fmt.Errorf("counting posted posts: %w", err)
	}
	interactions, err := s.interactions.CountByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("counting interactions: %w", err)
	}

	return &Overview{
		PendingPosts: pending,
		ActivePosts:  active,
		Interactions: interactions,
	}, nil
}
