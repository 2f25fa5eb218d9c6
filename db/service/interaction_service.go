package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"postpilot/db/models"
	"postpilot/db/repository"
	"postpilot/generator"
	"postpilot/logger"

	"github.com/google/uuid"
)

// InteractionService owns reader-reply records and their one-shot responses.
// Replies arrive from the unauthenticated ingest path, so mutation is keyed by
// interaction ID rather than by an acting user.
type InteractionService struct {
	interactions repository.InteractionRepository
	posts        repository.PostRepository
	users        repository.UserRepository
	gen          generator.Generator
	genTimeout   time.Duration
}

// InteractionPage is one page of a user's interactions plus the full count.
type InteractionPage struct {
	Items []models.Interaction
	Total int64
}

// InteractionStats are live counts, recomputed on every call.
type InteractionStats struct {
	Total     int64 `json:"total"`
	Responded int64 `json:"responded"`
	Pending   int64 `json:"pending"`
}

// NewInteractionService creates a new interaction service
func NewInteractionService(interactions repository.InteractionRepository, posts repository.PostRepository, users repository.UserRepository, gen generator.Generator, genTimeout time.Duration) *InteractionService {
	return &InteractionService{
		interactions: interactions,
		posts:        posts,
		users:        users,
		gen:          gen,
		genTimeout:   genTimeout,
	}
}

// Record stores a new reader reply in the unresponded state. The owning user
// is copied from the post; the post itself is not touched.
func (s *InteractionService) Record(postID, platform, replyContent string) (*models.Interaction, error) {
	if strings.TrimSpace(replyContent) == "" {
		return nil, validationErr("replyContent", "must not be empty")
	}

	post, err := s.posts.FindByPostID(postID)
	if err != nil {
		return nil, fmt.Errorf("finding post: %w", err)
	}
	if post == nil {
		return nil, ErrUnknownPost
	}

	interaction := &models.Interaction{
		InteractionID: uuid.NewString(),
		PostID:        postID,
		UserID:        post.UserID,
		Platform:      platform,
		ReplyContent:  replyContent,
	}
	if err := s.interactions.Create(interaction); err != nil {
		return nil, fmt.Errorf("creating interaction: %w", err)
	}

	logger.Logger.Printf("[INFO] recorded %s reply on post %s", platform, postID)
	return interaction, nil
}

// Respond attaches the response exactly once. The guarded update makes the
// unresponded -> responded step atomic; a concurrent second caller observes
// ErrAlreadyResponded and the first-set values stay in place.
func (s *InteractionService) Respond(interactionID, responseText string) error {
	if strings.TrimSpace(responseText) == "" {
		return validationErr("response", "must not be empty")
	}

	ok, err := s.interactions.AttachResponse(interactionID, responseText, time.Now())
	if err != nil {
		return fmt.Errorf("attaching response: %w", err)
	}
	if ok {
		return nil
	}

	existing, err := s.interactions.FindByInteractionID(interactionID)
	if err != nil {
		return fmt.Errorf("finding interaction: %w", err)
	}
	if existing == nil {
		return ErrUnknownInteraction
	}
	return ErrAlreadyResponded
}

// SuggestResponse asks the content collaborator for a reply draft in the
// owner's tone. It never mutates the interaction.
func (s *InteractionService) SuggestResponse(ctx context.Context, interactionID, userID string) (string, error) {
	interaction, err := s.interactions.FindByInteractionID(interactionID)
	if err != nil {
		return "", fmt.Errorf("finding interaction: %w", err)
	}
	if interaction == nil || interaction.UserID != userID {
		return "", ErrUnknownInteraction
	}

	post, err := s.posts.FindByPostID(interaction.PostID)
	if err != nil {
		return "", fmt.Errorf("finding post: %w", err)
	}
	user, err := s.users.FindByUserID(userID)
	if err != nil {
		return "", fmt.Errorf("finding user: %w", err)
	}
	if post == nil || user == nil {
		return "", ErrUnknownInteraction
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	reply, err := s.gen.GenerateReply(genCtx, user, post, interaction.ReplyContent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	return reply, nil
}

// List returns one page of the user's interactions, newest first, together
// with the unfiltered total used for page-count computation.
func (s *InteractionService) List(userID string, page, limit int) (*InteractionPage, error) {
	page, limit = normalizePage(page, limit)

	items, err := s.interactions.FindByUserID(userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}
	total, err := s.interactions.CountByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("counting interactions: %w", err)
	}

	return &InteractionPage{Items: items, Total: total}, nil
}

// Stats recomputes the per-user interaction counts from the base table.
func (s *InteractionService) Stats(userID string) (*InteractionStats, error) {
	total, err := s.interactions.CountByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("counting interactions: %w", err)
	}
	responded, err := s.interactions.CountRespondedByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("counting responded: %w", err)
	}

	return &InteractionStats{
		Total:     total,
		Responded: responded,
		Pending:   total - responded,
	}, nil
}
