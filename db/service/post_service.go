package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"postpilot/db/models"
	"postpilot/db/repository"
	"postpilot/generator"
	"postpilot/logger"

	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PostService owns the post lifecycle state machine. All status changes go
// through guarded updates in the repository so concurrent decisions on the
// same post resolve to exactly one winner.
type PostService struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	gen        generator.Generator
	genTimeout time.Duration
}

// NewPostService creates a new post service
func NewPostService(posts repository.PostRepository, users repository.UserRepository, gen generator.Generator, genTimeout time.Duration) *PostService {
	return &PostService{
		posts:      posts,
		users:      users,
		gen:        gen,
		genTimeout: genTimeout,
	}
}

// Generate calls the content collaborator with the caller's profile and
// creates a Pending post from the returned bundle. Nothing is persisted when
// the collaborator fails, times out, or returns a partial bundle.
func (s *PostService) Generate(ctx context.Context, userID string) (*models.Post, error) {
	user, err := s.users.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	bundle, err := s.gen.GeneratePost(genCtx, user)
	if err != nil {
		logger.Logger.Printf("[WARN] generation failed for user %s: %v", userID, err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	if err := validateBundle(bundle); err != nil {
		logger.Logger.Printf("[WARN] generator returned bad bundle for user %s: %v", userID, err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	post := &models.Post{
		PostID:       uuid.NewString(),
		UserID:       userID,
		ContentMicro: bundle.Micro,
		ContentShort: bundle.Short,
		ContentLong:  bundle.Long,
		ImageURL:     bundle.ImageURL,
		Status:       models.StatusPending,
	}
	if err := s.posts.Create(post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	logger.Logger.Printf("[INFO] generated post %s for user %s", post.PostID, userID)
	return post, nil
}

// Approve moves a Pending post owned by userID to Approved.
func (s *PostService) Approve(postID, userID string) error {
	return s.decide(postID, userID, models.StatusApproved)
}

// Reject moves a Pending post owned by userID to Rejected.
func (s *PostService) Reject(postID, userID string) error {
	return s.decide(postID, userID, models.StatusRejected)
}

func (s *PostService) decide(postID, userID string, to models.PostStatus) error {
	exists, err := s.posts.Exists(postID)
	if err != nil {
		return fmt.Errorf("checking post: %w", err)
	}
	if !exists {
		return ErrUnknownPost
	}

	if !models.CanTransition(models.StatusPending, to) {
		return ErrInvalidTransition
	}

	ok, err := s.posts.TransitionStatus(postID, userID, models.StatusPending, to, time.Now())
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if !ok {
		// Post exists but is not Pending, or belongs to another user.
		return ErrInvalidTransition
	}

	logger.Logger.Printf("[INFO] post %s -> %s", postID, to)
	return nil
}

// MarkPosted applies the Approved -> Posted transition. It is driven only by
// the external publication-confirmation event, never by the engine itself, so
// it carries no ownership guard.
func (s *PostService) MarkPosted(postID string) error {
	exists, err := s.posts.Exists(postID)
	if err != nil {
		return fmt.Errorf("checking post: %w", err)
	}
	if !exists {
		return ErrUnknownPost
	}

	ok, err := s.posts.TransitionStatus(postID, "", models.StatusApproved, models.StatusPosted, time.Now())
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if !ok {
		return ErrInvalidTransition
	}

	logger.Logger.Printf("[INFO] post %s -> %s", postID, models.StatusPosted)
	return nil
}

// Get returns a single post. Posts belonging to other users are reported as
// not found rather than leaking their existence.
func (s *PostService) Get(postID, userID string) (*models.Post, error) {
	post, err := s.posts.FindByPostID(postID)
	if err != nil {
		return nil, fmt.Errorf("finding post: %w", err)
	}
	if post == nil || post.UserID != userID {
		return nil, ErrUnknownPost
	}
	return post, nil
}

// List returns a page of the user's posts, newest first, optionally filtered
// by exact status. Pages are 1-indexed.
func (s *PostService) List(userID, status string, page, limit int) ([]models.Post, error) {
	var filter models.PostStatus
	switch {
	case status == "" || strings.EqualFold(status, "all"):
		filter = ""
	case models.ValidStatus(models.PostStatus(status)):
		filter = models.PostStatus(status)
	default:
		return nil, validationErr("status", fmt.Sprintf("unknown status %q", status))
	}

	page, limit = normalizePage(page, limit)

	posts, err := s.posts.FindByUserID(userID, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func validateBundle(b *generator.Bundle) error {
	if b == nil {
		return fmt.Errorf("nil bundle")
	}
	if strings.TrimSpace(b.Micro) == "" || strings.TrimSpace(b.Short) == "" || strings.TrimSpace(b.Long) == "" {
		return fmt.Errorf("partial content bundle")
	}
	if n := utf8.RuneCountInString(b.Micro); n > models.MicroMaxLen {
		return fmt.Errorf("micro variant too long: %d chars", n)
	}
	if n := utf8.RuneCountInString(b.Short); n > models.ShortMaxLen {
		return fmt.Errorf("short variant too long: %d chars", n)
	}
	return nil
}
