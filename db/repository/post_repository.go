package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"postpilot/db/models"
)

// PostRepository defines the interface for post persistence
type PostRepository interface {
	Create(post *models.Post) error
	FindByPostID(postID string) (*models.Post, error)
	FindByUserID(userID string, status models.PostStatus, page, limit int) ([]models.Post, error)
	CountByUserID(userID string, status models.PostStatus) (int64, error)
	Exists(postID string) (bool, error)
	// TransitionStatus applies from -> to on a single post as one guarded
	// UPDATE keyed by post_id and the current status. It reports false when
	// the guard did not match, which callers surface as an illegal
	// transition. An empty ownerID skips the ownership guard (used by the
	// external publication path).
	TransitionStatus(postID, ownerID string, from, to models.PostStatus, at time.Time) (bool, error)
}

// GormPostRepository implements PostRepository using GORM
type GormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &GormPostRepository{db: db}
}

// Create adds a new post to the database
func (r *GormPostRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

// FindByPostID returns the post with the given ID, or nil if none exists
func (r *GormPostRepository) FindByPostID(postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.Where("post_id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// FindByUserID returns a page of the user's posts, newest first. A zero-value
// status means no status filter.
func (r *GormPostRepository) FindByUserID(userID string, status models.PostStatus, page, limit int) ([]models.Post, error) {
	query := r.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var posts []models.Post
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// CountByUserID counts the user's posts, optionally filtered by status
func (r *GormPostRepository) CountByUserID(userID string, status models.PostStatus) (int64, error) {
	query := r.db.Model(&models.Post{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// Exists checks whether a post with the given ID is in the database
func (r *GormPostRepository) Exists(postID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("post_id = ?", postID).Count(&count).Error
	return count > 0, err
}

// TransitionStatus performs the compare-and-set status update
func (r *GormPostRepository) TransitionStatus(postID, ownerID string, from, to models.PostStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	switch to {
	case models.StatusApproved, models.StatusRejected:
		updates["decided_at"] = at
	case models.StatusPosted:
		updates["posted_at"] = at
	}

	query := r.db.Model(&models.Post{}).
		Where("post_id = ? AND status = ?", postID, from)
	if ownerID != "" {
		query = query.Where("user_id = ?", ownerID)
	}

	res := query.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
