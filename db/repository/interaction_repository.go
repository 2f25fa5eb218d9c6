package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"postpilot/db/models"
)

// InteractionRepository defines the interface for interaction persistence
type InteractionRepository interface {
	Create(interaction *models.Interaction) error
	FindByInteractionID(interactionID string) (*models.Interaction, error)
	FindByUserID(userID string, page, limit int) ([]models.Interaction, error)
	CountByUserID(userID string) (int64, error)
	CountRespondedByUserID(userID string) (int64, error)
	// AttachResponse sets response and responded_at in one guarded UPDATE
	// that only matches while response is still NULL. Reports false when the
	// interaction was already responded to or does not exist.
	AttachResponse(interactionID, response string, at time.Time) (bool, error)
}

// GormInteractionRepository implements InteractionRepository using GORM
type GormInteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new interaction repository
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &GormInteractionRepository{db: db}
}

// Create adds a new interaction to the database
func (r *GormInteractionRepository) Create(interaction *models.Interaction) error {
	return r.db.Create(interaction).Error
}

// FindByInteractionID returns the interaction with the given ID, or nil if none exists
func (r *GormInteractionRepository) FindByInteractionID(interactionID string) (*models.Interaction, error) {
	var interaction models.Interaction
	err := r.db.Where("interaction_id = ?", interactionID).First(&interaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

// FindByUserID returns a page of the user's interactions, newest first
func (r *GormInteractionRepository) FindByUserID(userID string, page, limit int) ([]models.Interaction, error) {
	var interactions []models.Interaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&interactions).Error
	return interactions, err
}

// CountByUserID counts every interaction belonging to the user's posts
func (r *GormInteractionRepository) CountByUserID(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Interaction{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountRespondedByUserID counts the user's interactions that carry a response
func (r *GormInteractionRepository) CountRespondedByUserID(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Interaction{}).
		Where("user_id = ? AND response IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}

// AttachResponse performs the one-way unresponded -> responded update
func (r *GormInteractionRepository) AttachResponse(interactionID, response string, at time.Time) (bool, error) {
	res := r.db.Model(&models.Interaction{}).
		Where("interaction_id = ? AND response IS NULL", interactionID).
		Updates(map[string]interface{}{
			"response":     response,
			"responded_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
