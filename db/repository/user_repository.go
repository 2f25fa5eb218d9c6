package repository

import (
	"errors"

	"gorm.io/gorm"
	"postpilot/db/models"
)

// UserRepository defines the interface for user and profile persistence
type UserRepository interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUserID(userID string) (*models.User, error)
	EmailExists(email string) (bool, error)
	UpdateProfile(userID string, profile *models.User) (bool, error)
	FindScheduled() ([]models.User, error)
}

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create adds a new user to the database
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByEmail returns the user with the given email, or nil if none exists
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUserID returns the user with the given user ID, or nil if none exists
func (r *GormUserRepository) FindByUserID(userID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists checks whether an account is already registered for the email
func (r *GormUserRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// UpdateProfile replaces the profile fields of the given user. Returns false
// when no such user exists. Only generation-profile columns are written;
// credentials are untouched.
func (r *GormUserRepository) UpdateProfile(userID string, profile *models.User) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("user_id = ?", userID).
		Select("topics", "article_urls", "purpose", "tone", "search_criteria", "schedule").
		Updates(profile)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindScheduled returns every user with a non-empty generation schedule
func (r *GormUserRepository) FindScheduled() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("schedule <> ''").Find(&users).Error
	return users, err
}
