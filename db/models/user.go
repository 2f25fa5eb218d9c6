package models

import (
	"time"
)

// Tone values accepted for a generation profile. The empty string means the
// user has not picked one yet and the generator falls back to "professional".
const (
	ToneUnset         = ""
	ToneProfessional  = "professional"
	ToneCasual        = "casual"
	ToneFriendly      = "friendly"
	ToneHumorous      = "humorous"
	ToneAuthoritative = "authoritative"
)

// AllowedTones is the closed set a profile write is validated against.
var AllowedTones = []string{
	ToneUnset,
	ToneProfessional,
	ToneCasual,
	ToneFriendly,
	ToneHumorous,
	ToneAuthoritative,
}

// User holds the account credentials together with the content-generation
// profile. There is exactly one profile per user, created at registration.
type User struct {
	ID             uint     `gorm:"primaryKey"`
	UserID         string   `gorm:"uniqueIndex;not null"`
	Username       string   `gorm:"not null"`
	Email          string   `gorm:"uniqueIndex;not null"`
	PasswordHash   string   `gorm:"not null"`
	Topics         []string `gorm:"serializer:json"`
	ArticleURLs    []string `gorm:"serializer:json"`
	Purpose        string
	Tone           string
	SearchCriteria string
	Schedule       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName overrides the table name
func (User) TableName() string {
	return "users"
}
