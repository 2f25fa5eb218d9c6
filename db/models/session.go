package models

import (
	"time"
)

// Session is a live bearer token. The token is the sole credential; a user may
// hold any number of concurrent sessions.
type Session struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex;not null"`
	UserID    string `gorm:"index;not null"`
	IssuedAt  time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// TableName overrides the table name
func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
