package models

import (
	"time"
)

// PostStatus is the closed set of lifecycle states for a generated post.
type PostStatus string

const (
	StatusPending  PostStatus = "Pending"
	StatusApproved PostStatus = "Approved"
	StatusRejected PostStatus = "Rejected"
	StatusPosted   PostStatus = "Posted"
)

// transitions is the only place legal status changes are defined. Approved to
// Posted is driven by an external publication confirmation, never by the
// engine itself.
var transitions = map[PostStatus][]PostStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusPosted},
	StatusRejected: {},
	StatusPosted:   {},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to PostStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s names a known lifecycle state.
func ValidStatus(s PostStatus) bool {
	_, ok := transitions[s]
	return ok
}

// Content length ceilings for the platform-sized variants.
const (
	MicroMaxLen = 280
	ShortMaxLen = 700
)

// Post is a generated content item. The three content variants are populated
// together at creation; a row never exists with a partial bundle. Rows are
// never deleted, terminal states are kept for audit.
type Post struct {
	ID           uint   `gorm:"primaryKey"`
	PostID       string `gorm:"uniqueIndex;not null"`
	UserID       string `gorm:"index;not null"`
	ContentMicro string `gorm:"not null"`
	ContentShort string `gorm:"not null"`
	ContentLong  string `gorm:"not null"`
	ImageURL     string
	Status       PostStatus `gorm:"index;not null"`
	CreatedAt    time.Time
	DecidedAt    *time.Time
	PostedAt     *time.Time
}

// TableName overrides the table name
func (Post) TableName() string {
	return "posts"
}
