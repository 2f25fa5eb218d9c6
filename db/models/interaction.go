package models

import (
	"time"
)

// Interaction is a reader reply to a published post. UserID is copied from the
// owning post at creation so per-user listing does not need a join. Response
// and RespondedAt are set together exactly once; an interaction is never moved
// back to the unresponded state.
type Interaction struct {
	ID            uint   `gorm:"primaryKey"`
	InteractionID string `gorm:"uniqueIndex;not null"`
	PostID        string `gorm:"index;not null"`
	UserID        string `gorm:"index;not null"`
	Platform      string
	ReplyContent  string `gorm:"not null"`
	Response      *string
	RespondedAt   *time.Time
	CreatedAt     time.Time
}

// TableName overrides the table name
func (Interaction) TableName() string {
	return "interactions"
}

// Responded reports whether a response has been attached.
func (i *Interaction) Responded() bool {
	return i.Response != nil
}
