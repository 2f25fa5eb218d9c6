package generator

import (
	"context"

	"postpilot/db/models"
)

// Bundle is the complete set of content variants the collaborator returns for
// one generated post. All three text variants are required; ImageURL is
// optional.
type Bundle struct {
	Micro    string `json:"micro"`
	Short    string `json:"short"`
	Long     string `json:"long"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Generator produces draft content from a user's generation profile. The
// engine treats it as an opaque, fail-fast collaborator: calls are bounded by
// the context and any error means nothing was generated.
type Generator interface {
	GeneratePost(ctx context.Context, user *models.User) (*Bundle, error)
	GenerateReply(ctx context.Context, user *models.User, post *models.Post, replyContent string) (string, error)
}
