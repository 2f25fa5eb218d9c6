package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"postpilot/db/models"
	"postpilot/db/service"
	"postpilot/logger"
)

type contentView struct {
	Micro string `json:"micro"`
	Short string `json:"short"`
	Long  string `json:"long"`
}

type postView struct {
	PostID    string      `json:"postId"`
	UserID    string      `json:"userId"`
	Content   contentView `json:"content"`
	ImageURL  string      `json:"imageUrl,omitempty"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	DecidedAt *time.Time  `json:"decidedAt,omitempty"`
	PostedAt  *time.Time  `json:"postedAt,omitempty"`
}

type interactionView struct {
	InteractionID string     `json:"interactionId"`
	PostID        string     `json:"postId"`
	Platform      string     `json:"platform"`
	ReplyContent  string     `json:"replyContent"`
	Response      *string    `json:"response"`
	CreatedAt     time.Time  `json:"createdAt"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
}

func viewOfPost(p *models.Post) postView {
	return postView{
		PostID: p.PostID,
		UserID: p.UserID,
		Content: contentView{
			Micro: p.ContentMicro,
			Short: p.ContentShort,
			Long:  p.ContentLong,
		},
		ImageURL:  p.ImageURL,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		DecidedAt: p.DecidedAt,
		PostedAt:  p.PostedAt,
	}
}

func viewOfInteraction(i *models.Interaction) interactionView {
	return interactionView{
		InteractionID: i.InteractionID,
		PostID:        i.PostID,
		Platform:      i.Platform,
		ReplyContent:  i.ReplyContent,
		Response:      i.Response,
		CreatedAt:     i.CreatedAt,
		RespondedAt:   i.RespondedAt,
	}
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Logger.Printf("[ERROR] encoding response: %v", err)
		}
	}
}

// writeError maps engine errors to HTTP statuses and stable machine-readable
// codes so clients branch on codes, never on message prose.
func writeError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "VALIDATION_ERROR",
			Message: ve.Error(),
			Field:   ve.Field,
		}})
		return
	}

	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, service.ErrDuplicateEmail):
		status, code = http.StatusConflict, "DUPLICATE_EMAIL"
	case errors.Is(err, service.ErrInvalidTransition):
		status, code = http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, service.ErrUnknownPost):
		status, code = http.StatusNotFound, "UNKNOWN_POST"
	case errors.Is(err, service.ErrUnknownInteraction):
		status, code = http.StatusNotFound, "UNKNOWN_INTERACTION"
	case errors.Is(err, service.ErrAlreadyResponded):
		status, code = http.StatusConflict, "ALREADY_RESPONDED"
	case errors.Is(err, service.ErrGenerationUnavailable):
		status, code = http.StatusBadGateway, "GENERATION_UNAVAILABLE"
	default:
		logger.Logger.Printf("[ERROR] request failed: %v", err)
		status, code = http.StatusInternalServerError, "INTERNAL"
	}

	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "malformed JSON body",
		}})
		return false
	}
	return true
}
