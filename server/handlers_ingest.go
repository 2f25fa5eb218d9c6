package server

import (
	"net/http"
)

// The ingest endpoints are the inbound contract for external platform
// adapters: reader replies and publication confirmations. They carry no
// bearer token; mutation is keyed by entity ID.

type ingestReplyRequest struct {
	PostID       string `json:"postId"`
	Platform     string `json:"platform"`
	ReplyContent string `json:"replyContent"`
}

func (s *Server) handleIngestReply(w http.ResponseWriter, r *http.Request) {
	var req ingestReplyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	interaction, err := s.interactions.Record(req.PostID, req.Platform, req.ReplyContent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOfInteraction(interaction))
}

type ingestPublicationRequest struct {
	PostID string `json:"postId"`
}

// handleIngestPublication applies the external Approved -> Posted event.
func (s *Server) handleIngestPublication(w http.ResponseWriter, r *http.Request) {
	var req ingestPublicationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.posts.MarkPosted(req.PostID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Posted"})
}
