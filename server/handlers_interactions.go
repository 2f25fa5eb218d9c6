package server

import (
	"net/http"
)

type interactionListResponse struct {
	Items []interactionView `json:"items"`
	Total int64             `json:"total"`
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	limit := intParam(q.Get("limit"), 0)

	result, err := s.interactions.List(requestUserID(r), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]interactionView, 0, len(result.Items))
	for i := range result.Items {
		views = append(views, viewOfInteraction(&result.Items[i]))
	}
	writeJSON(w, http.StatusOK, interactionListResponse{Items: views, Total: result.Total})
}

func (s *Server) handleInteractionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.interactions.Stats(requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type respondRequest struct {
	Response string `json:"response"`
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.interactions.Respond(r.PathValue("id"), req.Response); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "responded"})
}

func (s *Server) handleSuggestResponse(w http.ResponseWriter, r *http.Request) {
	suggestion, err := s.interactions.SuggestResponse(r.Context(), r.PathValue("id"), requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggestion": suggestion})
}
