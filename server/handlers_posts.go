package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	limit := intParam(q.Get("limit"), 0)

	posts, err := s.posts.List(requestUserID(r), q.Get("status"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]postView, 0, len(posts))
	for i := range posts {
		views = append(views, viewOfPost(&posts[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.Get(r.PathValue("id"), requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOfPost(post))
}

func (s *Server) handleGeneratePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.Generate(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOfPost(post))
}

func (s *Server) handleApprovePost(w http.ResponseWriter, r *http.Request) {
	if err := s.posts.Approve(r.PathValue("id"), requestUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Approved"})
}

func (s *Server) handleRejectPost(w http.ResponseWriter, r *http.Request) {
	if err := s.posts.Reject(r.PathValue("id"), requestUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Rejected"})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.stats.Overview(requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
