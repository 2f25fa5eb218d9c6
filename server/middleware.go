package server

import (
	"context"
	"net/http"
	"strings"

	"postpilot/db/service"
)

type contextKey string

const userIDKey contextKey = "userID"

// authed resolves the bearer token and stores the user ID in the request
// context. Invalid or missing tokens fail before any workflow component is
// touched.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.Validate(bearerToken(r))
		if err != nil {
			writeError(w, service.ErrUnauthenticated)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

// limited throttles the unauthenticated ingest endpoints.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.ingestLimiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{
				Code:    "RATE_LIMITED",
				Message: "too many ingest requests",
			}})
			return
		}
		next(w, r)
	}
}

func requestUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
