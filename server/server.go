package server

import (
	"context"
	"net/http"
	"time"

	"postpilot/config"
	"postpilot/db/service"
	"postpilot/logger"

	"golang.org/x/time/rate"
)

// Server is the HTTP boundary. It resolves bearer tokens before any workflow
// component runs and maps every engine error to a stable code.
type Server struct {
	auth         *service.AuthService
	profiles     *service.ProfileService
	posts        *service.PostService
	interactions *service.InteractionService
	stats        *service.StatsService

	ingestLimiter *rate.Limiter
	httpServer    *http.Server
}

// New wires the handlers and returns a server listening on cfg.Server.ListenAddr.
func New(cfg *config.Config, auth *service.AuthService, profiles *service.ProfileService, posts *service.PostService, interactions *service.InteractionService, stats *service.StatsService) *Server {
	s := &Server{
		auth:          auth,
		profiles:      profiles,
		posts:         posts,
		interactions:  interactions,
		stats:         stats,
		ingestLimiter: rate.NewLimiter(rate.Limit(cfg.Ingest.RequestsPerSecond), cfg.Ingest.Burst),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler builds the route table. Exposed separately so tests can drive the
// full stack through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.HandleFunc("GET /api/profile", s.authed(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.authed(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/posts", s.authed(s.handleListPosts))
	mux.HandleFunc("GET /api/posts/{id}", s.authed(s.handleGetPost))
	mux.HandleFunc("POST /api/posts/generate", s.authed(s.handleGeneratePost))
	mux.HandleFunc("PUT /api/posts/{id}/approve", s.authed(s.handleApprovePost))
	mux.HandleFunc("PUT /api/posts/{id}/reject", s.authed(s.handleRejectPost))

	mux.HandleFunc("GET /api/interactions", s.authed(s.handleListInteractions))
	mux.HandleFunc("GET /api/interactions/stats", s.authed(s.handleInteractionStats))
	mux.HandleFunc("PUT /api/interactions/{id}/respond", s.authed(s.handleRespond))
	mux.HandleFunc("GET /api/interactions/{id}/suggest", s.authed(s.handleSuggestResponse))

	mux.HandleFunc("GET /api/stats", s.authed(s.handleOverview))

	// External platform adapters land here, unauthenticated and rate limited.
	mux.HandleFunc("POST /ingest/replies", s.limited(s.handleIngestReply))
	mux.HandleFunc("POST /ingest/publications", s.limited(s.handleIngestPublication))

	return mux
}

// ListenAndServe runs until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Printf("[INFO] listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
