package scheduler

import (
	"context"
	"sync"
	"time"

	"postpilot/db/service"
	"postpilot/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs per-user generation jobs from profile schedules and the
// hourly session prune. Profiles are re-read on a fixed interval and whenever
// the profile service reports a write, so schedule edits take effect without a
// restart.
type Scheduler struct {
	profiles *service.ProfileService
	posts    *service.PostService
	auth     *service.AuthService

	refreshEvery time.Duration
	pruneEvery   time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	dirty   chan struct{}
}

// New creates a scheduler over the given services.
func New(profiles *service.ProfileService, posts *service.PostService, auth *service.AuthService, refreshEvery, pruneEvery time.Duration) *Scheduler {
	return &Scheduler{
		profiles:     profiles,
		posts:        posts,
		auth:         auth,
		refreshEvery: refreshEvery,
		pruneEvery:   pruneEvery,
		cron:         cron.New(),
		entries:      make(map[string]cron.EntryID),
		dirty:        make(chan struct{}, 1),
	}
}

// ProfileUpdated implements service.ProfileListener.
func (s *Scheduler) ProfileUpdated(userID string) {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, keeping cron entries in sync with
// profile schedules.
func (s *Scheduler) Run(ctx context.Context) error {
	s.rebuild()
	s.cron.Start()
	defer s.cron.Stop()

	refresh := time.NewTicker(s.refreshEvery)
	defer refresh.Stop()
	prune := time.NewTicker(s.pruneEvery)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.dirty:
			s.rebuild()
		case <-refresh.C:
			s.rebuild()
		case <-prune.C:
			if n, err := s.auth.PruneExpired(); err != nil {
				logger.Logger.Printf("[ERROR] pruning sessions: %v", err)
			} else if n > 0 {
				logger.Logger.Printf("[INFO] pruned %d expired sessions", n)
			}
		}
	}
}

func (s *Scheduler) rebuild() {
	users, err := s.profiles.ScheduledUsers()
	if err != nil {
		logger.Logger.Printf("[ERROR] loading scheduled profiles: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(users))
	for _, user := range users {
		seen[user.UserID] = true
		if _, ok := s.entries[user.UserID]; ok {
			// Replace the entry so schedule edits take effect.
			s.cron.Remove(s.entries[user.UserID])
			delete(s.entries, user.UserID)
		}

		userID := user.UserID
		entryID, err := s.cron.AddFunc(user.Schedule, func() { s.generate(userID) })
		if err != nil {
			logger.Logger.Printf("[WARN] bad schedule for user %s: %v", userID, err)
			continue
		}
		s.entries[userID] = entryID
	}

	for userID, entryID := range s.entries {
		if !seen[userID] {
			s.cron.Remove(entryID)
			delete(s.entries, userID)
		}
	}
}

func (s *Scheduler) generate(userID string) {
	post, err := s.posts.Generate(context.Background(), userID)
	if err != nil {
		// The engine performs no retries; the next tick tries again.
		logger.Logger.Printf("[WARN] scheduled generation for user %s failed: %v", userID, err)
		return
	}
	logger.Logger.Printf("[INFO] scheduled generation created post %s for user %s", post.PostID, userID)
}
