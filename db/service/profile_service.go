package service

import (
	"fmt"
	"net/url"
	"strings"

	"postpilot/db/models"
	"postpilot/db/repository"

	"github.com/robfig/cron/v3"
)

// Profile is the generation-preference view of a user, without credentials.
type Profile struct {
	UserID         string   `json:"userId"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Topics         []string `json:"topics"`
	ArticleURLs    []string `json:"articleUrls"`
	Purpose        string   `json:"purpose"`
	Tone           string   `json:"tone"`
	SearchCriteria string   `json:"searchCriteria"`
	Schedule       string   `json:"schedule"`
}

// ProfileListener is notified after a profile write so dependent components
// (the generation scheduler) can rebuild.
type ProfileListener interface {
	ProfileUpdated(userID string)
}

// ProfileService reads and replaces per-user generation preferences.
type ProfileService struct {
	users    repository.UserRepository
	listener ProfileListener
}

// NewProfileService creates a new profile service
func NewProfileService(users repository.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

// SetListener registers the component notified on profile writes.
func (s *ProfileService) SetListener(l ProfileListener) {
	s.listener = l
}

// Get returns the profile for the user.
func (s *ProfileService) Get(userID string) (*Profile, error) {
	user, err := s.users.FindByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return profileOf(user), nil
}

// Update validates and replaces the user's generation preferences wholesale.
// Identity fields (username, email) are not writable here.
func (s *ProfileService) Update(userID string, p Profile) (*Profile, error) {
	if err := validateProfile(p); err != nil {
		return nil, err
	}

	update := &models.User{
		Topics:         normalizeList(p.Topics),
		ArticleURLs:    normalizeList(p.ArticleURLs),
		Purpose:        strings.TrimSpace(p.Purpose),
		Tone:           p.Tone,
		SearchCriteria: strings.TrimSpace(p.SearchCriteria),
		Schedule:       strings.TrimSpace(p.Schedule),
	}

	ok, err := s.users.UpdateProfile(userID, update)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if !ok {
		return nil, ErrUnauthenticated
	}

	if s.listener != nil {
		s.listener.ProfileUpdated(userID)
	}

	return s.Get(userID)
}

// ScheduledUsers returns every user whose profile carries a non-empty
// generation schedule.
func (s *ProfileService) ScheduledUsers() ([]models.User, error) {
	return s.users.FindScheduled()
}

func validateProfile(p Profile) error {
	if !toneAllowed(p.Tone) {
		return validationErr("tone", fmt.Sprintf("must be one of %s", strings.Join(namedTones(), ", ")))
	}

	for _, topic := range p.Topics {
		if strings.TrimSpace(topic) == "" {
			return validationErr("topics", "entries must not be blank")
		}
	}

	for _, raw := range p.ArticleURLs {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return validationErr("articleUrls", fmt.Sprintf("%q is not an absolute URL", raw))
		}
	}

	if sched := strings.TrimSpace(p.Schedule); sched != "" {
		if _, err := cron.ParseStandard(sched); err != nil {
			return validationErr("schedule", "must be a cron expression")
		}
	}

	return nil
}

func toneAllowed(tone string) bool {
	for _, t := range models.AllowedTones {
		if tone == t {
			return true
		}
	}
	return false
}

func namedTones() []string {
	var named []string
	for _, t := range models.AllowedTones {
		if t != models.ToneUnset {
			named = append(named, t)
		}
	}
	return named
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

func profileOf(user *models.User) *Profile {
	p := &Profile{
		UserID:         user.UserID,
		Username:       user.Username,
		Email:          user.Email,
		Topics:         user.Topics,
		ArticleURLs:    user.ArticleURLs,
		Purpose:        user.Purpose,
		Tone:           user.Tone,
		SearchCriteria: user.SearchCriteria,
		Schedule:       user.Schedule,
	}
	if p.Topics == nil {
		p.Topics = []string{}
	}
	if p.ArticleURLs == nil {
		p.ArticleURLs = []string{}
	}
	return p
}
