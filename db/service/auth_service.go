package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"postpilot/db/models"
	"postpilot/db/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// AuthService issues, validates and invalidates bearer tokens. Every other
// service receives the resolved user ID, never raw credentials.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	sessionTTL time.Duration
	bcryptCost int
}

// Credentials is the result of a successful login or registration.
type Credentials struct {
	Token  string
	UserID string
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, sessionTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		bcryptCost: bcryptCost,
	}
}

// Register creates a user with an empty generation profile and opens the
// first session.
func (s *AuthService) Register(username, email, password string) (*Credentials, error) {
	if strings.TrimSpace(username) == "" {
		return nil, validationErr("username", "must not be empty")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationErr("email", "must not be empty")
	}
	if !strings.Contains(email, "@") {
		return nil, validationErr("email", "must be an email address")
	}
	if len(password) < minPasswordLen {
		return nil, validationErr("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}

	exists, err := s.users.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		UserID:       uuid.NewString(),
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: string(hash),
		Topics:       []string{},
		ArticleURLs:  []string{},
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return s.openSession(user.UserID)
}

// Login verifies credentials and opens a new session. A user may hold any
// number of live sessions at once.
func (s *AuthService) Login(email, password string) (*Credentials, error) {
	user, err := s.users.FindByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(user.UserID)
}

// Validate resolves a bearer token to its user ID. Expired sessions are
// removed on the way out.
func (s *AuthService) Validate(token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	session, err := s.sessions.FindByToken(token)
	if err != nil {
		return "", fmt.Errorf("finding session: %w", err)
	}
	if session == nil {
		return "", ErrUnauthenticated
	}
	if session.Expired(time.Now()) {
		_ = s.sessions.DeleteByToken(token)
		return "", ErrUnauthenticated
	}

	return session.UserID, nil
}

// Logout invalidates the token. Unknown tokens are a no-op, the call is
// idempotent.
func (s *AuthService) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByToken(token)
}

// PruneExpired drops every session past its expiry.
func (s *AuthService) PruneExpired() (int64, error) {
	return s.sessions.DeleteExpired(time.Now())
}

func (s *AuthService) openSession(userID string) (*Credentials, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Credentials{Token: token, UserID: userID}, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
