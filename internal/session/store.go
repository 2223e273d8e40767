// Package session holds who is logged in to the portal and with what role.
// A Store is created per browser, hydrated from persisted storage, and is
// the only component allowed to change the authentication state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"biblio/internal/api"
	"biblio/internal/token"
)

// TokenKey is the fixed storage key prefix the bearer token lives under.
const TokenKey = "token"

var (
	// ErrCredentialsRejected is returned when the API refuses the login.
	ErrCredentialsRejected = errors.New("credentials rejected")
	// ErrSessionExpired is returned when a token is already expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrMalformedResponse is returned when the login response carries no usable token.
	ErrMalformedResponse = api.ErrMalformedResponse
)

// KeyFor returns the storage key holding the token of one browser.
func KeyFor(clientID string) string {
	return fmt.Sprintf("%s:%s", TokenKey, clientID)
}

// User is the identity derived from the token payload.
type User struct {
	Email       string     `json:"email"`
	Role        token.Role `json:"rol"`
	DisplayName string     `json:"nombre,omitempty"`
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, identifier, secret string) (string, error)
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used for expiration checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for non-fatal session events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store is the session state of one browser.
type Store struct {
	storage Storage
	key     string
	now     func() time.Time
	logger  *slog.Logger

	mu   sync.RWMutex
	user *User
}

// New creates an anonymous store over storage. Call Init to hydrate it.
func New(storage Storage, key string, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     key,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init hydrates the store from persisted storage.
func (s *Store) Init(ctx context.Context) bool {
	return s.CheckAuth(ctx)
}

// Login exchanges credentials for a token, persists it and authenticates
// the store. The token is persisted before the in-memory state changes.
func (s *Store) Login(ctx context.Context, authn Authenticator, identifier, secret string) (User, error) {
	raw, err := authn.Login(ctx, identifier, secret)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return User{}, fmt.Errorf("%w: %s", ErrCredentialsRejected, apiErr.Detail)
		}
		return User{}, err
	}

	claims, err := token.Parse(raw)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	now := s.now()
	if claims.Expired(now) {
		return User{}, ErrSessionExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(ctx, s.key, raw, claims.TTL(now)); err != nil {
		return User{}, fmt.Errorf("failed to persist token: %w", err)
	}

	user := userFrom(claims)
	s.user = &user

	s.logger.Info("User logged in", "email", user.Email, "rol", user.Role)
	return user, nil
}

// Logout forgets the token and the identity. It always succeeds.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear(ctx)
}

// CheckAuth re-derives the session from persisted storage. Expired or
// undecodable tokens are dropped as if the user had logged out.
func (s *Store) CheckAuth(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Failed to read persisted token", "error", err)
		}
		s.user = nil
		return false
	}

	claims, err := token.Parse(raw)
	if err != nil {
		s.logger.Warn("Dropping malformed token", "error", err)
		s.clear(ctx)
		return false
	}
	if claims.Expired(s.now()) {
		s.logger.Info("Dropping expired token",
			"email", claims.Subject,
			"error", ErrSessionExpired.Error(),
		)
		s.clear(ctx)
		return false
	}

	user := userFrom(claims)
	s.user = &user
	return true
}

// IsAuthenticated reports whether the store holds an identity.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user != nil
}

// Role returns the role of the current user, or "" when anonymous.
func (s *Store) Role() token.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// User returns a snapshot of the current identity, or nil when anonymous.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the persisted bearer token, if any.
func (s *Store) Token(ctx context.Context) (string, bool) {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Failed to read persisted token", "error", err)
		}
		return "", false
	}
	return raw, raw != ""
}

// Invalidate drops the session after the API rejected the token.
func (s *Store) Invalidate(ctx context.Context) {
	s.logger.Info("API rejected the token, clearing session")
	s.Logout(ctx)
}

// clear must be called with mu held.
func (s *Store) clear(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logger.Error("Failed to delete persisted token", "error", err)
	}
	s.user = nil
}

func userFrom(c token.Claims) User {
	return User{
		Email:       c.Subject,
		Role:        c.Role,
		DisplayName: c.DisplayName,
	}
}
