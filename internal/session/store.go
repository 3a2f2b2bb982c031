// Package session keeps the authenticated identity of the client. The Vault
// persists the token and user snapshot; the Store drives login, registration
// and logout on top of it.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/patric-chuzhbe/linkkeeper/internal/logger"
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

type authenticator interface {
	Login(ctx context.Context, request models.LoginRequest) (models.AuthResponse, error)
	Register(ctx context.Context, request models.RegisterRequest) (models.AuthResponse, error)
}

// Store is the session store: at most one session exists at a time.
type Store struct {
	vault *Vault
	auth  authenticator

	restoreOnce sync.Once
	restoreErr  error
	restored    atomic.Bool
}

func New(vault *Vault, auth authenticator) *Store {
	return &Store{
		vault: vault,
		auth:  auth,
	}
}

// Restore loads the persisted session once. Later calls return the result
// of the first one.
func (s *Store) Restore(ctx context.Context) error {
	s.restoreOnce.Do(func() {
		s.restoreErr = s.vault.Restore(ctx)
		s.restored.Store(true)
	})

	return s.restoreErr
}

// Restored reports whether Restore has completed, successfully or not.
func (s *Store) Restored() bool {
	return s.restored.Load()
}

// Login authenticates against the API and persists the resulting session.
// Errors of the API call are returned untouched.
func (s *Store) Login(ctx context.Context, request models.LoginRequest) (models.Session, error) {
	response, err := s.auth.Login(ctx, request)
	if err != nil {
		return models.Session{}, err
	}

	return s.establish(ctx, response)
}

// Register creates an account and persists the resulting session.
// Errors of the API call are returned untouched.
func (s *Store) Register(ctx context.Context, request models.RegisterRequest) (models.Session, error) {
	response, err := s.auth.Register(ctx, request)
	if err != nil {
		return models.Session{}, err
	}

	return s.establish(ctx, response)
}

func (s *Store) establish(ctx context.Context, response models.AuthResponse) (models.Session, error) {
	sess := response.Session()
	if sess.Token == "" {
		logger.Log.Warnln("authentication response carries no token, nothing persisted", "user", sess.Username)
		return sess, nil
	}

	if err := s.vault.Save(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("in internal/session/store.go/establish(): %w", err)
	}
	logger.Log.Debugln("session established", "user", sess.Username, "role", sess.Role)

	return sess, nil
}

// Logout drops the session. It never fails.
func (s *Store) Logout() {
	s.vault.Clear()
}

// IsAuthenticated reports whether a token is present. The token itself is
// only judged by the server on the next API call.
func (s *Store) IsAuthenticated() bool {
	return s.vault.Token() != ""
}

// Current returns the stored identity without any network call.
func (s *Store) Current() (models.Session, bool) {
	usr, ok := s.vault.User()
	if !ok {
		return models.Session{}, false
	}

	return models.Session{
		User:  usr,
		Token: s.vault.Token(),
	}, true
}
