package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/linkkeeper/internal/logger"
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

type keyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// Vault owns the persisted token and user snapshot. Both live under their
// own keys in the state store and are always cleared together.
type Vault struct {
	store keyValueStore

	mu    sync.RWMutex
	token string
	user  *models.User
}

// NewVault returns an empty vault backed by store. Call Restore to load
// a previously persisted session.
func NewVault(store keyValueStore) *Vault {
	return &Vault{
		store: store,
	}
}

// Restore loads the token and the user snapshot from the state store.
// A snapshot that cannot be decoded is treated as absent.
func (v *Vault) Restore(ctx context.Context) error {
	token, _, err := v.store.Get(ctx, models.TokenKey)
	if err != nil {
		return fmt.Errorf("in internal/session/vault.go/Restore(): error while reading the token: %w", err)
	}

	rawUser, found, err := v.store.Get(ctx, models.UserKey)
	if err != nil {
		return fmt.Errorf("in internal/session/vault.go/Restore(): error while reading the user snapshot: %w", err)
	}

	var usr *models.User
	if found {
		usr = &models.User{}
		if err := json.Unmarshal([]byte(rawUser), usr); err != nil {
			logger.Log.Warnw("discarding unreadable user snapshot", zap.Error(err))
			usr = nil
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = token
	v.user = usr

	return nil
}

// Token returns the current bearer token or "" when there is none.
func (v *Vault) Token() string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.token
}

// User returns the identity snapshot, if any.
func (v *Vault) User() (models.User, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.user == nil {
		return models.User{}, false
	}

	return *v.user, true
}

// Save persists the token and the user snapshot, then makes them current.
// Nothing changes in memory when persisting fails, and a token is never
// left persisted next to another user's snapshot.
func (v *Vault) Save(ctx context.Context, sess models.Session) error {
	rawUser, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}

	if err := v.store.Set(ctx, models.TokenKey, sess.Token); err != nil {
		return fmt.Errorf("in internal/session/vault.go/Save(): error while persisting the token: %w", err)
	}
	if err := v.store.Set(ctx, models.UserKey, string(rawUser)); err != nil {
		v.rollbackToken(ctx)
		return fmt.Errorf("in internal/session/vault.go/Save(): error while persisting the user snapshot: %w", err)
	}

	usr := sess.User
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = sess.Token
	v.user = &usr

	return nil
}

// rollbackToken puts the previous token back after a half-done Save. When
// that fails too, the whole persisted session is dropped.
func (v *Vault) rollbackToken(ctx context.Context) {
	previous := v.Token()

	var err error
	if previous == "" {
		err = v.store.Remove(ctx, models.TokenKey)
	} else {
		err = v.store.Set(ctx, models.TokenKey, previous)
	}
	if err == nil {
		return
	}

	logger.Log.Errorw("unable to roll back the persisted token", zap.Error(err))
	v.Clear()
}

// Clear forgets the token and the user snapshot. It never fails: the
// in-memory state is dropped first and storage errors are only logged.
func (v *Vault) Clear() {
	v.mu.Lock()
	v.token = ""
	v.user = nil
	v.mu.Unlock()

	if err := v.store.Remove(context.Background(), models.TokenKey, models.UserKey); err != nil {
		logger.Log.Errorw("unable to remove the persisted session", zap.Error(err))
	}
}
