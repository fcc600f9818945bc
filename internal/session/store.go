// Package session owns the authentication lifecycle: login, register, logout
// and silent refresh, with the session record persisted through the client
// state store. All consumers receive the Store as an injected dependency.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"giafashion/internal/api"
	"giafashion/internal/models"
	"giafashion/internal/observability"
	"giafashion/internal/store"
)

// sessionKey is the single persisted-state key the session record lives under.
const sessionKey = "session"

// Store is the session store. It is the only writer of the persisted session
// record; every logical update is one atomic Set.
type Store struct {
	mu     sync.RWMutex
	client *api.Client
	kv     store.Store
	logger *observability.Logger
	sess   models.Session
}

// New builds the session store, wires it into the client as its credential
// source, and hydrates any persisted session. A malformed persisted record
// hydrates to fully logged-out and is cleared.
func New(client *api.Client, kv store.Store, logger *observability.Logger) *Store {
	if logger == nil {
		logger = observability.NopLogger()
	}
	s := &Store{client: client, kv: kv, logger: logger}
	client.SetCredentials(s)
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	data, ok, err := s.kv.Get(sessionKey)
	if err != nil {
		s.logger.Warn("session hydration failed", "error", err)
		return
	}
	if !ok {
		return
	}

	var sess models.Session
	if unmarshalErr := json.Unmarshal(data, &sess); unmarshalErr != nil || !sess.Valid() {
		// fail-safe: a corrupt or partial record is never a partially
		// authenticated session
		s.logger.Warn("clearing malformed persisted session")
		_ = s.kv.Delete(sessionKey)
		return
	}

	s.sess = sess
}

// Login authenticates against the backend. On failure the prior session, if
// any, is left untouched.
func (s *Store) Login(ctx context.Context, email, password string) error {
	var res struct {
		User         *models.User `json:"user"`
		AccessToken  string       `json:"accessToken"`
		RefreshToken string       `json:"refreshToken"`
	}
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	if err := s.client.Do(ctx, http.MethodPost, "/auth/login", req, &res); err != nil {
		return err
	}
	if res.User == nil || res.AccessToken == "" {
		return models.NewServerError(http.StatusOK, "unexpected login response shape")
	}

	next := models.Session{User: res.User, AccessToken: res.AccessToken}
	if res.RefreshToken != "" {
		next.RefreshToken = res.RefreshToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(next)
}

// Register creates an account. Username is optional and server-validated.
// Same contract as Login: failure leaves any prior session untouched.
func (s *Store) Register(ctx context.Context, email, password, username string) error {
	var res struct {
		User         *models.User `json:"user"`
		AccessToken  string       `json:"accessToken"`
		RefreshToken string       `json:"refreshToken"`
	}
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username,omitempty"`
	}{Email: email, Password: password, Username: username}

	if err := s.client.Do(ctx, http.MethodPost, "/auth/register", req, &res); err != nil {
		return err
	}
	if res.User == nil || res.AccessToken == "" {
		return models.NewServerError(http.StatusOK, "unexpected register response shape")
	}

	next := models.Session{User: res.User, AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(next)
}

// Logout clears all session state unconditionally. Idempotent.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess = models.Session{}
	if err := s.kv.Delete(sessionKey); err != nil {
		s.logger.Warn("failed to clear persisted session", "error", err)
	}
}

// Refresh exchanges the stored refresh token for a new access token. On any
// failure it performs the same clearing as Logout and returns the error; it
// never leaves a half-refreshed session behind.
func (s *Store) Refresh(ctx context.Context) error {
	rt := s.RefreshToken()
	if rt == "" {
		s.Logout()
		return models.NewAuthError(http.StatusUnauthorized, "no refresh token")
	}

	token, err := s.client.Refresh(ctx, rt)
	if err != nil {
		s.Logout()
		return err
	}
	return s.StoreAccessToken(token)
}

// Current returns a copy of the logged-in user, or nil.
func (s *Store) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess.User == nil {
		return nil
	}
	u := *s.sess.User
	return &u
}

// IsAuthenticated is strictly "has user AND has access token"; one without
// the other is logged out.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.Valid()
}

// IsAdmin reports whether the current session carries the admin role.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.Valid() && s.sess.User.IsAdmin()
}

// AccessToken implements api.Credentials.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.AccessToken
}

// RefreshToken implements api.Credentials.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.RefreshToken
}

// StoreAccessToken implements api.Credentials: replaces the access token in a
// single atomic write of the session record.
func (s *Store) StoreAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess.User == nil {
		return models.NewAuthError(http.StatusUnauthorized, "no active session")
	}
	next := s.sess
	next.AccessToken = token
	return s.persistLocked(next)
}

// SessionExpired implements api.Credentials: unrecoverable refresh failure
// tears the whole session down.
func (s *Store) SessionExpired() {
	// Logout takes the lock itself
	s.Logout()
	s.logger.Info("session expired, cleared credentials")
}

// persistLocked writes next to the state store in one atomic update and only
// then replaces the in-memory session. Callers hold s.mu.
func (s *Store) persistLocked(next models.Session) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(sessionKey, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.sess = next
	return nil
}
