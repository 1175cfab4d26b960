package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TokenManager combines a TokenStore with the expiry rules used by every
// authenticated command.
type TokenManager struct {
	store  TokenStore
	now    func() time.Time
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewTokenManager creates a TokenManager. Pass nil now to use time.Now.
func NewTokenManager(store TokenStore, now func() time.Time, logger zerolog.Logger) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		store:  store,
		now:    now,
		logger: logger,
	}
}

// Current returns the stored token without checking its expiry.
// An unreadable or corrupt token file is reported as ErrNotAuthenticated.
func (tm *TokenManager) Current() (*StoredToken, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.current()
}

func (tm *TokenManager) current() (*StoredToken, error) {
	tok, err := tm.store.Load()
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrNotAuthenticated
		}
		tm.logger.Warn().Err(err).Msg("stored token is unreadable")
		return nil, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	if tok.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	return tok, nil
}

// RequireAuth returns the stored token if it is present and not expired.
// It returns ErrNotAuthenticated when there is no token and ErrSessionExpired when
// the token is past, or within ExpiryBuffer of, its expiry.
func (tm *TokenManager) RequireAuth() (*StoredToken, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tok, err := tm.current()
	if err != nil {
		return nil, err
	}
	if IsTokenExpired(tok, tm.now()) {
		tm.logger.Debug().Str("expires_at", tok.ExpiresAt).Msg("stored token is expired or about to expire")
		return nil, ErrSessionExpired
	}
	return tok, nil
}

// Persist converts resp into a StoredToken and overwrites whatever was stored.
func (tm *TokenManager) Persist(resp TokenResponse) (*StoredToken, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tok := NewStoredToken(resp, tm.now())
	if err := tm.store.Save(tok); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}
	tm.logger.Debug().Str("expires_at", tok.ExpiresAt).Msg("token stored")
	return tok, nil
}

// Clear deletes the stored token.
func (tm *TokenManager) Clear() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.store.Delete()
}
