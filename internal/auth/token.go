package auth

import (
	"sync"
	"time"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
)

// Token is an FMC session token.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Domain       string    `json:"domain,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	// Refreshes counts refreshes of this session; FMC allows three.
	Refreshes int `json:"refreshes,omitempty"`
}

// Valid checks if the token is present and not about to expire.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenExpirationBuffer).Before(t.ExpiresAt)
}

// CanRefresh reports whether FMC will still accept a refresh for this session.
func (t *Token) CanRefresh() bool {
	return t != nil && t.RefreshToken != "" && t.Refreshes < constants.MaxTokenRefreshes
}

// TokenStore holds the current token.
type TokenStore struct {
	mutex sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current token or nil.
func (s *TokenStore) Get() *Token {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

// Set replaces the current token.
func (s *TokenStore) Set(token *Token) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
}

// Clear removes the current token.
func (s *TokenStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = nil
}
