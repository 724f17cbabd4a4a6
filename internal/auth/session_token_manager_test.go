package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/fmc-client/internal/auth"
	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authServer struct {
	logins   atomic.Int32
	refreshs atomic.Int32
	revokes  atomic.Int32
}

func (a *authServer) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/fmc_platform/v1/auth/generatetoken", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		user, pass, ok := r.BasicAuth()
		if !ok || user != "api" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		n := a.logins.Add(1)
		w.Header().Set("X-auth-access-token", "access-"+string(rune('0'+n)))
		w.Header().Set("X-auth-refresh-token", "refresh")
		w.Header().Set("DOMAIN_UUID", "domain-uuid")
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/fmc_platform/v1/auth/refreshtoken", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh", r.Header.Get("X-auth-refresh-token"))
		assert.NotEmpty(t, r.Header.Get("X-auth-access-token"))

		a.refreshs.Add(1)
		w.Header().Set("X-auth-access-token", "refreshed")
		w.Header().Set("X-auth-refresh-token", "refresh")
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/fmc_platform/v1/auth/revokeaccess", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-auth-access-token"))

		a.revokes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func newManager(url, password string) *auth.SessionTokenManager {
	return auth.NewSessionTokenManager(&auth.SessionConfig{
		BaseURL:  url,
		Username: "api",
		Password: password,
	})
}

func TestSessionTokenManager_Login(t *testing.T) {
	t.Parallel()

	srv := &authServer{}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	manager := newManager(server.URL, "secret")

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, "domain-uuid", manager.Domain())

	// A valid token is reused.
	token, err = manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, int32(1), srv.logins.Load())
}

func TestSessionTokenManager_LoginToken(t *testing.T) {
	t.Parallel()

	srv := &authServer{}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	manager := newManager(server.URL, "secret")

	before := time.Now()
	require.NoError(t, manager.Login(context.Background()))

	token := manager.Token()
	require.NotNil(t, token)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.Equal(t, "domain-uuid", token.Domain)
	assert.Equal(t, 0, token.Refreshes)
	assert.WithinDuration(t, before.Add(constants.TokenLifetime), token.ExpiresAt, 5*time.Second)
	assert.True(t, token.Valid())
	assert.True(t, token.CanRefresh())
}

func TestSessionTokenManager_BadCredentials(t *testing.T) {
	t.Parallel()

	srv := &authServer{}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	manager := newManager(server.URL, "wrong")

	err := manager.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrLoginFailed)
	assert.True(t, fmc.IsUnauthorized(err))
}

func TestSessionTokenManager_MissingCredentials(t *testing.T) {
	t.Parallel()

	manager := newManager("https://fmc.invalid", "")

	err := manager.Login(context.Background())
	assert.ErrorIs(t, err, fmc.ErrCredentialsRequired)
}

func TestSessionTokenManager_NoTokenHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	manager := newManager(server.URL, "secret")

	err := manager.Login(context.Background())
	assert.ErrorIs(t, err, fmc.ErrNoAccessToken)
}

func TestSessionTokenManager_Refresh(t *testing.T) {
	t.Parallel()

	srv := &authServer{}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	manager := newManager(server.URL, "secret")
	require.NoError(t, manager.Login(context.Background()))

	require.NoError(t, manager.RefreshToken(context.Background()))

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed", token)
	assert.Equal(t, "domain-uuid", manager.Domain())
	assert.Equal(t, 1, manager.Token().Refreshes)
}

func TestSessionTokenManager_RefreshAllowanceExhausted(t *testing.T) {
	t.Parallel()

	srv := &authServer{}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	manager := newManager(server.URL, "secret")
	require.NoError(t, manager.Login(context.Background()))

	for range 4 {
		require.NoError(t, manager.RefreshToken(context.Background()))
	}

	assert.Equal(t, int32(3), srv.refreshs.Load())
	assert.Equal(t, int32(2), srv.logins.Load())
}

func TestSessionTokenManager_ExpiredTokenRefreshes(t *testing.T) {
	t.Parallel()

	srv := &authServer{}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	manager := newManager(server.URL, "secret")
	manager.SetToken("stale", time.Now().Add(-time.Minute))

	// A manually set token has no refresh token, so the manager logs in.
	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
}

func TestSessionTokenManager_Revoke(t *testing.T) {
	t.Parallel()

	srv := &authServer{}
	server := httptest.NewServer(srv.handler(t))
	defer server.Close()

	manager := newManager(server.URL, "secret")
	require.NoError(t, manager.Login(context.Background()))

	require.NoError(t, manager.Revoke(context.Background()))
	assert.Nil(t, manager.Token())
	assert.Equal(t, int32(1), srv.revokes.Load())

	// Revoking without a session is a no-op.
	require.NoError(t, manager.Revoke(context.Background()))
	assert.Equal(t, int32(1), srv.revokes.Load())
}

func TestToken_ExpiryBuffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token *auth.Token
		valid bool
	}{
		{name: "no session", token: nil},
		{name: "no access token", token: &auth.Token{RefreshToken: "refresh"}},
		{name: "set without expiry", token: &auth.Token{AccessToken: "a"}, valid: true},
		{name: "fresh login", token: &auth.Token{AccessToken: "a", ExpiresAt: time.Now().Add(constants.TokenLifetime)}, valid: true},
		{name: "inside the buffer", token: &auth.Token{AccessToken: "a", ExpiresAt: time.Now().Add(constants.TokenExpirationBuffer / 2)}},
		{name: "expired", token: &auth.Token{AccessToken: "a", ExpiresAt: time.Now().Add(-time.Minute)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.token.Valid())
		})
	}
}

func TestToken_RefreshAllowance(t *testing.T) {
	t.Parallel()

	var none *auth.Token
	assert.False(t, none.CanRefresh())

	token := &auth.Token{AccessToken: "a", RefreshToken: "refresh"}
	for n := range constants.MaxTokenRefreshes {
		token.Refreshes = n
		assert.True(t, token.CanRefresh(), "refresh %d", n+1)
	}

	token.Refreshes = constants.MaxTokenRefreshes
	assert.False(t, token.CanRefresh())

	assert.False(t, (&auth.Token{AccessToken: "a"}).CanRefresh(), "a token set by hand cannot be refreshed")
}

func TestTokenStore(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	assert.Nil(t, store.Get())

	token := &auth.Token{AccessToken: "a", Domain: "domain-uuid"}
	store.Set(token)
	assert.Same(t, token, store.Get())

	store.Clear()
	assert.Nil(t, store.Get())
}
