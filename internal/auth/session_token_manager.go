package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/hashicorp/go-retryablehttp"
)

// Static errors for err113 compliance.
var (
	ErrLoginFailed   = errors.New("FMC login failed")
	ErrRefreshFailed = errors.New("FMC token refresh failed")
)

// SessionConfig configures a SessionTokenManager.
type SessionConfig struct {
	BaseURL  string
	Username string
	Password string

	// HTTPClient carries TLS settings and the rate limiter. Nil uses a default client.
	HTTPClient *http.Client
	Logger     fmc.Logger
	UserAgent  string
}

// SessionTokenManager exchanges basic credentials for an FMC session token,
// refreshes it when rejected and revokes it on logout.
type SessionTokenManager struct {
	config *SessionConfig
	client *retryablehttp.Client
	store  *TokenStore
	logger fmc.Logger
	mutex  sync.Mutex
}

// NewSessionTokenManager creates a token manager. No request is made until
// Login or GetToken is called.
func NewSessionTokenManager(config *SessionConfig) *SessionTokenManager {
	client := retryablehttp.NewClient()
	client.RetryMax = constants.DefaultRetryMax
	client.RetryWaitMin = constants.DefaultRetryWaitMin
	client.RetryWaitMax = constants.DefaultRetryWaitMax
	client.Logger = nil
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if config.HTTPClient != nil {
		client.HTTPClient = config.HTTPClient
	}

	var logger fmc.Logger = fmc.NopLogger{}
	if config.Logger != nil {
		logger = config.Logger
	}

	return &SessionTokenManager{
		config: config,
		client: client,
		store:  NewTokenStore(),
		logger: logger,
	}
}

// Login requests a new session token.
func (m *SessionTokenManager) Login(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.login(ctx)
}

// GetToken returns a valid access token, refreshing or logging in if necessary.
func (m *SessionTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	var err error
	if token.CanRefresh() {
		err = m.refresh(ctx, token)
	} else {
		err = m.login(ctx)
	}

	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken forces a token refresh. Once FMC's refresh allowance is used
// up the manager logs in again.
func (m *SessionTokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token := m.store.Get()
	if token.CanRefresh() {
		err := m.refresh(ctx, token)
		if err == nil {
			return nil
		}

		m.logger.Warn("Token refresh failed, logging in again", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return m.login(ctx)
}

// SetToken manually sets the access token.
func (m *SessionTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}

// Domain returns the DOMAIN_UUID of the session, or an empty string.
func (m *SessionTokenManager) Domain() string {
	token := m.store.Get()
	if token == nil {
		return ""
	}

	return token.Domain
}

// Token returns the current token.
func (m *SessionTokenManager) Token() *Token {
	return m.store.Get()
}

// Revoke ends the session on the server and drops the local token.
func (m *SessionTokenManager) Revoke(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token := m.store.Get()
	if token == nil || token.AccessToken == "" {
		return nil
	}

	resp, err := m.post(ctx, constants.AuthRevokePath, map[string]string{
		constants.HeaderAccessToken: token.AccessToken,
	}, false)

	m.store.Clear()

	if err != nil {
		return fmt.Errorf("revoking access token: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &fmc.StatusError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodPost,
			URL:        constants.AuthRevokePath,
		}
	}

	return nil
}

func (m *SessionTokenManager) login(ctx context.Context) error {
	if m.config.Username == "" || m.config.Password == "" {
		return fmc.ErrCredentialsRequired
	}

	resp, err := m.post(ctx, constants.AuthTokenPath, nil, true)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %w", ErrLoginFailed, &fmc.StatusError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodPost,
			URL:        constants.AuthTokenPath,
		})
	}

	token, err := tokenFromHeaders(resp.Header)
	if err != nil {
		return err
	}

	m.store.Set(token)
	m.logger.Debug("Logged in to FMC", map[string]interface{}{
		"url":    m.config.BaseURL,
		"domain": token.Domain,
	})

	return nil
}

func (m *SessionTokenManager) refresh(ctx context.Context, current *Token) error {
	resp, err := m.post(ctx, constants.AuthRefreshPath, map[string]string{
		constants.HeaderAccessToken:  current.AccessToken,
		constants.HeaderRefreshToken: current.RefreshToken,
	}, false)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, &fmc.StatusError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodPost,
			URL:        constants.AuthRefreshPath,
		})
	}

	token, err := tokenFromHeaders(resp.Header)
	if err != nil {
		return err
	}

	if token.Domain == "" {
		token.Domain = current.Domain
	}

	if token.RefreshToken == "" {
		token.RefreshToken = current.RefreshToken
	}

	token.Refreshes = current.Refreshes + 1
	m.store.Set(token)

	m.logger.Debug("Refreshed FMC access token", map[string]interface{}{
		"refreshes": token.Refreshes,
	})

	return nil
}

func (m *SessionTokenManager) post(ctx context.Context, path string, headers map[string]string, basicAuth bool) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(m.config.BaseURL, "/")+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if m.config.UserAgent != "" {
		req.Header.Set("User-Agent", m.config.UserAgent)
	}

	if basicAuth {
		req.SetBasicAuth(m.config.Username, m.config.Password)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return resp, nil
}

func tokenFromHeaders(header http.Header) (*Token, error) {
	access := header.Get(constants.HeaderAccessToken)
	if access == "" {
		return nil, fmc.ErrNoAccessToken
	}

	return &Token{
		AccessToken:  access,
		RefreshToken: header.Get(constants.HeaderRefreshToken),
		Domain:       header.Get(constants.HeaderDomainUUID),
		ExpiresAt:    time.Now().Add(constants.TokenLifetime),
	}, nil
}
