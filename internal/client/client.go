package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fivetwenty-io/fmc-client/internal/auth"
	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/internal/http"
	"github.com/fivetwenty-io/fmc-client/internal/ratelimit"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/tidwall/gjson"
)

// Client implements the fmc.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager *auth.SessionTokenManager
	limiter      *ratelimit.Limiter
	baseURL      string
	domain       string
	version      string
	logger       fmc.Logger

	tablesMu sync.Mutex
	tables   map[fmc.ObjectType]*ObjectTable

	closed bool

	devices        fmc.DevicesClient
	accessPolicies fmc.AccessPoliciesClient
	taskStatuses   fmc.TaskStatusesClient
	auditRecords   fmc.AuditRecordsClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *fmc.Config, logger fmc.Logger, limiter *ratelimit.Limiter) []http.Option {
	httpOpts := []http.Option{
		http.WithHTTPClient(http.NewHTTPClient(config.HTTPTimeout, config.InsecureSkipVerify, limiter)),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// NormalizeURL trims the trailing slash and defaults to https.
func NormalizeURL(raw string) string {
	out := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if !strings.HasPrefix(out, "http://") && !strings.HasPrefix(out, "https://") {
		out = "https://" + out
	}

	return out
}

// New logs in to FMC, reads the server version and prepares one empty object
// table per object type.
func New(ctx context.Context, config *fmc.Config) (*Client, error) {
	if config == nil {
		return nil, fmc.ErrConfigRequired
	}

	if config.URL == "" {
		return nil, fmc.ErrURLRequired
	}

	if config.Username == "" || config.Password == "" {
		return nil, fmc.ErrCredentialsRequired
	}

	var logger fmc.Logger = fmc.NopLogger{}
	if config.Logger != nil {
		logger = config.Logger
	}

	baseURL := NormalizeURL(config.URL)

	limiter := ratelimit.New(config.RequestsPerWindow, config.RateWindow, ratelimit.WithLogger(logger))

	httpOpts := createHTTPClientOptions(config, logger, limiter)

	tokenManager := auth.NewSessionTokenManager(&auth.SessionConfig{
		BaseURL:    baseURL,
		Username:   config.Username,
		Password:   config.Password,
		HTTPClient: http.NewHTTPClient(config.HTTPTimeout, config.InsecureSkipVerify, limiter),
		Logger:     logger,
		UserAgent:  config.UserAgent,
	})

	err := tokenManager.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("logging in to %s: %w", baseURL, err)
	}

	client := &Client{
		httpClient:   http.NewClient(baseURL, tokenManager, httpOpts...),
		tokenManager: tokenManager,
		limiter:      limiter,
		baseURL:      baseURL,
		logger:       logger,
		tables:       make(map[fmc.ObjectType]*ObjectTable),
	}

	client.domain = config.Domain
	if client.domain == "" {
		client.domain = tokenManager.Domain()
	}

	if client.domain == "" {
		client.domain = constants.DefaultDomain
	}

	client.initializeResourceClients()

	for _, objType := range fmc.ObjectTypes() {
		client.tables[objType] = newObjectTable(client, objType)
	}

	client.version, err = client.fetchServerVersion(ctx)
	if err != nil {
		_ = tokenManager.Revoke(ctx)

		return nil, err
	}

	logger.Info("Connected to FMC", map[string]interface{}{
		"url":     baseURL,
		"version": client.version,
		"domain":  client.domain,
	})

	return client, nil
}

func (c *Client) initializeResourceClients() {
	c.devices = NewDevicesClient(c)
	c.accessPolicies = NewAccessPoliciesClient(c)
	c.taskStatuses = NewTaskStatusesClient(c)
	c.auditRecords = NewAuditRecordsClient(c)
}

func (c *Client) fetchServerVersion(ctx context.Context) (string, error) {
	resp, err := c.httpClient.Get(ctx, constants.ServerVersionPath, nil)
	if err != nil {
		return "", fmt.Errorf("getting server version: %w", err)
	}

	version := gjson.GetBytes(resp.Body, "items.0.serverVersion").String()
	if version == "" {
		return "", fmt.Errorf("getting server version: %w", fmc.ErrEmptyResponse)
	}

	return version, nil
}

// URL implements fmc.Client.URL.
func (c *Client) URL() string {
	return c.baseURL
}

// ServerVersion implements fmc.Client.ServerVersion.
func (c *Client) ServerVersion() string {
	return c.version
}

// Domain returns the domain path element in use.
func (c *Client) Domain() string {
	return c.domain
}

// Limiter returns the request limiter shared by every call of this client.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// Devices implements fmc.Client.Devices.
func (c *Client) Devices() fmc.DevicesClient {
	return c.devices
}

// AccessPolicies implements fmc.Client.AccessPolicies.
func (c *Client) AccessPolicies() fmc.AccessPoliciesClient {
	return c.accessPolicies
}

// TaskStatuses implements fmc.Client.TaskStatuses.
func (c *Client) TaskStatuses() fmc.TaskStatusesClient {
	return c.taskStatuses
}

// AuditRecords implements fmc.Client.AuditRecords.
func (c *Client) AuditRecords() fmc.AuditRecordsClient {
	return c.auditRecords
}

// Logout revokes the session token and drops every table.
func (c *Client) Logout(ctx context.Context) error {
	c.tablesMu.Lock()
	if c.closed {
		c.tablesMu.Unlock()

		return nil
	}

	c.closed = true
	for _, table := range c.tables {
		table.Reset()
	}
	c.tablesMu.Unlock()

	err := c.tokenManager.Revoke(ctx)
	if err != nil {
		return fmt.Errorf("logging out of %s: %w", c.baseURL, err)
	}

	c.logger.Info("Logged out of FMC", map[string]interface{}{"url": c.baseURL})

	return nil
}

func (c *Client) checkOpen() error {
	c.tablesMu.Lock()
	defer c.tablesMu.Unlock()

	if c.closed {
		return fmc.ErrLoggedOut
	}

	return nil
}
