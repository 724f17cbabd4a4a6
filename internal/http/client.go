// Package http is the FMC transport: JSON requests over go-retryablehttp with
// the session token header, rate limiting and status classification.
package http

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

// TokenManager supplies the session token.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// Limiter gates every outgoing attempt.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client is an HTTP client for the FMC API.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager TokenManager
	logger       fmc.Logger
	debug        bool
	userAgent    string
}

// Request represents an HTTP request. Path is either relative to the base URL
// or an absolute URL such as a record's self link.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. retryablehttp's own messages go to it as well.
func WithLogger(logger fmc.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = leveledLogger{logger: logger}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets retry parameters.
func WithRetryConfig(retryMax int, retryWaitMin, retryWaitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = retryWaitMin
		c.httpClient.RetryWaitMax = retryWaitMax
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying *http.Client, usually one built by
// NewHTTPClient so that retries pass through the limiter.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// NewClient creates a new HTTP client.
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		logger:       fmc.NopLogger{},
		userAgent:    "fmc-client/1.0.0",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// NewHTTPClient builds the *http.Client shared by the transport and the token
// manager. Every attempt waits on limiter when it is non-nil.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool, limiter Limiter) *http.Client {
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- FMC appliances commonly use self-signed certificates
	}

	var transport http.RoundTripper = base
	if limiter != nil {
		transport = &limitedTransport{base: base, limiter: limiter}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

type limitedTransport struct {
	base    http.RoundTripper
	limiter Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	err := t.limiter.Wait(req.Context())
	if err != nil {
		return nil, err
	}

	return t.base.RoundTrip(req)
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ValidateMethod accepts the methods FMC supports.
func ValidateMethod(method string) error {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return nil
	default:
		return fmt.Errorf("%w: %s", fmc.ErrUnsupportedMethod, method)
	}
}

// Do performs an HTTP request. A 401 refreshes the session token once and
// repeats the request. Non-2xx responses are returned together with a
// *fmc.StatusError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	err := ValidateMethod(req.Method)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokenManager != nil {
		c.logger.Debug("Access token rejected, refreshing", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})

		refreshErr := c.tokenManager.RefreshToken(ctx)
		if refreshErr != nil {
			return resp, fmt.Errorf("refreshing access token: %w", refreshErr)
		}

		resp, err = c.do(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, c.statusError(req, resp)
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.resolveURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting access token: %w", err)
		}

		httpReq.Header.Set(constants.HeaderAccessToken, token)
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
			"body":   string(body),
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": httpResp.StatusCode,
			"body":   string(respBody),
		})
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}, nil
}

func (c *Client) resolveURL(path string, query url.Values) (string, error) {
	raw := path
	absolute := strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")

	if !absolute {
		raw = c.baseURL + path
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing URL %s: %w", raw, err)
	}

	// Paging and self links are followed with the session token attached.
	if absolute {
		base, err := url.Parse(c.baseURL)
		if err != nil {
			return "", fmt.Errorf("parsing base URL %s: %w", c.baseURL, err)
		}

		if !strings.EqualFold(parsed.Host, base.Host) || parsed.Scheme != base.Scheme {
			return "", fmt.Errorf("%w: %s", fmc.ErrForeignHost, raw)
		}
	}

	if len(query) == 0 {
		return raw, nil
	}

	values := parsed.Query()
	for k, vs := range query {
		values.Del(k)

		for _, v := range vs {
			values.Add(k, v)
		}
	}

	parsed.RawQuery = values.Encode()

	return parsed.String(), nil
}

// statusError builds a StatusError from an FMC error body:
// {"error":{"messages":[{"description":"..."}]}}.
func (c *Client) statusError(req *Request, resp *Response) error {
	statusErr := &fmc.StatusError{
		StatusCode: resp.StatusCode,
		Method:     req.Method,
		URL:        req.Path,
	}

	if gjson.ValidBytes(resp.Body) {
		for _, msg := range gjson.GetBytes(resp.Body, "error.messages.#.description").Array() {
			if msg.String() != "" {
				statusErr.Messages = append(statusErr.Messages, msg.String())
			}
		}
	}

	return statusErr
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

// leveledLogger forwards retryablehttp messages to an fmc.Logger.
type leveledLogger struct {
	logger fmc.Logger
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return out
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues))
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues))
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}

var _ retryablehttp.LeveledLogger = leveledLogger{}
