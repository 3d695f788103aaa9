package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const bearerPrefix = "Bearer "

// TokenSource provides the credential attached to outgoing requests.
// An empty token means "not authenticated": the header is omitted.
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler is notified when a protected request comes back 401
type UnauthorizedHandler interface {
	HandleUnauthorized()
}

// APIError is a non-2xx response from the finance API
type APIError struct {
	StatusCode int
	Message    string // value of the body's "error" field, may be empty
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Client represents an HTTP client for the finance API.
//
// Requests to the auth endpoints go through the public client. Every other request goes
// through the protected client, which has the bearer and 401 interceptors registered.
type Client struct {
	baseURL   string
	public    *resty.Client
	protected *resty.Client
	logger    zerolog.Logger
}

// Options configures a Client
type Options struct {
	Timeout      time.Duration
	Tokens       TokenSource
	Unauthorized UnauthorizedHandler
	Logger       zerolog.Logger
	// HTTPClient replaces the underlying transport client (tests)
	HTTPClient *http.Client
}

// New creates a new API client
func New(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	newResty := func() *resty.Client {
		var rc *resty.Client
		if opts.HTTPClient != nil {
			rc = resty.NewWithClient(opts.HTTPClient)
		} else {
			rc = resty.New()
		}
		return rc.
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json")
	}

	c := &Client{
		baseURL:   baseURL,
		public:    newResty(),
		protected: newResty(),
		logger:    opts.Logger,
	}

	c.protected.OnBeforeRequest(attachBearer(opts.Tokens))
	c.protected.OnAfterResponse(observeUnauthorized(opts.Unauthorized, c.logger))

	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// attachBearer sets the Authorization header from the current token.
// No token is a normal unauthenticated state, not an error.
func attachBearer(tokens TokenSource) resty.RequestMiddleware {
	return func(_ *resty.Client, r *resty.Request) error {
		r.Header.Del("Authorization")
		if tokens == nil {
			return nil
		}
		if token := tokens.Token(); token != "" {
			r.SetHeader("Authorization", bearerPrefix+token)
		}
		return nil
	}
}

// observeUnauthorized reports a server-confirmed 401 to the session owner
func observeUnauthorized(handler UnauthorizedHandler, log zerolog.Logger) resty.ResponseMiddleware {
	return func(_ *resty.Client, resp *resty.Response) error {
		if resp.StatusCode() != http.StatusUnauthorized {
			return nil
		}
		log.Warn().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Msg("API rejected credentials, clearing session")
		if handler != nil {
			handler.HandleUnauthorized()
		}
		return nil
	}
}

// do executes req and decodes a 2xx JSON body into out (if non-nil)
func (c *Client) do(ctx context.Context, req *resty.Request, method, path string, out any) error {
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Msg("API request")

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Message:    gjson.GetBytes(resp.Body(), "error").String(),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	req := c.protected.R()
	for key, val := range params {
		if val != "" {
			req.SetQueryParam(key, val)
		}
	}
	return c.do(ctx, req, http.MethodGet, path, out)
}
