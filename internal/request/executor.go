// Package request executes vendor API calls, classifying each response and
// applying the bounded retry policy for authorization and server failures.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAuthRetries    = 3
	DefaultServerAttempts = 3
	DefaultRetryDelay     = 3 * time.Second
)

// Authenticator supplies bearer tokens to authenticated requests.
type Authenticator interface {
	BearerToken(ctx context.Context) (string, error)
	Reauthorize(ctx context.Context) (string, error)
	Purge(ctx context.Context) error
}

// Request describes one logical call. The HTTP request is rebuilt for every
// attempt so bodies and headers are never reused.
type Request struct {
	Method        string
	URL           string
	Form          url.Values
	JSON          any
	Authenticated bool
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Executor performs requests against the vendor cloud.
type Executor struct {
	httpClient     *http.Client
	auth           Authenticator
	logger         *slog.Logger
	sleep          Sleeper
	authRetries    int
	serverAttempts int
	retryDelay     time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) { e.httpClient = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithSleeper replaces the delay between server-error retries.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) { e.sleep = s }
}

// WithAuthRetries sets how many times a 401 triggers re-authorization before giving up.
func WithAuthRetries(n int) Option {
	return func(e *Executor) { e.authRetries = n }
}

// WithServerAttempts sets the total attempts allowed for 5xx and 429 responses.
func WithServerAttempts(n int) Option {
	return func(e *Executor) { e.serverAttempts = n }
}

func WithRetryDelay(d time.Duration) Option {
	return func(e *Executor) { e.retryDelay = d }
}

// New creates an Executor without an Authenticator.
func New(opts ...Option) *Executor {
	e := &Executor{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:         slog.Default(),
		sleep:          Sleep,
		authRetries:    DefaultAuthRetries,
		serverAttempts: DefaultServerAttempts,
		retryDelay:     DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.serverAttempts < 1 {
		e.serverAttempts = 1
	}
	return e
}

// WithAuth returns a copy of e that attaches bearer tokens from a.
func (e *Executor) WithAuth(a Authenticator) *Executor {
	c := *e
	c.auth = a
	return &c
}

// HTTPClient returns the underlying client.
func (e *Executor) HTTPClient() *http.Client {
	return e.httpClient
}

// Do performs r and returns the body of a 200 response.
func (e *Executor) Do(ctx context.Context, r Request) ([]byte, error) {
	var token string
	if r.Authenticated {
		if e.auth == nil {
			return nil, errors.New("authenticated request without authenticator")
		}
		t, err := e.auth.BearerToken(ctx)
		if err != nil {
			return nil, err
		}
		token = t
	}

	path := r.path()
	reauths := 0
	serverFailures := 0

	for {
		req, err := r.build(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		e.logger.Debug("API request", "method", r.Method, "path", path)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			requestOutcomes.WithLabelValues("network_error").Inc()
			e.logger.Warn("Request failed", "method", r.Method, "path", path, "error", err)
			return nil, fmt.Errorf("%s %s: %w: %w", r.Method, path, ErrCloudUnreachable, err)
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			requestOutcomes.WithLabelValues("network_error").Inc()
			return nil, fmt.Errorf("read body: %w: %w", ErrCloudUnreachable, err)
		}

		status := resp.StatusCode
		switch {
		case status == http.StatusOK:
			requestOutcomes.WithLabelValues("ok").Inc()
			e.logger.Debug("API response", "method", r.Method, "path", path, "bytes", len(data))
			return data, nil

		case status == http.StatusUnauthorized:
			requestOutcomes.WithLabelValues("unauthorized").Inc()
			if !r.Authenticated {
				e.logger.Warn("Request rejected", "method", r.Method, "path", path, "status", status)
				return nil, e.fail(r.Method, path, status, data, ErrInvalidCredentials)
			}
			if reauths >= e.authRetries {
				e.logger.Error("Authorization retries exhausted, purging tokens", "path", path, "attempts", reauths+1)
				e.purge(ctx)
				return nil, e.fail(r.Method, path, status, data, ErrAuthRetriesExhausted)
			}
			reauths++
			e.logger.Info("Bearer token rejected, re-authorizing", "path", path, "retry", reauths)
			token, err = e.auth.Reauthorize(ctx)
			if err != nil {
				return nil, err
			}

		case status == http.StatusBadRequest:
			requestOutcomes.WithLabelValues("bad_request").Inc()
			e.logger.Error("Request rejected as invalid, purging tokens", "method", r.Method, "path", path)
			e.purge(ctx)
			return nil, e.fail(r.Method, path, status, data, ErrInvalidCredentials)

		case status == http.StatusTooManyRequests || status >= 500:
			requestOutcomes.WithLabelValues("server_error").Inc()
			serverFailures++
			if serverFailures >= e.serverAttempts {
				e.logger.Warn("Server error budget exhausted", "method", r.Method, "path", path, "status", status, "attempts", serverFailures)
				return nil, e.fail(r.Method, path, status, data, ErrCloudUnreachable)
			}
			e.logger.Warn("Server error, retrying", "method", r.Method, "path", path, "status", status, "delay", e.retryDelay)
			if err := e.sleep(ctx, e.retryDelay); err != nil {
				return nil, err
			}

		default:
			requestOutcomes.WithLabelValues("unhandled").Inc()
			e.logger.Error("Unhandled response status, purging tokens", "method", r.Method, "path", path, "status", status)
			e.purge(ctx)
			return nil, e.fail(r.Method, path, status, data, ErrUnhandledStatus)
		}
	}
}

func (e *Executor) fail(method, path string, status int, body []byte, kind error) error {
	return fmt.Errorf("%s %s: %w", method, path, &StatusError{Status: status, Body: string(body), err: kind})
}

func (e *Executor) purge(ctx context.Context) {
	if e.auth == nil {
		return
	}
	if err := e.auth.Purge(ctx); err != nil {
		e.logger.Error("Failed to purge tokens", "error", err)
	}
}

func (r Request) path() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

func (r Request) build(ctx context.Context, token string) (*http.Request, error) {
	var body io.Reader
	contentType := ""
	switch {
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
