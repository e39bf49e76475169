// Package api provides a client for the Que cloud AC system endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"que_bridge/internal/request"
	"que_bridge/internal/schema"
	"que_bridge/internal/types"
)

const (
	systemsPath = "/api/v0/client/ac-systems"
	statusPath  = "/api/v0/client/ac-systems/status/latest"
	commandPath = "/api/v0/client/ac-systems/cmds/send"
)

var ErrSystemNotFound = errors.New("ac system not found")

// TokenSource makes sure the session tokens are usable before the first call.
type TokenSource interface {
	EnsureFresh(ctx context.Context) error
}

// APIClient handles requests for one AC system on the account.
type APIClient struct {
	baseURL   string
	serial    string
	system    types.System
	exec      *request.Executor
	tokens    TokenSource
	validator *schema.Validator
	logger    *slog.Logger
}

// NewAPIClient creates a client. exec must carry an Authenticator. serial may
// be empty when the account has a single system.
func NewAPIClient(exec *request.Executor, tokens TokenSource, validator *schema.Validator, baseURL, serial string, logger *slog.Logger) *APIClient {
	return &APIClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		serial:    strings.TrimSpace(serial),
		exec:      exec,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
	}
}

// Initialize obtains tokens and identifies the target system.
func (c *APIClient) Initialize(ctx context.Context) error {
	if err := c.tokens.EnsureFresh(ctx); err != nil {
		return fmt.Errorf("acquire tokens: %w", err)
	}

	systems, err := c.GetSystems(ctx)
	if err != nil {
		return fmt.Errorf("list systems: %w", err)
	}

	system, err := selectSystem(systems, c.serial)
	if err != nil {
		c.logger.Error("Could not identify target system", "serial", c.serial, "systems", len(systems))
		return err
	}

	c.system = system
	c.serial = system.Serial
	c.logger.Info("Located AC system", "serial", system.Serial, "id", system.ID)
	return nil
}

// Serial returns the serial of the selected system.
func (c *APIClient) Serial() string {
	return c.serial
}

// System returns the selected system.
func (c *APIClient) System() types.System {
	return c.system
}

func (c *APIClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.exec.Do(ctx, request.Request{
		Method:        method,
		URL:           u,
		JSON:          body,
		Authenticated: true,
	})
}

func (c *APIClient) serialQuery() url.Values {
	return url.Values{"serial": {c.serial}}
}

func (c *APIClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, path, query, nil)
}
