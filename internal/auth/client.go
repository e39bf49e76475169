package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"que_bridge/internal/request"
	"que_bridge/internal/schema"
	"que_bridge/internal/store"
	"que_bridge/internal/types"
)

// Que cloud token endpoints
const (
	DefaultBaseURL = "https://que.actronair.com.au"

	pairingPath = "/api/v0/client/user-devices"
	tokenPath   = "/api/v0/oauth/token"

	clientID      = "app"
	pairingClient = "ios"

	// Bearer tokens are treated as expired slightly before the server says so.
	expirySafety = 300 * time.Millisecond
)

var errTokenRejected = errors.New("refresh token rejected")

// Credentials holds the account login.
type Credentials struct {
	Username string
	Password string
}

// AuthClient performs the pairing and bearer token calls.
type AuthClient struct {
	exec           *request.Executor
	validator      *schema.Validator
	oauth          *oauth2.Config
	baseURL        string
	logger         *slog.Logger
	sleep          request.Sleeper
	serverAttempts int
	retryDelay     time.Duration
}

// NewAuthClient creates a client for the token endpoints under baseURL.
// exec must not carry an Authenticator.
func NewAuthClient(exec *request.Executor, validator *schema.Validator, baseURL string, logger *slog.Logger) *AuthClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &AuthClient{
		exec:      exec,
		validator: validator,
		oauth: &oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		baseURL:        baseURL,
		logger:         logger,
		sleep:          request.Sleep,
		serverAttempts: request.DefaultServerAttempts,
		retryDelay:     request.DefaultRetryDelay,
	}
}

// Pair registers this client with the account and returns the pairing
// token, which acts as the long-lived refresh token.
func (a *AuthClient) Pair(ctx context.Context, creds Credentials, id store.Identity) (store.Token, error) {
	a.logger.Debug("Requesting pairing token", "username", creds.Username, "device", id.Name)

	form := url.Values{
		"username":               {creds.Username},
		"password":               {creds.Password},
		"deviceName":             {id.Name},
		"deviceUniqueIdentifier": {id.ID},
		"client":                 {pairingClient},
	}
	data, err := a.exec.Do(ctx, request.Request{
		Method: http.MethodPost,
		URL:    a.baseURL + pairingPath,
		Form:   form,
	})
	if err != nil {
		return store.Token{}, fmt.Errorf("pair: %w", err)
	}

	if err := a.validator.Validate(schema.Pairing, data); err != nil {
		return store.Token{}, fmt.Errorf("pair: %w: %w", request.ErrCloudUnreachable, err)
	}

	var resp types.PairingResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return store.Token{}, fmt.Errorf("unmarshal pairing response: %w: %w", request.ErrCloudUnreachable, err)
	}

	expires, err := time.Parse(time.RFC3339, resp.Expires)
	if err != nil {
		return store.Token{}, fmt.Errorf("parse pairing expiry: %w: %w", request.ErrCloudUnreachable, err)
	}

	return store.Token{Expires: expires.UnixMilli(), Token: resp.PairingToken}, nil
}

// Exchange trades a refresh token for a bearer token. A rejected refresh
// token is reported as errTokenRejected.
func (a *AuthClient) Exchange(ctx context.Context, refreshToken string, now func() time.Time) (store.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.exec.HTTPClient())

	for attempt := 1; ; attempt++ {
		source := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		tok, err := source.Token()
		if err == nil {
			issued := now()
			expires := issued.Add(expiresIn(tok, issued)).Add(-expirySafety)
			return store.Token{Expires: expires.UnixMilli(), Token: tok.AccessToken}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return store.Token{}, ctxErr
		}

		var retrieveErr *oauth2.RetrieveError
		if !errors.As(err, &retrieveErr) || retrieveErr.Response == nil {
			a.logger.Warn("Bearer token request failed", "error", err)
			return store.Token{}, fmt.Errorf("bearer exchange: %w: %w", request.ErrCloudUnreachable, err)
		}

		code := retrieveErr.Response.StatusCode
		body := strings.TrimSpace(string(retrieveErr.Body))
		switch {
		case code == http.StatusBadRequest || code == http.StatusUnauthorized:
			a.logger.Warn("Refresh token rejected", "status", code)
			return store.Token{}, errTokenRejected
		case code == http.StatusTooManyRequests || code >= 500:
			if attempt >= a.serverAttempts {
				return store.Token{}, fmt.Errorf("bearer exchange: %w (status %d)", request.ErrCloudUnreachable, code)
			}
			a.logger.Warn("Bearer token server error, retrying", "status", code, "delay", a.retryDelay)
			if err := a.sleep(ctx, a.retryDelay); err != nil {
				return store.Token{}, err
			}
		default:
			return store.Token{}, fmt.Errorf("bearer exchange %d: %s: %w", code, body, request.ErrUnhandledStatus)
		}
	}
}

// expiresIn reads the lifetime reported by the token endpoint.
func expiresIn(tok *oauth2.Token, now time.Time) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v * float64(time.Second))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(now)
	}
	return 0
}
