// Package auth manages the pairing and bearer tokens used against the Que cloud.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"que_bridge/internal/request"
	"que_bridge/internal/schema"
	"que_bridge/internal/store"
)

// Manager keeps the refresh and bearer tokens fresh and persisted. It
// implements request.Authenticator.
type Manager struct {
	client     *AuthClient
	store      *store.Store
	creds      Credentials
	clientName string
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	loaded   bool
	identity store.Identity
	refresh  store.Token
	bearer   store.Token
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSleeper replaces the delay between token endpoint retries.
func WithSleeper(s request.Sleeper) Option {
	return func(m *Manager) { m.client.sleep = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
		m.client.logger = l
	}
}

// NewManager creates a Manager. exec is the unauthenticated executor used for
// the token endpoints under baseURL.
func NewManager(exec *request.Executor, validator *schema.Validator, st *store.Store, creds Credentials, clientName, baseURL string, opts ...Option) *Manager {
	m := &Manager{
		client:     NewAuthClient(exec, validator, baseURL, slog.Default()),
		store:      st,
		creds:      creds,
		clientName: clientName,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureFresh makes both tokens valid, pairing and exchanging as needed.
// It is a no-op when both are already valid.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureFresh(ctx)
}

// BearerToken returns a valid bearer token.
func (m *Manager) BearerToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureFresh(ctx); err != nil {
		return "", err
	}
	return m.bearer.Token, nil
}

// Reauthorize discards the bearer token and obtains a new one.
func (m *Manager) Reauthorize(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.load(ctx); err != nil {
		return "", err
	}
	m.bearer = store.Token{}
	if err := m.store.SaveToken(ctx, store.BearerToken, m.bearer); err != nil {
		return "", err
	}
	if err := m.ensureFresh(ctx); err != nil {
		return "", err
	}
	return m.bearer.Token, nil
}

// Purge discards both tokens.
func (m *Manager) Purge(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purge(ctx)
}

func (m *Manager) purge(ctx context.Context) error {
	m.refresh = store.Token{}
	m.bearer = store.Token{}
	tokenValid.Set(0)
	return m.store.Purge(ctx)
}

func (m *Manager) load(ctx context.Context) error {
	if m.loaded {
		return nil
	}

	id, err := m.store.LoadOrInitIdentity(ctx, m.clientName)
	if err != nil {
		return err
	}
	refresh, err := m.store.LoadOrInitToken(ctx, store.RefreshToken)
	if err != nil {
		return err
	}
	bearer, err := m.store.LoadOrInitToken(ctx, store.BearerToken)
	if err != nil {
		return err
	}

	m.identity = id
	m.refresh = refresh
	m.bearer = bearer
	m.loaded = true
	return nil
}

func (m *Manager) ensureFresh(ctx context.Context) error {
	if err := m.load(ctx); err != nil {
		return err
	}

	now := m.now()
	switch {
	case !m.refresh.Valid(now):
		m.logger.Info("Refresh token missing or expired, pairing")
		if err := m.pair(ctx); err != nil {
			return err
		}
		return m.exchange(ctx, false)
	case !m.bearer.Valid(now):
		m.logger.Debug("Bearer token missing or expired, exchanging refresh token")
		return m.exchange(ctx, true)
	default:
		tokenValid.Set(1)
		return nil
	}
}

func (m *Manager) pair(ctx context.Context) error {
	tok, err := m.client.Pair(ctx, m.creds, m.identity)
	if err != nil {
		tokenRefreshFailure.WithLabelValues(string(store.RefreshToken)).Inc()
		if request.IsFatal(err) {
			m.logger.Error("Pairing rejected, purging tokens", "error", err)
			if perr := m.purge(ctx); perr != nil {
				m.logger.Error("Failed to purge tokens", "error", perr)
			}
		}
		return err
	}

	m.refresh = tok
	if err := m.store.SaveToken(ctx, store.RefreshToken, tok); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	tokenRefreshSuccess.WithLabelValues(string(store.RefreshToken)).Inc()
	m.logger.Info("Paired with cloud", "device", m.identity.Name,
		"expires", time.UnixMilli(tok.Expires).UTC().Format(time.RFC3339))
	return nil
}

// exchange obtains a bearer token. When repair is set a rejected refresh
// token is discarded and pairing is attempted once more.
func (m *Manager) exchange(ctx context.Context, repair bool) error {
	tok, err := m.client.Exchange(ctx, m.refresh.Token, m.now)
	if errors.Is(err, errTokenRejected) {
		tokenRefreshFailure.WithLabelValues(string(store.BearerToken)).Inc()
		if !repair {
			m.logger.Error("Bearer token refused for fresh pairing, purging tokens")
			if perr := m.purge(ctx); perr != nil {
				m.logger.Error("Failed to purge tokens", "error", perr)
			}
			return fmt.Errorf("bearer exchange: %w", request.ErrInvalidCredentials)
		}

		m.logger.Warn("Refresh token rejected, pairing again")
		m.refresh = store.Token{}
		if err := m.store.SaveToken(ctx, store.RefreshToken, m.refresh); err != nil {
			return err
		}
		if err := m.pair(ctx); err != nil {
			return err
		}
		return m.exchange(ctx, false)
	}
	if err != nil {
		tokenRefreshFailure.WithLabelValues(string(store.BearerToken)).Inc()
		if request.IsFatal(err) {
			if perr := m.purge(ctx); perr != nil {
				m.logger.Error("Failed to purge tokens", "error", perr)
			}
		}
		return err
	}

	m.bearer = tok
	if err := m.store.SaveToken(ctx, store.BearerToken, tok); err != nil {
		return fmt.Errorf("persist bearer token: %w", err)
	}
	tokenRefreshSuccess.WithLabelValues(string(store.BearerToken)).Inc()
	tokenValid.Set(1)
	m.logger.Info("Bearer token refreshed",
		"expires_in", time.UnixMilli(tok.Expires).Sub(m.now()).Round(time.Second))
	return nil
}
