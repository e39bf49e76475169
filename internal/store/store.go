// Package store persists the client identity and token records on local disk,
// optionally mirroring them to object storage.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	identityFile = "clientid.json"
	refreshFile  = "refresh_token.json"
	bearerFile   = "bearer_token.json"
)

// TokenKind selects one of the two persisted token records.
type TokenKind string

const (
	RefreshToken TokenKind = "refresh_token"
	BearerToken  TokenKind = "bearer_token"
)

func (k TokenKind) file() string {
	if k == BearerToken {
		return bearerFile
	}
	return refreshFile
}

// Token is a persisted credential. Expires is epoch milliseconds; the zero
// value means no token.
type Token struct {
	Expires int64  `json:"expires"`
	Token   string `json:"token"`
}

// Valid reports whether the token is present and not yet expired.
func (t Token) Valid(now time.Time) bool {
	return t.Token != "" && t.Expires > now.UnixMilli()
}

// Identity is one client registration. The ID is generated once per name and
// sent as the device unique identifier when pairing.
type Identity struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Store reads and writes the credential records in a persistence directory.
type Store struct {
	dir    string
	blob   BlobStore
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithBlobStore mirrors every write to b and consults it when a local file is missing.
func WithBlobStore(b BlobStore) Option {
	return func(s *Store) { s.blob = b }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open prepares dir for use, creating it if needed.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("persistence directory is required")
	}
	s := &Store{dir: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir persistence dir: %w", err)
	}
	return s, nil
}

// Dir returns the persistence directory.
func (s *Store) Dir() string {
	return s.dir
}

// LoadOrInitToken returns the stored token of the given kind. A missing record
// is initialised to the zero token; only malformed content is an error.
func (s *Store) LoadOrInitToken(ctx context.Context, kind TokenKind) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(ctx, kind.file())
	if errors.Is(err, os.ErrNotExist) {
		var tok Token
		if err := s.writeJSON(ctx, kind.file(), tok); err != nil {
			return Token{}, err
		}
		return tok, nil
	}
	if err != nil {
		return Token{}, err
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return Token{}, fmt.Errorf("decode %s: %w", kind, err)
	}
	return tok, nil
}

// SaveToken replaces the stored token of the given kind.
func (s *Store) SaveToken(ctx context.Context, kind TokenKind, tok Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(ctx, kind.file(), tok)
}

// Purge resets both token records to the zero token.
func (s *Store) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kind := range []TokenKind{RefreshToken, BearerToken} {
		if err := s.writeJSON(ctx, kind.file(), Token{}); err != nil {
			return err
		}
	}
	s.logger.Warn("Stored tokens purged")
	return nil
}

// LoadOrInitIdentity returns the registration for name, creating one with a
// fresh identifier if none exists yet.
func (s *Store) LoadOrInitIdentity(ctx context.Context, name string) (Identity, error) {
	if name == "" {
		return Identity{}, errors.New("client name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var list []Identity
	data, err := s.read(ctx, identityFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Identity{}, err
	default:
		if err := json.Unmarshal(data, &list); err != nil {
			return Identity{}, fmt.Errorf("decode client identity: %w", err)
		}
	}

	for _, id := range list {
		if id.Name == name {
			return id, nil
		}
	}

	id := Identity{Name: name, ID: name + "-" + uuid.NewString()}
	list = append(list, id)
	if err := s.writeJSON(ctx, identityFile, list); err != nil {
		return Identity{}, err
	}
	s.logger.Info("Registered new client identity", "name", name)
	return id, nil
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if s.blob == nil {
		return nil, os.ErrNotExist
	}

	data, err = s.blob.Load(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			s.logger.Warn("Blob mirror load failed", "file", name, "error", err)
		}
		return nil, os.ErrNotExist
	}
	s.logger.Info("Restored record from blob mirror", "file", name)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) writeJSON(ctx context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if s.blob != nil {
		if err := s.blob.Save(ctx, name, data); err != nil {
			s.logger.Warn("Blob mirror save failed", "file", name, "error", err)
		}
	}
	return nil
}
