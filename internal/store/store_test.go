package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBlob struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemBlob() *memBlob {
	return &memBlob{files: map[string][]byte{}}
}

func (m *memBlob) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return data, nil
}

func (m *memBlob) Save(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "persist")

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpen_EmptyDir(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestLoadOrInitToken_WritesZeroRecord(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	tok, err := s.LoadOrInitToken(ctx, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, Token{}, tok)

	data, err := os.ReadFile(filepath.Join(s.Dir(), refreshFile))
	require.NoError(t, err)
	var onDisk Token
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, int64(0), onDisk.Expires)
	assert.Equal(t, "", onDisk.Token)

	info, err := os.Stat(filepath.Join(s.Dir(), refreshFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveToken_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	want := Token{Expires: 1700000000000, Token: "bearer-abc"}
	require.NoError(t, s.SaveToken(ctx, BearerToken, want))

	got, err := s.LoadOrInitToken(ctx, BearerToken)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	refresh, err := s.LoadOrInitToken(ctx, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, Token{}, refresh)
}

func TestLoadOrInitToken_Malformed(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), bearerFile), []byte("{not json"), 0o600))

	_, err = s.LoadOrInitToken(ctx, BearerToken)
	assert.Error(t, err)
}

func TestPurge_ZeroesBothTokens(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.SaveToken(ctx, RefreshToken, Token{Expires: 99, Token: "r"}))
	require.NoError(t, s.SaveToken(ctx, BearerToken, Token{Expires: 99, Token: "b"}))

	require.NoError(t, s.Purge(ctx))

	for _, kind := range []TokenKind{RefreshToken, BearerToken} {
		tok, err := s.LoadOrInitToken(ctx, kind)
		require.NoError(t, err)
		assert.Equal(t, Token{}, tok, kind)
	}
}

func TestTokenValid(t *testing.T) {
	now := time.UnixMilli(1_000_000)

	assert.False(t, Token{}.Valid(now))
	assert.False(t, Token{Expires: 1_000_000, Token: "x"}.Valid(now))
	assert.False(t, Token{Expires: 2_000_000}.Valid(now))
	assert.True(t, Token{Expires: 1_000_001, Token: "x"}.Valid(now))
}

func TestLoadOrInitIdentity_StablePerName(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	first, err := s.LoadOrInitIdentity(ctx, "homebridge")
	require.NoError(t, err)
	assert.Equal(t, "homebridge", first.Name)
	assert.True(t, strings.HasPrefix(first.ID, "homebridge-"))

	again, err := s.LoadOrInitIdentity(ctx, "homebridge")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	other, err := s.LoadOrInitIdentity(ctx, "garage")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	data, err := os.ReadFile(filepath.Join(s.Dir(), identityFile))
	require.NoError(t, err)
	var list []Identity
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Len(t, list, 2)
}

func TestLoadOrInitIdentity_EmptyName(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = s.LoadOrInitIdentity(context.Background(), "")
	assert.Error(t, err)
}

func TestBlobMirror_SaveAndRestore(t *testing.T) {
	ctx := context.Background()
	blob := newMemBlob()

	s, err := Open(t.TempDir(), WithBlobStore(blob))
	require.NoError(t, err)
	want := Token{Expires: 42, Token: "pairing"}
	require.NoError(t, s.SaveToken(ctx, RefreshToken, want))
	assert.Contains(t, blob.files, refreshFile)

	// A fresh directory recovers the record from the mirror.
	restored, err := Open(t.TempDir(), WithBlobStore(blob))
	require.NoError(t, err)
	got, err := restored.LoadOrInitToken(ctx, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(filepath.Join(restored.Dir(), refreshFile))
	assert.NoError(t, err)
}

func TestParseEndpoint(t *testing.T) {
	host, secure, err := parseEndpoint("http://minio.local:9000")
	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000", host)
	assert.False(t, secure)

	host, secure, err = parseEndpoint("s3.amazonaws.com")
	require.NoError(t, err)
	assert.Equal(t, "s3.amazonaws.com", host)
	assert.True(t, secure)

	_, _, err = parseEndpoint("https://")
	assert.Error(t, err)
}
