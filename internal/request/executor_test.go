package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	token   string
	reauths int
	purges  int
}

func (f *fakeAuth) BearerToken(context.Context) (string, error) {
	return f.token, nil
}

func (f *fakeAuth) Reauthorize(context.Context) (string, error) {
	f.reauths++
	f.token = fmt.Sprintf("token-%d", f.reauths)
	return f.token, nil
}

func (f *fakeAuth) Purge(context.Context) error {
	f.purges++
	return nil
}

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(sl *recordingSleeper) *Executor {
	return New(WithLogger(quietLogger()), WithSleeper(sl.sleep))
}

func TestDo_OK(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	auth := &fakeAuth{token: "abc"}
	e := newTestExecutor(&recordingSleeper{}).WithAuth(auth)

	body, err := e.Do(context.Background(), Request{
		Method:        http.MethodPost,
		URL:           srv.URL + "/cmds",
		JSON:          map[string]any{"command": map[string]any{"type": "set-settings"}},
		Authenticated: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestDo_FormBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	e := newTestExecutor(&recordingSleeper{})
	_, err := e.Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Form:   url.Values{"username": {"alice"}},
	})
	require.NoError(t, err)
}

func TestDo_UnauthorizedRetriesThenPurges(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	auth := &fakeAuth{token: "stale"}
	e := newTestExecutor(&recordingSleeper{}).WithAuth(auth)

	_, err := e.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Authenticated: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthRetriesExhausted)
	assert.True(t, IsFatal(err))

	assert.Equal(t, int32(1+DefaultAuthRetries), atomic.LoadInt32(&calls))
	assert.Equal(t, DefaultAuthRetries, auth.reauths)
	assert.Equal(t, 1, auth.purges)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Equal(t, "GET /: authorization retries exhausted (status 401)", err.Error())
}

func TestDo_UnauthorizedRecoversAfterReauth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	auth := &fakeAuth{token: "expired"}
	e := newTestExecutor(&recordingSleeper{}).WithAuth(auth)

	_, err := e.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Authenticated: true})
	require.NoError(t, err)
	assert.Equal(t, 1, auth.reauths)
	assert.Equal(t, 0, auth.purges)
}

func TestDo_ServerErrorsBelowBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= DefaultServerAttempts-1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	sl := &recordingSleeper{}
	e := newTestExecutor(sl)

	_, err := e.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, int32(DefaultServerAttempts), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultRetryDelay}, sl.delays)
}

func TestDo_ServerErrorsExhaustBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	auth := &fakeAuth{token: "t"}
	e := newTestExecutor(&recordingSleeper{}).WithAuth(auth)

	_, err := e.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Authenticated: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCloudUnreachable)
	assert.True(t, IsRecoverable(err))
	assert.False(t, IsFatal(err))
	assert.Equal(t, int32(DefaultServerAttempts), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, auth.purges)
}

func TestDo_TooManyRequestsIsRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestExecutor(&recordingSleeper{}).Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_BadRequestPurges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	auth := &fakeAuth{token: "t"}
	e := newTestExecutor(&recordingSleeper{}).WithAuth(auth)

	_, err := e.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Authenticated: true})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, auth.purges)
}

func TestDo_UnhandledStatusPurges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	auth := &fakeAuth{token: "t"}
	e := newTestExecutor(&recordingSleeper{}).WithAuth(auth)

	_, err := e.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Authenticated: true})
	assert.ErrorIs(t, err, ErrUnhandledStatus)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, auth.purges)
}

func TestDo_UnauthenticatedRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestExecutor(&recordingSleeper{}).Do(context.Background(), Request{Method: http.MethodPost, URL: srv.URL})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDo_NetworkFailureIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newTestExecutor(&recordingSleeper{}).Do(context.Background(), Request{Method: http.MethodGet, URL: addr})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCloudUnreachable)
}

func TestDo_AuthenticatedWithoutAuthenticator(t *testing.T) {
	_, err := newTestExecutor(&recordingSleeper{}).Do(context.Background(), Request{
		Method:        http.MethodGet,
		URL:           "http://127.0.0.1:1",
		Authenticated: true,
	})
	assert.Error(t, err)
}

func TestSleep_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
