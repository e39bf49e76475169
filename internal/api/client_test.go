package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"que_bridge/internal/commands"
	"que_bridge/internal/request"
	"que_bridge/internal/schema"
	"que_bridge/internal/types"
)

type staticAuth struct {
	purges int32
}

func (a *staticAuth) BearerToken(context.Context) (string, error) { return "bearer", nil }
func (a *staticAuth) Reauthorize(context.Context) (string, error) { return "bearer", nil }
func (a *staticAuth) Purge(context.Context) error {
	atomic.AddInt32(&a.purges, 1)
	return nil
}

type staticTokens struct{ err error }

func (s staticTokens) EnsureFresh(context.Context) error { return s.err }

type fakeQue struct {
	systems string

	statusCode int
	statusBody []byte

	commandCode int
	commandBody string

	statusCalls int32
	lastCommand atomic.Value
}

func (f *fakeQue) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(systemsPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer bearer", r.Header.Get("Authorization"))
		w.Write([]byte(f.systems))
	})
	mux.HandleFunc(statusPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.statusCalls, 1)
		assert.Equal(t, "SER123", r.URL.Query().Get("serial"))
		if f.statusCode != 0 && f.statusCode != http.StatusOK {
			w.WriteHeader(f.statusCode)
			return
		}
		w.Write(f.statusBody)
	})
	mux.HandleFunc(commandPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "SER123", r.URL.Query().Get("serial"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		f.lastCommand.Store(string(body))
		if f.commandCode != 0 && f.commandCode != http.StatusOK {
			w.WriteHeader(f.commandCode)
			return
		}
		w.Write([]byte(f.commandBody))
	})
	return mux
}

func singleSystem(serial string) string {
	return `{"_embedded":{"ac-system":[{"serial":"` + serial + `","id":"1","description":"Home"}]}}`
}

func newTestClient(t *testing.T, que *fakeQue, serial string) (*APIClient, *staticAuth) {
	t.Helper()
	srv := httptest.NewServer(que.handler(t))
	t.Cleanup(srv.Close)
	return newClientFor(t, srv.URL, serial)
}

func newClientFor(t *testing.T, baseURL, serial string) (*APIClient, *staticAuth) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator, err := schema.New(logger)
	require.NoError(t, err)

	auth := &staticAuth{}
	exec := request.New(
		request.WithLogger(logger),
		request.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	).WithAuth(auth)

	return NewAPIClient(exec, staticTokens{}, validator, baseURL, serial, logger), auth
}

func loadStatus(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/status.json")
	require.NoError(t, err)
	return data
}

func TestInitialize_SingleSystem(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{systems: singleSystem("SER123")}, "")

	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, "SER123", c.Serial())
	assert.Equal(t, "Home", c.System().Description)
}

func TestInitialize_SerialAmongMany(t *testing.T) {
	que := &fakeQue{systems: `{"_embedded":{"ac-system":[{"serial":"AAA","id":"1"},{"serial":"SER123","id":"2"}]}}`}
	c, _ := newTestClient(t, que, "SER123")

	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, "2", c.System().ID)
}

func TestInitialize_AmbiguousWithoutSerial(t *testing.T) {
	que := &fakeQue{systems: `{"_embedded":{"ac-system":[{"serial":"AAA"},{"serial":"BBB"}]}}`}
	c, _ := newTestClient(t, que, "")

	assert.ErrorIs(t, c.Initialize(context.Background()), ErrSystemNotFound)
}

func TestInitialize_UnknownSerial(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{systems: singleSystem("AAA")}, "SER123")

	assert.ErrorIs(t, c.Initialize(context.Background()), ErrSystemNotFound)
}

func TestInitialize_NoSystems(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{systems: `{"_embedded":{"ac-system":[]}}`}, "")

	assert.ErrorIs(t, c.Initialize(context.Background()), ErrSystemNotFound)
}

func TestInitialize_TokenFailure(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{systems: singleSystem("SER123")}, "")
	c.tokens = staticTokens{err: request.ErrInvalidCredentials}

	err := c.Initialize(context.Background())
	assert.ErrorIs(t, err, request.ErrInvalidCredentials)
}

func TestGetStatus(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{statusBody: loadStatus(t)}, "SER123")

	status, err := c.GetStatus(context.Background())
	require.NoError(t, err)

	assert.False(t, status.APIError)
	assert.True(t, status.CloudConnected)
	assert.Equal(t, types.PowerOn, status.PowerState)
	assert.Equal(t, types.FanAutoCont, status.FanMode)
	require.Len(t, status.Zones, 2)
	assert.Equal(t, "Living", status.Zones[0].Name)
	assert.Equal(t, 1, status.Zones[0].Index)
	assert.Equal(t, "A1B2C3", status.Zones[0].SensorID)
}

func TestGetStatus_ServerErrorIsSoft(t *testing.T) {
	que := &fakeQue{statusCode: http.StatusBadGateway}
	c, auth := newTestClient(t, que, "SER123")

	status, err := c.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.APIError)
	assert.Equal(t, int32(request.DefaultServerAttempts), atomic.LoadInt32(&que.statusCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&auth.purges))
}

func TestGetStatus_InvalidPayloadIsSoft(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{statusBody: []byte(`{"isOnline":true}`)}, "SER123")

	status, err := c.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.APIError)
}

func TestGetStatus_UnreachableIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := newClientFor(t, url, "SER123")
	status, err := c.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.APIError)
}

func TestGetStatus_FatalIsReturned(t *testing.T) {
	c, auth := newTestClient(t, &fakeQue{statusCode: http.StatusForbidden}, "SER123")

	_, err := c.GetStatus(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, request.ErrUnhandledStatus)
	assert.Equal(t, int32(1), atomic.LoadInt32(&auth.purges))
}

func TestRunCommand_Ack(t *testing.T) {
	que := &fakeQue{commandBody: `{"type":"ack","correlationId":"abc","value":{"type":"set-settings"}}`}
	c, _ := newTestClient(t, que, "SER123")

	result, err := c.RunCommand(context.Background(), commands.CoolSetPoint, commands.Params{CoolSetpoint: 22.5})
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, result)

	var sent map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(que.lastCommand.Load().(string)), &sent))
	assert.Equal(t, 22.5, sent["command"][commands.PathCoolSetpoint])
	assert.Equal(t, "set-settings", sent["command"]["type"])
}

func TestRunCommand_NotAcked(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{commandBody: `{"type":"nack"}`}, "SER123")

	result, err := c.RunCommand(context.Background(), commands.On, commands.Params{})
	require.NoError(t, err)
	assert.Equal(t, ResultFailure, result)
}

func TestRunCommand_InvalidResponse(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{commandBody: `{"value":{}}`}, "SER123")

	result, err := c.RunCommand(context.Background(), commands.Off, commands.Params{})
	require.NoError(t, err)
	assert.Equal(t, ResultAPIError, result)
}

func TestRunCommand_ServerErrorIsUnreachable(t *testing.T) {
	c, _ := newTestClient(t, &fakeQue{commandCode: http.StatusServiceUnavailable}, "SER123")

	result, err := c.RunCommand(context.Background(), commands.Off, commands.Params{})
	require.NoError(t, err)
	assert.Equal(t, ResultCloudUnreachable, result)
}

func TestRunCommand_EncodeError(t *testing.T) {
	que := &fakeQue{}
	c, _ := newTestClient(t, que, "SER123")

	_, err := c.RunCommand(context.Background(), commands.ZoneEnable, commands.Params{ZoneIndex: 3})
	assert.Error(t, err)
	assert.Nil(t, que.lastCommand.Load())
}
