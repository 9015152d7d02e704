package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zeusync/robonav/internal/core/engine"
	"github.com/zeusync/robonav/internal/core/level"
	"github.com/zeusync/robonav/internal/core/observability/log"
)

type envelope struct {
	Type string `json:"type"`
	raw  []byte
}

func newTestServer(t *testing.T, cfg Config) (*Server, *engine.Engine, *httptest.Server) {
	t.Helper()
	e, err := engine.New(engine.WithSeed(42))
	require.NoError(t, err)
	srv, err := New(e, cfg, log.NewNop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, e, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	env.raw = data
	return env
}

// readUntil skips messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, into any) {
	t.Helper()
	for i := 0; i < 50; i++ {
		env := read(t, conn)
		if env.Type == typ {
			require.NoError(t, json.Unmarshal(env.raw, into))
			return
		}
	}
	t.Fatalf("no %s message received", typ)
}

func TestSession_GreetingAndTarget(t *testing.T) {
	_, e, ts := newTestServer(t, DefaultConfig())
	conn := dial(t, ts)

	var state StateMessage
	readUntil(t, conn, TypeState, &state)
	assert.Equal(t, engine.DefaultSpawn, state.Pose.Position)
	assert.False(t, state.ObstacleMode)

	require.NoError(t, conn.WriteJSON(Command{Action: ActionSetTarget, X: 10, Y: 2}))
	readUntil(t, conn, TypeState, &state)
	assert.Equal(t, 10.0, state.Target.X)
	assert.Equal(t, 2.0, state.Target.Y)

	require.True(t, e.Update(10))
	readUntil(t, conn, TypeState, &state)
	assert.InDelta(t, 3.0, state.Pose.Position.X, 1e-9)
	assert.Equal(t, uint64(1), state.Tick)
}

func TestSession_ObstacleModeSendsField(t *testing.T) {
	_, e, ts := newTestServer(t, DefaultConfig())
	conn := dial(t, ts)
	var state StateMessage
	readUntil(t, conn, TypeState, &state)

	require.NoError(t, conn.WriteJSON(Command{Action: ActionObstacleMode, Enabled: true}))
	var field FieldMessage
	readUntil(t, conn, TypeField, &field)
	assert.True(t, field.Present)
	assert.Equal(t, 50, field.Width)
	assert.Equal(t, 50, field.Height)
	require.Len(t, field.Rows, 50)
	assert.Equal(t, strings.Repeat("#", 50), field.Rows[0])
	assert.Equal(t, byte('.'), field.Rows[2][2], "spawn cell is free")
	assert.Equal(t, level.FormatFingerprint(e.Fingerprint()), field.Fingerprint)

	// A late joiner gets the field with its greeting.
	late := dial(t, ts)
	var lateField FieldMessage
	readUntil(t, late, TypeField, &lateField)
	assert.Equal(t, field.Fingerprint, lateField.Fingerprint)

	require.NoError(t, conn.WriteJSON(Command{Action: ActionReset}))
	var cleared FieldMessage
	readUntil(t, conn, TypeField, &cleared)
	assert.False(t, cleared.Present)
	assert.Empty(t, cleared.Rows)
	assert.Zero(t, cleared.Width)
}

func TestSession_Errors(t *testing.T) {
	_, _, ts := newTestServer(t, DefaultConfig())
	conn := dial(t, ts)
	var state StateMessage
	readUntil(t, conn, TypeState, &state)

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"unknown action", `{"action":"fly"}`, ErrUnknownAction.Error()},
		{"unknown movement", `{"action":"movement","name":"warp"}`, "unknown movement strategy"},
		{"not json", `{"action":`, ErrInvalidMessage.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)))
			var msg ErrorMessage
			readUntil(t, conn, TypeError, &msg)
			assert.Contains(t, msg.Error, tt.want)
		})
	}
}

func TestSession_RateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommandRate = 0.001
	cfg.CommandBurst = 2
	_, _, ts := newTestServer(t, cfg)
	conn := dial(t, ts)

	for i := 0; i < 3; i++ {
		require.NoError(t, conn.WriteJSON(Command{Action: ActionSetTarget, X: float64(5 + i), Y: 5}))
	}
	var msg ErrorMessage
	readUntil(t, conn, TypeError, &msg)
	assert.Equal(t, ActionSetTarget, msg.Action)
	assert.Equal(t, ErrRateLimited.Error(), msg.Error)
}

func TestServer_RegisterAfterClose(t *testing.T) {
	srv, _, _ := newTestServer(t, DefaultConfig())

	before := newSession(srv, nil)
	total, ok := srv.register(before)
	require.True(t, ok)
	assert.Equal(t, 1, total)
	assert.Zero(t, srv.unregister(before))

	// Close finds no sessions; one upgraded concurrently must not slip in.
	srv.Close()
	_, ok = srv.register(newSession(srv, nil))
	assert.False(t, ok)
	assert.Zero(t, srv.Sessions())
}

func TestHealthz(t *testing.T) {
	srv, _, ts := newTestServer(t, DefaultConfig())
	conn := dial(t, ts)
	var state StateMessage
	readUntil(t, conn, TypeState, &state)
	require.Eventually(t, func() bool { return srv.Sessions() == 1 }, time.Second, 5*time.Millisecond)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy","connections":1}`, string(body))
}

func TestServe_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	e, err := engine.New()
	require.NoError(t, err)
	srv, err := New(e, DefaultConfig(), log.NewNop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Sessions() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err = <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	require.Eventually(t, func() bool { return srv.Sessions() == 0 }, time.Second, 5*time.Millisecond)

	// The client sees the connection end.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}

	err = srv.Serve(context.Background(), mustListen(t))
	assert.ErrorIs(t, err, ErrServerClosed)
}

func mustListen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}
