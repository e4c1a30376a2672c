package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lox/baccarat/internal/session"
	"github.com/lox/baccarat/internal/simulator"
)

func startTestServer(t *testing.T, cfg session.Config) (*Server, *httptest.Server) {
	t.Helper()

	if cfg.Simulation.BatchSize == 0 {
		cfg.Simulation = simulator.Config{BatchSize: 10_000, Workers: 2, Seed: 3}
	}
	srv := NewServer(Options{
		Session: cfg,
		Clock:   quartz.NewMock(t),
		Seed:    11,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, messageType MessageType, data any) {
	t.Helper()

	msg, err := NewMessage(messageType, data, time.Now())
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// readMessage returns the next message, failing after a few seconds
func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// expect reads the next message, requires its type and decodes its data
func expect[T any](t *testing.T, conn *websocket.Conn, messageType MessageType) T {
	t.Helper()

	msg := readMessage(t, conn)
	require.Equal(t, messageType, msg.Type, "payload: %s", msg.Data)

	var data T
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data
}
