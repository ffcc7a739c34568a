package logstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creative280/proyecto-fs-servicios/internal/accesslog"
	"github.com/creative280/proyecto-fs-servicios/internal/testutil"
)

func startHub(t *testing.T, opts ...Option) (*Hub, *httptest.Server) {
	t.Helper()

	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	h := NewHub(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func historyLen(h *Hub) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.historyCount
}

func lastHistoryURL(h *Hub) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.historyCount == 0 {
		return ""
	}
	last := h.history[(h.historyIndex-1+len(h.history))%len(h.history)]
	if last.Record == nil {
		return ""
	}
	return last.Record.URL
}

func TestHub_BroadcastsRecordedEvents(t *testing.T) {
	h, srv := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Recorded(accesslog.Record{
		Timestamp: "2026-10-19T08:00:00.000Z",
		Method:    "POST",
		URL:       "/archivos/escribir",
		Extra:     "127.0.0.1",
	})

	ev := readEvent(t, conn)
	assert.Equal(t, EventRecorded, ev.Type)
	assert.Equal(t, "2026-10-19T08:00:00.000Z", ev.Timestamp)
	require.NotNil(t, ev.Record)
	assert.Equal(t, "POST", ev.Record.Method)
	assert.Equal(t, "/archivos/escribir", ev.Record.URL)
	assert.Empty(t, ev.Error)
}

func TestHub_ReplaysHistoryToNewClients(t *testing.T) {
	h, srv := startHub(t, WithHistory(2))

	for _, url := range []string{"/one", "/two", "/three"} {
		h.Recorded(accesslog.Record{Method: "GET", URL: url})
	}
	require.Eventually(t, func() bool { return lastHistoryURL(h) == "/three" }, time.Second, 5*time.Millisecond)

	conn := dial(t, srv)

	assert.Equal(t, "/two", readEvent(t, conn).Record.URL, "oldest event beyond capacity is dropped")
	assert.Equal(t, "/three", readEvent(t, conn).Record.URL)
}

func TestHub_FailedEvent(t *testing.T) {
	clock := testutil.NewFixedClock(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))
	h, srv := startHub(t, WithClock(clock))
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Failed(errors.New("append log entry: disk full"))

	ev := readEvent(t, conn)
	assert.Equal(t, EventFailed, ev.Type)
	assert.Equal(t, "2026-10-19T08:00:00.000Z", ev.Timestamp)
	assert.Nil(t, ev.Record)
	assert.Equal(t, "append log entry: disk full", ev.Error)
}

func TestHub_RemovesDisconnectedClients(t *testing.T) {
	h, srv := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_RunStopsOnClose(t *testing.T) {
	h := NewHub(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	h.Recorded(accesslog.Record{Method: "GET", URL: "/queued"})

	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background()) }()

	h.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.Equal(t, 1, historyLen(h), "queued event delivered before stopping")
}

func TestHub_RunStopsOnContextCancel(t *testing.T) {
	h := NewHub(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
